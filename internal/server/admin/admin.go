// Package admin implements the accountctl operator commands: setting a
// user's password and revoking a user's sessions directly in storage.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/credentials"
)

// Admin runs operator actions against the credential store.
type Admin struct {
	store *credentials.Store
	out   io.Writer
}

func New(store *credentials.Store, out io.Writer) *Admin {
	return &Admin{store: store, out: out}
}

func (a *Admin) user(ctx context.Context, email string) (string, error) {
	u, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: %s", common.ErrUserNotFound, email)
		}
		return "", err
	}
	return u.ID, nil
}

// SetPassword replaces the password of the user with email and signs the
// user out everywhere. A pending action token is dropped.
func (a *Admin) SetPassword(ctx context.Context, email, password string) error {
	id, err := a.user(ctx, email)
	if err != nil {
		return err
	}

	var revoked int64
	err = a.store.WithinTx(ctx, func(ctx context.Context, tx *credentials.Store) error {
		if _, err := tx.UpdateUser(ctx, id, credentials.UserUpdate{Password: &password, ClearActionToken: true}); err != nil {
			return err
		}
		revoked, err = tx.RevokeAllRefreshTokens(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "password updated for %s, %d session(s) revoked\n", email, revoked)
	return nil
}

// RevokeSessions revokes every active refresh token of the user with email.
func (a *Admin) RevokeSessions(ctx context.Context, email string) (int64, error) {
	id, err := a.user(ctx, email)
	if err != nil {
		return 0, err
	}
	n, err := a.store.RevokeAllRefreshTokens(ctx, id)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(a.out, "%d session(s) revoked for %s\n", n, email)
	return n, nil
}
