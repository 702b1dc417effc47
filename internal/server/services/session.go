// Package services contains server-side business logic: the session
// lifecycle (login, refresh rotation, logout), the account lifecycle
// (signup, email verification, password reset) and company CRUD.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

// LoginResult is returned by a successful login. RefreshToken must only be
// handed to the client through the cookie channel.
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *models.PublicUser
}

// RefreshResult carries the rotated token pair.
type RefreshResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SessionService issues, rotates and revokes sessions.
type SessionService struct {
	store *credentials.Store
	codec *auth.Codec
	log   logging.Logger

	// dummyHash is compared against on unknown emails so that login takes
	// the same time whether or not the account exists.
	dummyHash string
}

func NewSessionService(store *credentials.Store, codec *auth.Codec, log logging.Logger) *SessionService {
	s := &SessionService{store: store, codec: codec, log: log.With("module", "session")}
	if seed, err := common.MakeRandHexString(16); err == nil {
		s.dummyHash, _ = store.HashPassword(seed)
	}
	return s
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords are both ErrInvalidCredentials; unverified accounts are rejected
// with ErrUnverifiedAccount before the password is looked at.
func (s *SessionService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.store.ComparePassword(s.dummyHash, password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsVerified {
		return nil, common.ErrUnverifiedAccount
	}
	if !s.store.ComparePassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "login", "user_id", user.ID)
	return &LoginResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             user.Public(),
	}, nil
}

// Refresh redeems presented for a new token pair. A refresh token is good
// for exactly one successful call: the old row is revoked with a
// conditional write in the same transaction that stores the new one, so a
// concurrent second redemption fails with ErrInvalidToken. Expired rows are
// revoked when they are detected.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*RefreshResult, error) {
	if presented == "" {
		return nil, common.ErrMissingToken
	}

	row, err := s.store.FindActiveRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if row.Expired(s.codec.Now()) {
		if err := s.store.RevokeRefreshToken(ctx, presented); err != nil && !errors.Is(err, common.ErrInvalidToken) {
			return nil, err
		}
		return nil, common.ErrTokenExpired
	}

	claims, err := s.codec.Verify(auth.KindRefresh, row.Token)
	if err != nil {
		return nil, err
	}
	if claims.UserID != row.UserID {
		return nil, common.ErrInvalidToken
	}

	user, err := s.store.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}

	var result *RefreshResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx *credentials.Store) error {
		if err := tx.RevokeRefreshToken(ctx, presented); err != nil {
			return err
		}
		pair, err := s.issue(ctx, tx, user)
		if err != nil {
			return err
		}
		result = pair
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "refresh token rotated", "user_id", user.ID)
	return result, nil
}

// Logout revokes presented. Unknown or already revoked tokens are not an
// error.
func (s *SessionService) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	if err := s.store.RevokeRefreshToken(ctx, presented); err != nil && !errors.Is(err, common.ErrInvalidToken) {
		return err
	}
	return nil
}

// LogoutAll revokes every active session of userID.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.store.RevokeAllRefreshTokens(ctx, userID)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "all sessions revoked", "user_id", userID, "count", n)
	return nil
}

// Authenticate verifies an access token.
func (s *SessionService) Authenticate(_ context.Context, accessToken string) (*auth.Claims, error) {
	if accessToken == "" {
		return nil, common.ErrMissingToken
	}
	return s.codec.Verify(auth.KindAccess, accessToken)
}

// issue signs an access/refresh pair for user and persists the refresh row
// through store.
func (s *SessionService) issue(ctx context.Context, store *credentials.Store, user *models.User) (*RefreshResult, error) {
	claims := auth.Claims{UserID: user.ID, Email: user.Email}

	access, err := s.codec.Sign(auth.KindAccess, claims)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Sign(auth.KindRefresh, claims)
	if err != nil {
		return nil, err
	}

	expiresAt := s.codec.Now().Add(s.codec.TTL(auth.KindRefresh))
	if _, err := store.CreateRefreshToken(ctx, refresh, user.ID, expiresAt); err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: expiresAt}, nil
}
