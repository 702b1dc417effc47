// Package refreshtokens declares the repository contract for refresh token
// session records.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

// Repository defines operations for issuing, retrieving and revoking refresh
// tokens. Rows are never deleted.
type Repository interface {
	// Create stores a new, non-revoked refresh token for userID.
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) (*models.RefreshToken, error)

	// FindActive looks up a non-revoked token by exact string match and
	// returns common.ErrorNotFound when there is none.
	FindActive(ctx context.Context, token string) (*models.RefreshToken, error)

	// Revoke marks token revoked only if it is still active and reports
	// whether this call performed the transition. At most one concurrent
	// caller observes true for a given token.
	Revoke(ctx context.Context, token string) (bool, error)

	// RevokeAllForUser revokes every active token of userID and returns how
	// many were revoked.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}
