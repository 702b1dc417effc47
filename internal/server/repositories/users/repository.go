// Package users declares the repository contract for user identity records.
package users

import (
	"context"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

// Repository persists users. Lookups return common.ErrorNotFound when no
// row matches; Create reports unique violations as common.ErrDuplicateEmail
// or common.ErrDuplicatePersonalID.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Update writes every mutable column of user and refreshes UpdatedAt.
	Update(ctx context.Context, user *models.User) (*models.User, error)
}
