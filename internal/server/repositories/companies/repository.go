package companies

import (
	"context"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

// Repository persists companies. Every method is scoped by owner: a row of
// another user is indistinguishable from a missing one (common.ErrorNotFound).
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Company, error)
	Get(ctx context.Context, userID, id string) (*models.Company, error)
	Create(ctx context.Context, company *models.Company) (*models.Company, error)
	Update(ctx context.Context, company *models.Company) (*models.Company, error)
	Delete(ctx context.Context, userID, id string) error
}
