package companies

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.Company
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.Company), now: time.Now}
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]*models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Company{}
	for _, c := range r.byID {
		if c.UserID == userID {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) Get(_ context.Context, userID, id string) (*models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) Create(_ context.Context, company *models.Company) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	company.ID = uuid.NewString()
	now := r.now()
	company.CreatedAt, company.UpdatedAt = now, now
	cp := *company
	r.byID[company.ID] = &cp
	return company, nil
}

func (r *MemoryRepository) Update(_ context.Context, company *models.Company) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[company.ID]
	if !ok || existing.UserID != company.UserID {
		return nil, common.ErrorNotFound
	}
	company.CreatedAt = existing.CreatedAt
	company.UpdatedAt = r.now()
	cp := *company
	r.byID[company.ID] = &cp
	return company, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok || c.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}
