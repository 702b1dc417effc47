package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory with the same uniqueness
// rules as the users table. Safe for concurrent use.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.User
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.User), now: time.Now}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.ActionToken != nil {
		t := *u.ActionToken
		c.ActionToken = &t
	}
	return &c
}

// conflict must be called with mu held.
func (r *MemoryRepository) conflict(u *models.User) error {
	for id, existing := range r.byID {
		if id == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return common.ErrDuplicateEmail
		}
		if existing.PersonalIDCode == u.PersonalIDCode {
			return common.ErrDuplicatePersonalID
		}
	}
	return nil
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = uuid.NewString()
	if err := r.conflict(user); err != nil {
		return nil, err
	}
	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.byID[user.ID] = clone(user)
	return user, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err := r.conflict(user); err != nil {
		return nil, err
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.now()
	r.byID[user.ID] = clone(user)
	return user, nil
}
