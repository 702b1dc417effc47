package refreshtokens

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps refresh tokens in process memory. The revoke
// check-and-set runs under a single mutex.
type MemoryRepository struct {
	mu      sync.Mutex
	byToken map[string]*models.RefreshToken
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byToken: make(map[string]*models.RefreshToken), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, userID string, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[token]; ok {
		return nil, fmt.Errorf("db error: duplicate refresh token")
	}
	now := r.now()
	rt := &models.RefreshToken{
		ID: uuid.NewString(), UserID: userID, Token: token, ExpiresAt: expiresAt,
		CreatedAt: now, UpdatedAt: now,
	}
	r.byToken[token] = rt
	c := *rt
	return &c, nil
}

func (r *MemoryRepository) FindActive(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.byToken[token]
	if !ok || rt.IsRevoked {
		return nil, common.ErrorNotFound
	}
	c := *rt
	return &c, nil
}

func (r *MemoryRepository) Revoke(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.byToken[token]
	if !ok || rt.IsRevoked {
		return false, nil
	}
	rt.IsRevoked = true
	rt.UpdatedAt = r.now()
	return true, nil
}

func (r *MemoryRepository) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, rt := range r.byToken {
		if rt.UserID == userID && !rt.IsRevoked {
			rt.IsRevoked = true
			rt.UpdatedAt = r.now()
			n++
		}
	}
	return n, nil
}
