package profiles

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/sealtalk/internal/common"
	"github.com/dmitrijs2005/sealtalk/internal/models"
)

// MemoryRepository keeps profiles in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: map[string]models.User{}}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("profile %s already exists", user.ID)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) GetPublicKey(ctx context.Context, userID string) (string, error) {
	u, err := r.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.PublicKey, nil
}

func (r *MemoryRepository) SetPublicKey(_ context.Context, userID string, publicKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PublicKey = publicKey
	r.users[userID] = u
	return nil
}
