package messages

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sealtalk/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps message history in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string][]models.StoredMessage
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string][]models.StoredMessage{}, now: time.Now}
}

func (r *MemoryRepository) Append(_ context.Context, msg *models.StoredMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[msg.ConversationID] = append(r.byID[msg.ConversationID], *msg)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, conversationID string, limit int) ([]models.StoredMessage, error) {
	r.mu.RLock()
	out := append([]models.StoredMessage(nil), r.byID[conversationID]...)
	r.mu.RUnlock()

	models.SortByCreatedAt(out)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
