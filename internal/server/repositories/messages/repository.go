// Package messages is the message-transport collaborator: it persists private
// message envelopes verbatim and hands them back unchanged.
package messages

import (
	"context"

	"github.com/dmitrijs2005/sealtalk/internal/models"
)

// Repository stores envelopes per conversation.
//
// Append assigns ID and CreatedAt when they are empty. List returns at most
// limit messages (all when limit <= 0), oldest first.
type Repository interface {
	Append(ctx context.Context, msg *models.StoredMessage) error
	List(ctx context.Context, conversationID string, limit int) ([]models.StoredMessage, error)
}
