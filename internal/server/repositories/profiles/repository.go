// Package profiles is the profile-store collaborator: it keeps user profile
// records and the public key each user publishes for private messaging.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/sealtalk/internal/models"
)

// Repository is the narrow profile API the E2EE layer consumes.
//
// GetPublicKey returns ("", nil) for a known user that has not published a
// key yet and common.ErrorNotFound for an unknown user.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, userID string) (*models.User, error)
	GetPublicKey(ctx context.Context, userID string) (string, error)
	SetPublicKey(ctx context.Context, userID string, publicKey string) error
}
