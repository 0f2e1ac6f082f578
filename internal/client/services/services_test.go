package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/sealtalk/internal/client/keystore"
	"github.com/dmitrijs2005/sealtalk/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/logging"
	"github.com/dmitrijs2005/sealtalk/internal/models"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/messages"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/profiles"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	local       localstore.Repository
	keys        *keystore.Store
	profiles    *profiles.MemoryRepository
	messages    *tamperingMessages
	provider    *cryptox.ECDHProvider
	provisioner *KeyProvisioner
	deriver     *SecretDeriver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider, err := cryptox.NewECDHProvider(cryptox.CurveP256)
	require.NoError(t, err)

	f := &fixture{
		local:    localstore.NewMemoryRepository(),
		profiles: profiles.NewMemoryRepository(),
		messages: &tamperingMessages{Repository: messages.NewMemoryRepository()},
		provider: provider,
	}
	f.keys = keystore.NewStore(f.local)
	f.provisioner = NewKeyProvisioner(logging.Discard(), f.keys, f.profiles, provider)
	f.deriver = NewSecretDeriver(f.keys, provider)
	return f
}

// user creates a profile for id and provisions its keys.
func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()

	u := &models.User{ID: id, DisplayName: id}
	require.NoError(t, f.profiles.Create(context.Background(), u))

	got, err := f.provisioner.EnsureKeyPair(context.Background(), u)
	require.NoError(t, err)
	return got
}

func (f *fixture) manager(cfg ConversationConfig) *ConversationManager {
	return NewConversationManager(logging.Discard(), f.profiles, f.messages, f.deriver, cfg)
}

// failingStore fails Get or Set with err.
type failingStore struct {
	localstore.Repository
	failGet bool
	failSet bool
	err     error
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failGet {
		return nil, s.err
	}
	return s.Repository.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet {
		return s.err
	}
	return s.Repository.Set(ctx, key, value)
}

// failingAgreement fails key generation.
type failingAgreement struct {
	cryptox.KeyAgreementProvider
}

func (failingAgreement) GenerateKeyPair() ([]byte, []byte, error) {
	return nil, nil, errors.New("entropy source gone")
}

// tamperingMessages serves replaced envelopes for chosen messages, as if they
// were corrupted in transit or at rest.
type tamperingMessages struct {
	messages.Repository
	mu       sync.Mutex
	replaced map[string]string
}

// Tamper replaces the envelope of message id in conversationID. It reports
// whether the message exists.
func (m *tamperingMessages) Tamper(conversationID, id, envelope string) bool {
	stored, err := m.Repository.List(context.Background(), conversationID, 0)
	if err != nil {
		return false
	}
	for _, msg := range stored {
		if msg.ID == id {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.replaced == nil {
				m.replaced = map[string]string{}
			}
			m.replaced[id] = envelope
			return true
		}
	}
	return false
}

func (m *tamperingMessages) List(ctx context.Context, conversationID string, limit int) ([]models.StoredMessage, error) {
	stored, err := m.Repository.List(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range stored {
		if env, ok := m.replaced[stored[i].ID]; ok {
			stored[i].Envelope = env
		}
	}
	return stored, nil
}
