package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/logging"
	"github.com/dmitrijs2005/sealtalk/internal/models"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/messages"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/profiles"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDecryptConcurrency = 4
	DefaultHistoryLimit       = 200
)

// ConversationID is the id shared by both participants of a private
// conversation: "dm:<len(lower id)>:<lower id>:<higher id>". The length
// prefix keeps ids containing ':' from colliding across pairs.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm:" + strconv.Itoa(len(a)) + ":" + a + ":" + b
}

// StateOf maps an Open error to the conversation state the UI shows.
func StateOf(err error) models.ConversationState {
	switch {
	case err == nil:
		return models.ConversationSecure
	case errors.Is(err, ErrPeerKeyUnavailable):
		return models.ConversationEstablishing
	default:
		return models.ConversationInsecure
	}
}

type ConversationConfig struct {
	DecryptConcurrency int
	HistoryLimit       int
	// Cipher defaults to the package-level AES-GCM cipher.
	Cipher *cryptox.Cipher
}

// ConversationManager owns the derived secrets of the open conversations of
// one signed-in user. Secrets live only in this cache and are destroyed when
// the conversation is closed.
type ConversationManager struct {
	logger   logging.Logger
	profiles profiles.Repository
	messages messages.Repository
	deriver  *SecretDeriver
	cipher   *cryptox.Cipher
	cfg      ConversationConfig

	mu       sync.Mutex
	open     map[string]*Conversation
	disabled bool
}

func NewConversationManager(logger logging.Logger, profiles profiles.Repository, messages messages.Repository, deriver *SecretDeriver, cfg ConversationConfig) *ConversationManager {
	if cfg.DecryptConcurrency <= 0 {
		cfg.DecryptConcurrency = DefaultDecryptConcurrency
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	c := cfg.Cipher
	if c == nil {
		c = cryptox.NewCipher(nil, nil)
	}

	return &ConversationManager{
		logger:   logger,
		profiles: profiles,
		messages: messages,
		deriver:  deriver,
		cipher:   c,
		cfg:      cfg,
		open:     make(map[string]*Conversation),
	}
}

// Open returns the conversation between local and peerID, deriving and
// caching its secret on first use.
func (m *ConversationManager) Open(ctx context.Context, local *models.User, peerID string) (*Conversation, error) {
	if m.Disabled() {
		return nil, ErrEncryptionDisabled
	}
	if local.ID == peerID {
		return nil, ErrSelfConversation
	}

	id := ConversationID(local.ID, peerID)

	m.mu.Lock()
	if c, ok := m.open[id]; ok {
		m.mu.Unlock()
		return c, nil
	}
	m.mu.Unlock()

	peerKey, err := m.profiles.GetPublicKey(ctx, peerID)
	if err != nil {
		return nil, fmt.Errorf("fetch public key of %s: %w", peerID, err)
	}
	if peerKey == "" {
		m.logger.Debug(ctx, "peer has no public key yet", "peer_id", peerID)
		return nil, ErrPeerKeyUnavailable
	}

	secret, err := m.deriver.Derive(ctx, local.ID, peerKey)
	if err != nil {
		m.logger.Warn(ctx, "cannot derive conversation secret", "conversation_id", id, "error", err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.open[id]; ok {
		secret.Destroy()
		return c, nil
	}

	c := &Conversation{
		ID:      id,
		LocalID: local.ID,
		PeerID:  peerID,
		secret:  secret,
		manager: m,
	}
	m.open[id] = c
	m.logger.Info(ctx, "conversation opened", "conversation_id", id)
	return c, nil
}

// Close evicts the conversation and destroys its secret. It reports whether
// the conversation was open.
func (m *ConversationManager) Close(id string) bool {
	m.mu.Lock()
	c, ok := m.open[id]
	delete(m.open, id)
	m.mu.Unlock()

	if ok {
		c.destroy()
	}
	return ok
}

// CloseAll closes every open conversation. Called on logout.
func (m *ConversationManager) CloseAll() {
	m.mu.Lock()
	open := m.open
	m.open = make(map[string]*Conversation)
	m.mu.Unlock()

	for _, c := range open {
		c.destroy()
	}
}

// OpenCount is the number of cached conversation secrets.
func (m *ConversationManager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

func (m *ConversationManager) Disabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabled
}

func (m *ConversationManager) checkCipher(ctx context.Context, err error) {
	if !errors.Is(err, cryptox.ErrCipherUnavailable) {
		return
	}
	m.mu.Lock()
	already := m.disabled
	m.disabled = true
	m.mu.Unlock()

	if !already {
		m.logger.Error(ctx, "cipher backend failed, disabling encrypted messaging", "error", err)
	}
}

// Conversation is an open private conversation with a cached secret.
type Conversation struct {
	ID      string
	LocalID string
	PeerID  string

	// mu guards secret against Close while a Send or History is running.
	mu      sync.RWMutex
	secret  *cryptox.SecretKey
	closed  bool
	manager *ConversationManager
}

func (c *Conversation) destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.secret.Destroy()
}

// Close is a shorthand for closing this conversation in its manager.
func (c *Conversation) Close() {
	c.manager.Close(c.ID)
}

// Send encrypts body and hands the envelope to the message transport.
func (c *Conversation) Send(ctx context.Context, body models.MessageBody) (*models.StoredMessage, error) {
	plaintext, err := body.Marshal()
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrConversationClosed
	}
	envelope, err := c.manager.cipher.Encrypt(c.secret, plaintext)
	c.mu.RUnlock()
	if err != nil {
		c.manager.checkCipher(ctx, err)
		return nil, fmt.Errorf("encrypt message: %w", err)
	}

	msg := &models.StoredMessage{
		ConversationID: c.ID,
		SenderID:       c.LocalID,
		RecipientID:    c.PeerID,
		Envelope:       envelope,
	}
	if err := c.manager.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return msg, nil
}

// History fetches the latest messages and decrypts them in parallel. A
// message that fails to decrypt or decode is returned as RenderUndecryptable;
// only a broken cipher backend or a cancelled context fails the whole call.
func (c *Conversation) History(ctx context.Context) ([]models.RenderedMessage, error) {
	stored, err := c.manager.messages.List(ctx, c.ID, c.manager.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrConversationClosed
	}

	out := make([]models.RenderedMessage, len(stored))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.manager.cfg.DecryptConcurrency)

	for i, msg := range stored {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := c.render(msg)
			if err != nil {
				return err
			}
			if r.State != models.RenderOK {
				c.manager.logger.Warn(gctx, "undecryptable message", "conversation_id", c.ID, "message_id", msg.ID, "error", r.Err)
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.manager.checkCipher(ctx, err)
		return nil, err
	}
	return out, nil
}

func (c *Conversation) render(msg models.StoredMessage) (models.RenderedMessage, error) {
	r := models.RenderedMessage{
		ID:        msg.ID,
		SenderID:  msg.SenderID,
		CreatedAt: msg.CreatedAt,
		State:     models.RenderUndecryptable,
	}

	plaintext, err := c.manager.cipher.Decrypt(c.secret, msg.Envelope)
	if errors.Is(err, cryptox.ErrCipherUnavailable) {
		return r, err
	}
	if err != nil {
		r.Err = err
		return r, nil
	}

	body, err := models.ParseMessageBody(plaintext)
	if err != nil {
		r.Err = err
		return r, nil
	}

	r.State = models.RenderOK
	r.Body = body
	return r, nil
}
