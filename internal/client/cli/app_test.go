package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/sealtalk/internal/auth"
	"github.com/dmitrijs2005/sealtalk/internal/client/config"
	"github.com/dmitrijs2005/sealtalk/internal/client/keystore"
	"github.com/dmitrijs2005/sealtalk/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/sealtalk/internal/client/services"
	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/logging"
	"github.com/dmitrijs2005/sealtalk/internal/models"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/messages"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakePresigner struct{}

func (fakePresigner) PresignUpload(_ context.Context, conversationID string) (string, string, error) {
	return conversationID + "/obj", "put://" + conversationID + "/obj", nil
}

func (fakePresigner) PresignDownload(_ context.Context, key string) (string, error) {
	return "get://" + key, nil
}

// world is the shared backend two devices talk through.
type world struct {
	profiles *profiles.MemoryRepository
	messages *messages.MemoryRepository
	objects  map[string][]byte
}

func newWorld() *world {
	return &world{
		profiles: profiles.NewMemoryRepository(),
		messages: messages.NewMemoryRepository(),
		objects:  map[string][]byte{},
	}
}

type testDevice struct {
	app   *App
	out   *bytes.Buffer
	local localstore.Repository
}

func (w *world) device(t *testing.T, agreement cryptox.KeyAgreementProvider) *testDevice {
	t.Helper()

	if agreement == nil {
		p, err := cryptox.NewECDHProvider(cryptox.CurveP256)
		require.NoError(t, err)
		agreement = p
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.IdentitySecret = testSecret

	local := localstore.NewMemoryRepository()
	keys := keystore.NewStore(local)
	logger := logging.Discard()

	store := services.NewAttachmentStore(fakePresigner{})
	setAttachmentTransport(store, w.objects)

	app := NewApp(cfg, Deps{
		Logger:      logger,
		Profiles:    w.profiles,
		Provisioner: services.NewKeyProvisioner(logger, keys, w.profiles, agreement),
		Conversations: services.NewConversationManager(logger, w.profiles, w.messages,
			services.NewSecretDeriver(keys, agreement), services.ConversationConfig{}),
		Attachments: store,
	})

	out := &bytes.Buffer{}
	app.out = out
	return &testDevice{app: app, out: out, local: local}
}

func (d *testDevice) login(t *testing.T, userID string) {
	t.Helper()
	tok, err := auth.IssueIdentityToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	d.app.reader = bufio.NewReader(strings.NewReader(tok + "\n"))
	require.NoError(t, d.app.Login(context.Background()))
}

func pipeInput(t *testing.T) {
	t.Helper()
	stubTerminal(t, false, nil)
}

func TestApp_LoginProvisionsKeys(t *testing.T) {
	pipeInput(t)
	w := newWorld()
	d := w.device(t, nil)

	d.login(t, "alice")

	assert.Equal(t, ModeSecure, d.app.mode)
	assert.Equal(t, "(alice secure)", d.app.getStatus())
	assert.Contains(t, d.out.String(), "Logged in as alice")

	pub, err := w.profiles.GetPublicKey(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, pub)
	assert.Equal(t, pub, d.app.user.PublicKey)
}

func TestApp_LoginBadToken(t *testing.T) {
	pipeInput(t)
	d := newWorld().device(t, nil)

	tok, err := auth.IssueIdentityToken("alice", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	d.app.reader = bufio.NewReader(strings.NewReader(tok + "\n"))

	require.Error(t, d.app.Login(context.Background()))
	assert.False(t, d.app.isLoggedIn())
	assert.Contains(t, d.out.String(), "Login unsuccessful")
}

type brokenAgreement struct{ cryptox.KeyAgreementProvider }

func (brokenAgreement) GenerateKeyPair() ([]byte, []byte, error) {
	return nil, nil, errors.New("no entropy")
}

func TestApp_DegradedModeAfterProvisioningFailure(t *testing.T) {
	pipeInput(t)
	p, err := cryptox.NewECDHProvider(cryptox.CurveP256)
	require.NoError(t, err)

	d := newWorld().device(t, brokenAgreement{p})
	d.login(t, "alice")

	assert.True(t, d.app.isLoggedIn())
	assert.Equal(t, ModeDegraded, d.app.mode)

	require.ErrorIs(t, d.app.Chat(context.Background(), "bob"), services.ErrEncryptionDisabled)
	require.ErrorIs(t, d.app.Send(context.Background(), "hi"), services.ErrEncryptionDisabled)

	assert.Equal(t, 1, strings.Count(d.out.String(), "Warning: private messaging is unavailable"))
}

func TestApp_ConversationBetweenDevices(t *testing.T) {
	pipeInput(t)
	ctx := context.Background()
	w := newWorld()

	alice := w.device(t, nil)
	bob := w.device(t, nil)

	alice.login(t, "alice")

	// bob has no key yet
	require.NoError(t, w.profiles.Create(ctx, &models.User{ID: "bob"}))
	require.ErrorIs(t, alice.app.Chat(ctx, "bob"), services.ErrPeerKeyUnavailable)
	assert.Contains(t, alice.out.String(), models.EstablishingPlaceholder)

	bob.login(t, "bob")
	require.NoError(t, alice.app.Chat(ctx, "bob"))
	assert.Equal(t, "(alice secure @bob)", alice.app.getStatus())
	require.NoError(t, alice.app.Send(ctx, "hello bob"))

	require.NoError(t, bob.app.Chat(ctx, "alice"))
	require.NoError(t, bob.app.History(ctx))
	assert.Contains(t, bob.out.String(), "alice: hello bob")

	stored, err := w.messages.List(ctx, services.ConversationID("alice", "bob"), 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotContains(t, stored[0].Envelope, "hello")
}

func TestApp_HistoryShowsPlaceholderForBrokenMessage(t *testing.T) {
	pipeInput(t)
	ctx := context.Background()
	w := newWorld()

	alice := w.device(t, nil)
	bob := w.device(t, nil)
	alice.login(t, "alice")
	bob.login(t, "bob")

	require.NoError(t, alice.app.Chat(ctx, "bob"))
	require.NoError(t, alice.app.Send(ctx, "second"))

	// an envelope corrupted in transit
	require.NoError(t, w.messages.Append(ctx, &models.StoredMessage{
		ConversationID: services.ConversationID("alice", "bob"),
		SenderID:       "alice",
		RecipientID:    "bob",
		Envelope:       "AAAAAAAAAAAAAAAA.AAAAAAAAAAAAAAAAAAAAAAAA",
	}))

	require.NoError(t, bob.app.Chat(ctx, "alice"))
	require.NoError(t, bob.app.History(ctx))

	out := bob.out.String()
	assert.Contains(t, out, "alice: "+models.UndecryptablePlaceholder)
	assert.Contains(t, out, "alice: second")
}

func TestApp_AttachAndSave(t *testing.T) {
	pipeInput(t)
	ctx := context.Background()
	w := newWorld()

	alice := w.device(t, nil)
	bob := w.device(t, nil)
	alice.login(t, "alice")
	bob.login(t, "bob")

	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("top secret"), 0o600))

	require.NoError(t, alice.app.Chat(ctx, "bob"))
	require.NoError(t, alice.app.Attach(ctx, src, "see file"))
	assert.Contains(t, alice.out.String(), "sent notes.txt (10 bytes)")

	require.NoError(t, bob.app.Chat(ctx, "alice"))
	require.NoError(t, bob.app.History(ctx))
	assert.Contains(t, bob.out.String(), "+ notes.txt (10 bytes)")

	dst := t.TempDir()
	require.NoError(t, bob.app.Save(ctx, 1, dst))

	got, err := os.ReadFile(filepath.Join(dst, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("top secret"), got)

	require.Error(t, bob.app.Save(ctx, 5, dst))
}

func TestApp_CloseLogoutForget(t *testing.T) {
	pipeInput(t)
	ctx := context.Background()
	w := newWorld()

	alice := w.device(t, nil)
	bob := w.device(t, nil)
	alice.login(t, "alice")
	bob.login(t, "bob")

	require.NoError(t, alice.app.Chat(ctx, "bob"))
	conv := alice.app.current
	require.NoError(t, alice.app.CloseChat(ctx))
	assert.Nil(t, alice.app.current)
	assert.Zero(t, alice.app.conversations.OpenCount())
	_, err := conv.Send(ctx, models.MessageBody{Text: "x"})
	require.ErrorIs(t, err, services.ErrConversationClosed)

	require.ErrorIs(t, alice.app.Send(ctx, "x"), errNoConversation)

	require.NoError(t, alice.app.Chat(ctx, "bob"))
	require.NoError(t, alice.app.Logout(ctx))
	assert.False(t, alice.app.isLoggedIn())
	assert.Zero(t, alice.app.conversations.OpenCount())
	assert.Equal(t, "", alice.app.getStatus())

	alice.login(t, "alice")
	require.NoError(t, alice.app.Check(ctx))
	require.NoError(t, alice.app.Forget(ctx))

	keys, err := alice.local.Keys(ctx, "e2ee/")
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.False(t, alice.app.isLoggedIn())
}

func TestApp_CommandsRequireLogin(t *testing.T) {
	d := newWorld().device(t, nil)
	ctx := context.Background()

	require.ErrorIs(t, d.app.Chat(ctx, "bob"), errNotLoggedIn)
	require.ErrorIs(t, d.app.History(ctx), errNotLoggedIn)
	require.NoError(t, d.app.Logout(ctx))
	require.NoError(t, d.app.Whoami(ctx))
	assert.Contains(t, d.out.String(), "Not logged in")
}

func TestApp_RunPipedLogin(t *testing.T) {
	pipeInput(t)
	repl := captureOutput(t)
	d := newWorld().device(t, nil)

	tok, err := auth.IssueIdentityToken("alice", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	d.app.reader = bufio.NewReader(strings.NewReader("login\n" + tok + "\nwhoami\nexit\n"))

	d.app.Run(context.Background())

	assert.True(t, d.app.isLoggedIn())
	assert.Contains(t, d.out.String(), "Logged in as alice")
	assert.Contains(t, d.out.String(), "alice (secure)")
	assert.NotContains(t, d.out.String(), tok)
	assert.NotContains(t, strings.Join(*repl, "\n"), tok)
}

func TestApp_RunNeverEchoesUnknownInput(t *testing.T) {
	pipeInput(t)
	repl := captureOutput(t)
	d := newWorld().device(t, nil)

	d.app.reader = bufio.NewReader(strings.NewReader("eyJhbGciOiJIUzI1NiJ9.secret\n"))
	d.app.Run(context.Background())

	assert.NotContains(t, strings.Join(*repl, "\n"), "eyJhbGciOiJIUzI1NiJ9")
	assert.NotContains(t, d.out.String(), "eyJhbGciOiJIUzI1NiJ9")
}

func TestApp_ForgetDevice(t *testing.T) {
	pipeInput(t)
	ctx := context.Background()
	w := newWorld()

	d := w.device(t, nil)
	d.login(t, "alice")
	require.NoError(t, d.app.Logout(ctx))
	d.login(t, "bob")

	require.NoError(t, d.app.ForgetDevice(ctx))
	assert.Contains(t, d.out.String(), "Local keys removed for 2 user(s)")
	assert.False(t, d.app.isLoggedIn())

	keys, err := d.local.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAttachmentFileName(t *testing.T) {
	tests := []struct {
		name string
		att  models.Attachment
		want string
	}{
		{"plain", models.Attachment{Name: "notes.txt", StorageKey: "k/obj"}, "notes.txt"},
		{"path stripped", models.Attachment{Name: "../../etc/passwd", StorageKey: "k/obj"}, "passwd"},
		{"empty name", models.Attachment{Name: "", StorageKey: "attachments/dm/abc"}, "abc"},
		{"dot dot", models.Attachment{Name: "..", StorageKey: "attachments/dm/abc"}, "abc"},
		{"root", models.Attachment{Name: "/", StorageKey: "attachments/dm/abc"}, "abc"},
		{"nothing usable", models.Attachment{Name: "..", StorageKey: ""}, "attachment-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attachmentFileName(tt.att, 3))
		})
	}
}

func TestApp_SaveAttachmentWithUnsafeName(t *testing.T) {
	pipeInput(t)
	ctx := context.Background()
	w := newWorld()

	alice := w.device(t, nil)
	bob := w.device(t, nil)
	alice.login(t, "alice")
	bob.login(t, "bob")

	require.NoError(t, alice.app.Chat(ctx, "bob"))
	att, err := alice.app.attachments.Put(ctx, alice.app.current.ID, "..", []byte("payload"))
	require.NoError(t, err)
	_, err = alice.app.current.Send(ctx, models.MessageBody{Attachments: []models.Attachment{att}})
	require.NoError(t, err)

	require.NoError(t, bob.app.Chat(ctx, "alice"))
	require.NoError(t, bob.app.History(ctx))

	dst := t.TempDir()
	require.NoError(t, bob.app.Save(ctx, 1, dst))

	got, err := os.ReadFile(filepath.Join(dst, "obj"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}
