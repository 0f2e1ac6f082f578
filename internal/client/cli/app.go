package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/sealtalk/internal/client/config"
	"github.com/dmitrijs2005/sealtalk/internal/client/services"
	"github.com/dmitrijs2005/sealtalk/internal/logging"
	"github.com/dmitrijs2005/sealtalk/internal/models"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/profiles"
)

// Mode is the session state shown in the prompt.
type Mode string

const (
	// ModeSecure: keys are provisioned, private conversations are encrypted.
	ModeSecure Mode = "secure"

	// ModeDegraded: provisioning or the cipher backend failed; private
	// messaging is unavailable for the rest of the session.
	ModeDegraded Mode = "degraded"
)

// Deps are the services the App drives.
type Deps struct {
	Logger        logging.Logger
	Profiles      profiles.Repository
	Provisioner   *services.KeyProvisioner
	Conversations *services.ConversationManager
	Attachments   *services.AttachmentStore
}

type App struct {
	config *config.Config
	logger logging.Logger

	profiles      profiles.Repository
	provisioner   *services.KeyProvisioner
	conversations *services.ConversationManager
	attachments   *services.AttachmentStore

	reader *bufio.Reader
	out    io.Writer

	user     *models.User
	mode     Mode
	current  *services.Conversation
	lastView []models.RenderedMessage
	warned   bool
}

func NewApp(cfg *config.Config, deps Deps) *App {
	return &App{
		config:        cfg,
		logger:        deps.Logger,
		profiles:      deps.Profiles,
		provisioner:   deps.Provisioner,
		conversations: deps.Conversations,
		attachments:   deps.Attachments,
		reader:        bufio.NewReader(os.Stdin),
		out:           os.Stdout,
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

// withTimeout bounds one command's calls to the collaborators.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) getStatus() string {
	if a.user == nil {
		return ""
	}
	s := a.user.ID
	if a.mode != "" {
		s += " " + string(a.mode)
	}
	if a.current != nil {
		s += " @" + a.current.PeerID
	}
	return "(" + s + ")"
}

// Run prints the banner and drives the REPL until EOF or exit.
func (a *App) Run(ctx context.Context) {
	a.printf("Welcome to SealTalk (type 'help' for commands)\n")
	defer a.conversations.CloseAll()

	started := time.Now()
	runREPL(ctx, a, a.getStatus, a.reader)
	a.logger.Debug(ctx, "session finished", "duration", time.Since(started).String())
}
