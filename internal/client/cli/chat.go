package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/dmitrijs2005/sealtalk/internal/client/services"
	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/filex"
	"github.com/dmitrijs2005/sealtalk/internal/models"
)

var (
	errNotLoggedIn    = errors.New("not logged in")
	errNoConversation = errors.New("no open conversation, use: chat <user>")
)

// ready reports whether private messaging can be used right now.
func (a *App) ready() error {
	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return errNotLoggedIn
	}
	if a.mode == ModeDegraded || a.conversations.Disabled() {
		a.degrade(services.ErrEncryptionDisabled)
		a.printf("Private messaging is unavailable in this session\n")
		return services.ErrEncryptionDisabled
	}
	return nil
}

func (a *App) afterCryptoError(err error) {
	if errors.Is(err, cryptox.ErrCipherUnavailable) {
		a.degrade(err)
	}
}

// Chat opens the conversation with peerID and makes it current.
func (a *App) Chat(ctx context.Context, peerID string) error {
	if err := a.ready(); err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	c, err := a.conversations.Open(ctx, a.user, peerID)
	switch services.StateOf(err) {
	case models.ConversationEstablishing:
		a.printf("%s: %s\n", peerID, models.EstablishingPlaceholder)
		return err
	case models.ConversationInsecure:
		a.printf("%s: %s (%v)\n", peerID, models.InsecurePlaceholder, err)
		return err
	}

	a.current = c
	a.lastView = nil
	a.printf("Secure conversation with %s\n", peerID)
	return nil
}

func (a *App) Send(ctx context.Context, text string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.current == nil {
		a.printf("%v\n", errNoConversation)
		return errNoConversation
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if _, err := a.current.Send(ctx, models.MessageBody{Text: text}); err != nil {
		a.afterCryptoError(err)
		a.printf("Message not sent: %v\n", err)
		return err
	}
	a.printf("sent\n")
	return nil
}

// Attach encrypts the file at path, uploads it and sends a message that
// references it.
func (a *App) Attach(ctx context.Context, path, caption string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.current == nil {
		a.printf("%v\n", errNoConversation)
		return errNoConversation
	}

	data, err := filex.ReadLimited(path, a.config.MaxAttachmentSize)
	if err != nil {
		a.printf("error: %v\n", err)
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	att, err := a.attachments.Put(ctx, a.current.ID, path, data)
	if err != nil {
		a.printf("Attachment not uploaded: %v\n", err)
		return err
	}

	body := models.MessageBody{Text: caption, Attachments: []models.Attachment{att}}
	if _, err := a.current.Send(ctx, body); err != nil {
		a.afterCryptoError(err)
		a.printf("Message not sent: %v\n", err)
		return err
	}
	a.printf("sent %s (%d bytes)\n", att.Name, att.Size)
	return nil
}

func (a *App) History(ctx context.Context) error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.current == nil {
		a.printf("%v\n", errNoConversation)
		return errNoConversation
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msgs, err := a.current.History(ctx)
	if err != nil {
		a.afterCryptoError(err)
		a.printf("error: %v\n", err)
		return err
	}

	a.lastView = msgs
	if len(msgs) == 0 {
		a.printf("No messages yet\n")
		return nil
	}

	for i, m := range msgs {
		a.printf("[%d] %s %s: %s\n", i+1, m.CreatedAt.Local().Format("2006-01-02 15:04"), m.SenderID, m.Text())
		for _, att := range m.Body.Attachments {
			a.printf("      + %s (%d bytes)\n", att.Name, att.Size)
		}
	}
	return nil
}

// Save downloads the attachments of message n of the last history listing
// into dir.
func (a *App) Save(ctx context.Context, n int, dir string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if n < 1 || n > len(a.lastView) {
		a.printf("No message %d, run history first\n", n)
		return errors.New("message index out of range")
	}

	m := a.lastView[n-1]
	if m.State != models.RenderOK || len(m.Body.Attachments) == 0 {
		a.printf("Message %d has no attachments\n", n)
		return nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		a.printf("error: %v\n", err)
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	for i, att := range m.Body.Attachments {
		data, err := a.attachments.Get(ctx, att)
		if err != nil {
			a.printf("%s: %v\n", att.Name, err)
			return err
		}
		dst := filepath.Join(dir, attachmentFileName(att, i+1))
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			a.printf("error: %v\n", err)
			return err
		}
		a.printf("saved %s\n", dst)
	}
	return nil
}

// attachmentFileName picks a file name inside the target directory. Names
// that would resolve to the directory itself or its parent fall back to the
// storage key, then to a numbered name.
func attachmentFileName(att models.Attachment, n int) string {
	for _, candidate := range []string{att.Name, path.Base(att.StorageKey)} {
		name := filepath.Base(filepath.FromSlash(candidate))
		switch name {
		case ".", "..", string(filepath.Separator), "":
			continue
		}
		return name
	}
	return fmt.Sprintf("attachment-%d", n)
}

// CloseChat closes the current conversation and destroys its secret.
func (a *App) CloseChat(ctx context.Context) error {
	if a.current == nil {
		a.printf("No open conversation\n")
		return nil
	}
	a.current.Close()
	a.logger.Debug(ctx, "conversation closed", "conversation_id", a.current.ID)
	a.current = nil
	a.lastView = nil
	a.printf("Conversation closed\n")
	return nil
}
