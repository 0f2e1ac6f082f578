package models

import "time"

// RenderState tells the UI how to draw a message or conversation.
type RenderState string

const (
	// RenderOK: Body holds the decrypted message.
	RenderOK RenderState = "ok"

	// RenderUndecryptable: permanent per-message failure; show the static
	// "message could not be decrypted" placeholder.
	RenderUndecryptable RenderState = "undecryptable"
)

// Placeholder texts shown instead of message bodies.
const (
	UndecryptablePlaceholder = "message could not be decrypted"
	EstablishingPlaceholder  = "establishing secure connection"
	InsecurePlaceholder      = "cannot establish secure connection"
)

// RenderedMessage is a stored message after decryption for display. Body is
// zero unless State is RenderOK.
type RenderedMessage struct {
	ID        string
	SenderID  string
	CreatedAt time.Time
	State     RenderState
	Body      MessageBody
	Err       error
}

// Text returns what the UI should print for the message.
func (m RenderedMessage) Text() string {
	if m.State != RenderOK {
		return UndecryptablePlaceholder
	}
	return m.Body.Text
}

// ConversationState is the security state of an open conversation.
type ConversationState string

const (
	ConversationSecure       ConversationState = "secure"
	ConversationEstablishing ConversationState = "establishing"
	ConversationInsecure     ConversationState = "insecure"
)
