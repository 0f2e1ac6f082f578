package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrEmptyMessage = errors.New("message has neither text nor attachments")

// Attachment references an encrypted object in attachment storage. Key and
// Nonce decrypt the object; they are only ever stored inside an encrypted
// message body.
type Attachment struct {
	Name       string `json:"name"`
	StorageKey string `json:"storage_key"`
	Size       int64  `json:"size"`
	Key        []byte `json:"key"`
	Nonce      []byte `json:"nonce"`
}

// MessageBody is the structured payload that gets serialized and encrypted.
type MessageBody struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Marshal validates and serializes the body to the JSON plaintext.
func (b MessageBody) Marshal() (string, error) {
	if b.Text == "" && len(b.Attachments) == 0 {
		return "", ErrEmptyMessage
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode message body: %w", err)
	}
	return string(data), nil
}

// ParseMessageBody decodes a decrypted plaintext.
func ParseMessageBody(plaintext string) (MessageBody, error) {
	var b MessageBody
	if err := json.Unmarshal([]byte(plaintext), &b); err != nil {
		return MessageBody{}, fmt.Errorf("decode message body: %w", err)
	}
	return b, nil
}

// StoredMessage is one private message as the transport keeps it: the body is
// an opaque envelope string.
type StoredMessage struct {
	ID             string
	ConversationID string
	SenderID       string
	RecipientID    string
	Envelope       string
	CreatedAt      time.Time
}

// SortByCreatedAt orders messages oldest first, breaking ties by ID.
func SortByCreatedAt(msgs []StoredMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
