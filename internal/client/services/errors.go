package services

import "errors"

var (
	// ErrPeerKeyUnavailable: the peer has not published a public key yet. The
	// UI shows "establishing secure connection" and may retry later.
	ErrPeerKeyUnavailable = errors.New("peer has no published public key")

	// ErrPublishedKeyMismatch: the profile's public key does not belong to the
	// private key held on this device. Peers cannot read this user's messages.
	ErrPublishedKeyMismatch = errors.New("published public key does not match local private key")

	// ErrEncryptionDisabled is returned for the rest of the session once the
	// cipher backend has failed.
	ErrEncryptionDisabled = errors.New("encrypted messaging disabled for this session")

	ErrConversationClosed = errors.New("conversation closed")
	ErrSelfConversation   = errors.New("cannot open a private conversation with yourself")
)
