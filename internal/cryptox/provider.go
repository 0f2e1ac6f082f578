// Package cryptox implements the cryptographic core of private messaging:
// ECDH key agreement, derivation of a per-conversation AES-256-GCM key, and
// the envelope format used to store encrypted message bodies.
//
// The primitives are reached through two narrow capability interfaces,
// KeyAgreementProvider and AeadCipherProvider, so callers and tests can swap
// the implementation.
package cryptox

import "crypto/cipher"

// KeyAgreementProvider creates identity keypairs and performs key agreement.
// Keys cross this interface in their raw exported encoding.
type KeyAgreementProvider interface {
	// Curve names the curve keys belong to. It is stored next to local
	// keypairs so a key is never used with another curve.
	Curve() string

	// GenerateKeyPair returns a fresh private key and its public half.
	GenerateKeyPair() (private, public []byte, err error)

	// PublicKey recomputes the public half of an exported private key.
	PublicKey(private []byte) ([]byte, error)

	// DeriveKey combines a local private key with a peer public key and
	// returns the symmetric key for the pair. It returns ErrInvalidPeerKey when
	// the peer key is not a valid key for the provider's curve.
	DeriveKey(private, peerPublic []byte) (*SecretKey, error)
}

// AeadCipherProvider builds an AEAD instance for a symmetric key.
type AeadCipherProvider interface {
	NewAEAD(key []byte) (cipher.AEAD, error)
}
