package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// EnvelopeSeparator joins the two parts of an envelope. It never occurs in
// standard base64 output.
const EnvelopeSeparator = "."

// Cipher turns plaintext message bodies into envelopes and back:
//
//	<base64(nonce)>.<base64(ciphertext||tag)>
//
// A Cipher holds no key state and is safe for concurrent use.
type Cipher struct {
	provider AeadCipherProvider
	rand     io.Reader
}

// NewCipher returns a Cipher over provider, drawing nonces from random.
// Nil arguments select AES-GCM and crypto/rand.
func NewCipher(provider AeadCipherProvider, random io.Reader) *Cipher {
	if provider == nil {
		provider = AESGCMProvider{}
	}
	if random == nil {
		random = rand.Reader
	}
	return &Cipher{provider: provider, rand: random}
}

var defaultCipher = NewCipher(nil, nil)

// Encrypt seals plaintext with the default AES-GCM cipher.
func Encrypt(key *SecretKey, plaintext string) (string, error) {
	return defaultCipher.Encrypt(key, plaintext)
}

// Decrypt opens an envelope with the default AES-GCM cipher.
func Decrypt(key *SecretKey, envelope string) (string, error) {
	return defaultCipher.Decrypt(key, envelope)
}

// Encrypt seals plaintext under key with a fresh random nonce.
func (c *Cipher) Encrypt(key *SecretKey, plaintext string) (string, error) {
	aead, err := c.aead(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrCipherUnavailable, err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(nonce) +
		EnvelopeSeparator +
		base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. It returns
// ErrMalformedEnvelope when the token cannot be parsed and ErrDecryptionFailed
// when authentication fails; in both cases the returned string is empty.
func (c *Cipher) Decrypt(key *SecretKey, envelope string) (string, error) {
	nonce, sealed, err := splitEnvelope(envelope)
	if err != nil {
		return "", err
	}

	aead, err := c.aead(key)
	if err != nil {
		return "", err
	}
	if len(nonce) != aead.NonceSize() {
		return "", fmt.Errorf("%w: nonce is %d bytes", ErrMalformedEnvelope, len(nonce))
	}
	if len(sealed) < aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext shorter than tag", ErrMalformedEnvelope)
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func (c *Cipher) aead(key *SecretKey) (cipher.AEAD, error) {
	if !key.usable() {
		return nil, ErrNoSecretKey
	}
	aead, err := c.provider.NewAEAD(key.material)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipherUnavailable, err)
	}
	return aead, nil
}

func splitEnvelope(envelope string) (nonce, sealed []byte, err error) {
	parts := strings.Split(envelope, EnvelopeSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, fmt.Errorf("%w: expected two non-empty parts", ErrMalformedEnvelope)
	}

	nonce, err = base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: nonce: %v", ErrMalformedEnvelope, err)
	}
	sealed, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ciphertext: %v", ErrMalformedEnvelope, err)
	}
	return nonce, sealed, nil
}
