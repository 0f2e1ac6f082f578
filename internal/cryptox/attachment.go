package cryptox

import (
	"fmt"

	"github.com/dmitrijs2005/sealtalk/internal/common"
)

// SealedAttachment is a file encrypted under its own random key. The key and
// nonce travel inside the (encrypted) message body; only Ciphertext is
// uploaded to object storage.
type SealedAttachment struct {
	Ciphertext []byte
	Key        []byte
	Nonce      []byte
}

// SealAttachment encrypts data with a fresh AES-256-GCM key.
func SealAttachment(data []byte) (*SealedAttachment, error) {
	key := GenerateSecretKey().material

	aead, err := AESGCMProvider{}.NewAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipherUnavailable, err)
	}

	nonce := common.GenerateRandByteArray(aead.NonceSize())

	return &SealedAttachment{
		Ciphertext: aead.Seal(nil, nonce, data, nil),
		Key:        key,
		Nonce:      nonce,
	}, nil
}

// OpenAttachment decrypts a sealed attachment.
func OpenAttachment(ciphertext, key, nonce []byte) ([]byte, error) {
	if len(key) != SecretKeySize || len(nonce) != NonceSize {
		return nil, ErrMalformedEnvelope
	}

	aead, err := AESGCMProvider{}.NewAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipherUnavailable, err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
