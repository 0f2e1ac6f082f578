package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
)

// NonceSize is the AES-GCM nonce length (96 bits).
const NonceSize = 12

// AESGCMProvider is the default AeadCipherProvider.
type AESGCMProvider struct{}

func (AESGCMProvider) NewAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
