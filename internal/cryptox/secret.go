package cryptox

import (
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/sealtalk/internal/common"
)

// SecretKeySize is the length of a derived conversation key (AES-256).
const SecretKeySize = 32

// SecretKey is an in-memory symmetric key handle. Its material is only
// reachable from this package; callers pass the handle to Encrypt/Decrypt.
type SecretKey struct {
	material []byte
}

// NewSecretKey copies b into a new handle. b must be SecretKeySize bytes.
func NewSecretKey(b []byte) (*SecretKey, error) {
	if len(b) != SecretKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", SecretKeySize, len(b))
	}
	m := make([]byte, SecretKeySize)
	copy(m, b)
	return &SecretKey{material: m}, nil
}

// GenerateSecretKey returns a random key.
func GenerateSecretKey() *SecretKey {
	return &SecretKey{material: common.GenerateRandByteArray(SecretKeySize)}
}

// Equal reports whether both handles hold the same key, in constant time.
func (k *SecretKey) Equal(other *SecretKey) bool {
	if k == nil || other == nil {
		return false
	}
	return subtle.ConstantTimeCompare(k.material, other.material) == 1
}

// Destroy zeroes the key. A destroyed key fails every Encrypt/Decrypt call.
func (k *SecretKey) Destroy() {
	if k == nil {
		return
	}
	common.WipeByteArray(k.material)
	k.material = nil
}

func (k *SecretKey) usable() bool {
	return k != nil && len(k.material) == SecretKeySize
}
