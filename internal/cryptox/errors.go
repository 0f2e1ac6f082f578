package cryptox

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyProvisioning matches any *KeyProvisioningError.
	ErrKeyProvisioning = errors.New("key provisioning failed")

	// Secret derivation preconditions.
	ErrMissingLocalKey = errors.New("no local private key")
	ErrInvalidPeerKey  = errors.New("invalid peer public key")

	// ErrCurveMismatch means the local keypair was created for another curve
	// than the one configured.
	ErrCurveMismatch = errors.New("local keypair belongs to a different curve")

	// Per-message failures. Callers render the single affected message as
	// unreadable and keep going.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrDecryptionFailed  = errors.New("decryption failed")

	// ErrCipherUnavailable means the crypto backend itself is broken. Encrypted
	// messaging must be disabled for the rest of the session.
	ErrCipherUnavailable = errors.New("cipher unavailable")

	// ErrNoSecretKey is returned for a nil or destroyed SecretKey.
	ErrNoSecretKey = errors.New("secret key is nil or destroyed")
)

// KeyProvisioningError reports that a user's keypair could not be generated,
// stored or published. Op names the failed step.
type KeyProvisioningError struct {
	UserID string
	Op     string
	Err    error
}

func (e *KeyProvisioningError) Error() string {
	return fmt.Sprintf("key provisioning for user %s: %s: %v", e.UserID, e.Op, e.Err)
}

func (e *KeyProvisioningError) Unwrap() error { return e.Err }

func (e *KeyProvisioningError) Is(target error) bool { return target == ErrKeyProvisioning }
