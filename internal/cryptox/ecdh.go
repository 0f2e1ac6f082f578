package cryptox

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sealtalk/internal/common"
	"golang.org/x/crypto/hkdf"
)

// Supported curve names (config values).
const (
	CurveP256   = "p256"
	CurveX25519 = "x25519"
)

// hkdfInfo binds derived keys to their one use. Changing it makes every
// existing conversation unreadable.
var hkdfInfo = []byte("sealtalk/dm/aes-256-gcm")

// ECDHProvider is the default KeyAgreementProvider. DeriveKey runs ECDH and
// stretches the raw shared secret through HKDF-SHA256 into a 32-byte key.
type ECDHProvider struct {
	name  string
	curve ecdh.Curve
	rand  io.Reader
}

// NewECDHProvider returns a provider for the named curve ("p256" or "x25519").
func NewECDHProvider(curve string) (*ECDHProvider, error) {
	switch curve {
	case CurveP256, "":
		return &ECDHProvider{name: CurveP256, curve: ecdh.P256(), rand: rand.Reader}, nil
	case CurveX25519:
		return &ECDHProvider{name: CurveX25519, curve: ecdh.X25519(), rand: rand.Reader}, nil
	default:
		return nil, fmt.Errorf("unsupported curve %q", curve)
	}
}

func (p *ECDHProvider) Curve() string { return p.name }

func (p *ECDHProvider) GenerateKeyPair() ([]byte, []byte, error) {
	priv, err := p.curve.GenerateKey(p.rand)
	if err != nil {
		return nil, nil, fmt.Errorf("generate ecdh key: %w", err)
	}
	return priv.Bytes(), priv.PublicKey().Bytes(), nil
}

func (p *ECDHProvider) PublicKey(private []byte) ([]byte, error) {
	priv, err := p.curve.NewPrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return priv.PublicKey().Bytes(), nil
}

func (p *ECDHProvider) DeriveKey(private, peerPublic []byte) (*SecretKey, error) {
	priv, err := p.curve.NewPrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	peer, err := p.curve.NewPublicKey(peerPublic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
	}

	// X25519 accepts any 32 bytes here and rejects low-order points in ECDH.
	shared, err := priv.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
	}
	defer common.WipeByteArray(shared)

	material := make([]byte, SecretKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, hkdfInfo), material); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}

	return &SecretKey{material: material}, nil
}

// EncodePublicKey renders a raw public key in the form stored on profiles.
func EncodePublicKey(public []byte) string {
	return base64.StdEncoding.EncodeToString(public)
}

// DecodePublicKey reverses EncodePublicKey. Any decoding failure or empty
// input is reported as ErrInvalidPeerKey.
func DecodePublicKey(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidPeerKey)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidPeerKey, err)
	}
	return b, nil
}
