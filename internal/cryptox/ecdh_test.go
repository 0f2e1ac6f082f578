package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var curves = []string{CurveP256, CurveX25519}

func TestNewECDHProvider_UnknownCurve(t *testing.T) {
	_, err := NewECDHProvider("secp256k1")
	require.Error(t, err)
}

func TestECDHProvider_Curve(t *testing.T) {
	for in, want := range map[string]string{"": CurveP256, CurveP256: CurveP256, CurveX25519: CurveX25519} {
		p, err := NewECDHProvider(in)
		require.NoError(t, err)
		assert.Equal(t, want, p.Curve())
	}
}

func TestECDHProvider_KeyAgreementIsSymmetric(t *testing.T) {
	for _, curve := range curves {
		t.Run(curve, func(t *testing.T) {
			p, err := NewECDHProvider(curve)
			require.NoError(t, err)

			skA, pkA, err := p.GenerateKeyPair()
			require.NoError(t, err)
			skB, pkB, err := p.GenerateKeyPair()
			require.NoError(t, err)

			ab, err := p.DeriveKey(skA, pkB)
			require.NoError(t, err)
			ba, err := p.DeriveKey(skB, pkA)
			require.NoError(t, err)

			assert.True(t, ab.Equal(ba), "derive(skA, pkB) must equal derive(skB, pkA)")

			env, err := Encrypt(ab, "hello")
			require.NoError(t, err)
			got, err := Decrypt(ba, env)
			require.NoError(t, err)
			assert.Equal(t, "hello", got)
		})
	}
}

func TestECDHProvider_DifferentPairsDifferentKeys(t *testing.T) {
	p, err := NewECDHProvider(CurveP256)
	require.NoError(t, err)

	skA, _, err := p.GenerateKeyPair()
	require.NoError(t, err)
	_, pkB, err := p.GenerateKeyPair()
	require.NoError(t, err)
	_, pkC, err := p.GenerateKeyPair()
	require.NoError(t, err)

	ab, err := p.DeriveKey(skA, pkB)
	require.NoError(t, err)
	ac, err := p.DeriveKey(skA, pkC)
	require.NoError(t, err)

	assert.False(t, ab.Equal(ac))
}

func TestECDHProvider_PublicKeyFromPrivate(t *testing.T) {
	for _, curve := range curves {
		t.Run(curve, func(t *testing.T) {
			p, err := NewECDHProvider(curve)
			require.NoError(t, err)

			sk, pk, err := p.GenerateKeyPair()
			require.NoError(t, err)

			again, err := p.PublicKey(sk)
			require.NoError(t, err)
			assert.Equal(t, pk, again)
		})
	}
}

func TestECDHProvider_InvalidPeerKey(t *testing.T) {
	p256, err := NewECDHProvider(CurveP256)
	require.NoError(t, err)
	x25519, err := NewECDHProvider(CurveX25519)
	require.NoError(t, err)

	sk, _, err := p256.GenerateKeyPair()
	require.NoError(t, err)
	_, xPub, err := x25519.GenerateKeyPair()
	require.NoError(t, err)

	notOnCurve := append([]byte{0x04}, bytes.Repeat([]byte{0x01}, 64)...)

	for name, peer := range map[string][]byte{
		"empty":           nil,
		"garbage":         []byte("definitely not a key"),
		"other curve":     xPub,
		"point off curve": notOnCurve,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p256.DeriveKey(sk, peer)
			assert.ErrorIs(t, err, ErrInvalidPeerKey)
		})
	}

	xsk, _, err := x25519.GenerateKeyPair()
	require.NoError(t, err)
	_, err = x25519.DeriveKey(xsk, make([]byte, 32)) // low-order point
	assert.ErrorIs(t, err, ErrInvalidPeerKey)
}

func TestPublicKeyEncoding(t *testing.T) {
	p, err := NewECDHProvider(CurveP256)
	require.NoError(t, err)
	_, pk, err := p.GenerateKeyPair()
	require.NoError(t, err)

	s := EncodePublicKey(pk)
	assert.NotEmpty(t, s)

	back, err := DecodePublicKey(s)
	require.NoError(t, err)
	assert.Equal(t, pk, back)

	_, err = DecodePublicKey("")
	assert.ErrorIs(t, err, ErrInvalidPeerKey)
	_, err = DecodePublicKey("not base64 at all!")
	assert.ErrorIs(t, err, ErrInvalidPeerKey)
}
