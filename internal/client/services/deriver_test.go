package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_BothSidesAgree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.user(t, "a")
	b := f.user(t, "b")

	kAB, err := f.deriver.Derive(ctx, "a", b.PublicKey)
	require.NoError(t, err)
	kBA, err := f.deriver.Derive(ctx, "b", a.PublicKey)
	require.NoError(t, err)
	assert.True(t, kAB.Equal(kBA))

	env, err := cryptox.Encrypt(kAB, "hello")
	require.NoError(t, err)
	got, err := cryptox.Decrypt(kBA, env)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestDerive_WrongPairingCannotDecrypt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.user(t, "a")
	b := f.user(t, "b")
	f.user(t, "c")

	kAB, err := f.deriver.Derive(ctx, "a", b.PublicKey)
	require.NoError(t, err)
	kCA, err := f.deriver.Derive(ctx, "c", a.PublicKey)
	require.NoError(t, err)
	assert.False(t, kAB.Equal(kCA))

	env, err := cryptox.Encrypt(kAB, "for b only")
	require.NoError(t, err)

	got, err := cryptox.Decrypt(kCA, env)
	require.ErrorIs(t, err, cryptox.ErrDecryptionFailed)
	assert.Empty(t, got)
}

func TestDerive_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a")
	b := f.user(t, "b")

	_, err := f.deriver.Derive(ctx, "nobody", b.PublicKey)
	require.ErrorIs(t, err, cryptox.ErrMissingLocalKey)

	for name, peer := range map[string]string{
		"empty":        "",
		"not base64":   "!!!",
		"wrong length": base64.StdEncoding.EncodeToString([]byte("short")),
		"off curve":    base64.StdEncoding.EncodeToString(append([]byte{4}, make([]byte, 64)...)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.deriver.Derive(ctx, "a", peer)
			require.ErrorIs(t, err, cryptox.ErrInvalidPeerKey)
		})
	}
}

func TestDerive_CurveMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a")
	b := f.user(t, "b")

	x25519, err := cryptox.NewECDHProvider(cryptox.CurveX25519)
	require.NoError(t, err)

	_, err = NewSecretDeriver(f.keys, x25519).Derive(ctx, "a", b.PublicKey)
	require.ErrorIs(t, err, cryptox.ErrCurveMismatch)
	assert.Equal(t, models.ConversationInsecure, StateOf(err))
}
