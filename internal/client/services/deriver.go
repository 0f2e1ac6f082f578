package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sealtalk/internal/client/keystore"
	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
)

// SecretDeriver computes the per-pair message key from the local private key
// and a peer's published public key. It never touches the network.
type SecretDeriver struct {
	keys      *keystore.Store
	agreement cryptox.KeyAgreementProvider
}

func NewSecretDeriver(keys *keystore.Store, agreement cryptox.KeyAgreementProvider) *SecretDeriver {
	return &SecretDeriver{keys: keys, agreement: agreement}
}

func (d *SecretDeriver) Derive(ctx context.Context, localUserID, peerPublicKey string) (*cryptox.SecretKey, error) {
	kp, err := d.keys.Load(ctx, localUserID)
	if err != nil {
		return nil, fmt.Errorf("load local key: %w", err)
	}
	if kp == nil {
		return nil, cryptox.ErrMissingLocalKey
	}
	defer kp.Wipe()

	if err := kp.CheckCurve(d.agreement.Curve()); err != nil {
		return nil, err
	}

	peer, err := cryptox.DecodePublicKey(peerPublicKey)
	if err != nil {
		return nil, err
	}

	return d.agreement.DeriveKey(kp.PrivateKey, peer)
}
