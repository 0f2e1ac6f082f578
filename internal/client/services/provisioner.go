// Package services holds the client-side E2EE services: key provisioning,
// shared-secret derivation and the conversation sessions built on them.
package services

import (
	"bytes"
	"context"
	"errors"

	"github.com/dmitrijs2005/sealtalk/internal/client/keystore"
	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/logging"
	"github.com/dmitrijs2005/sealtalk/internal/models"
	"github.com/dmitrijs2005/sealtalk/internal/server/repositories/profiles"
)

// KeyProvisioner makes sure a logged-in user has an identity keypair on this
// device and a matching public key in their profile.
type KeyProvisioner struct {
	logger    logging.Logger
	keys      *keystore.Store
	profiles  profiles.Repository
	agreement cryptox.KeyAgreementProvider
}

func NewKeyProvisioner(logger logging.Logger, keys *keystore.Store, profiles profiles.Repository, agreement cryptox.KeyAgreementProvider) *KeyProvisioner {
	return &KeyProvisioner{
		logger:    logger,
		keys:      keys,
		profiles:  profiles,
		agreement: agreement,
	}
}

// EnsureKeyPair returns user with a published public key.
//
// A profile that already has a public key is returned untouched. Otherwise
// the local private key is reused (its public half re-derived) or a new
// keypair is generated and stored, and the public key is published. All
// failures are *cryptox.KeyProvisioningError.
func (p *KeyProvisioner) EnsureKeyPair(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.ID == "" {
		return nil, &cryptox.KeyProvisioningError{Op: "validate user", Err: errors.New("missing user id")}
	}
	if user.HasPublicKey() {
		return user, nil
	}

	fail := func(op string, err error) (*models.User, error) {
		p.logger.Error(ctx, "key provisioning failed", "user_id", user.ID, "op", op, "error", err)
		return nil, &cryptox.KeyProvisioningError{UserID: user.ID, Op: op, Err: err}
	}

	kp, err := p.keys.Load(ctx, user.ID)
	if err != nil {
		return fail("load local keys", err)
	}

	if kp != nil {
		defer kp.Wipe()

		if err := kp.CheckCurve(p.agreement.Curve()); err != nil {
			return fail("check key curve", err)
		}

		pub, err := p.agreement.PublicKey(kp.PrivateKey)
		if err != nil {
			return fail("derive public key", err)
		}
		if !bytes.Equal(pub, kp.PublicKey) || kp.Curve == "" {
			kp.PublicKey = pub
			kp.Curve = p.agreement.Curve()
			if err := p.keys.Save(ctx, kp); err != nil {
				return fail("store local keys", err)
			}
		}
		p.logger.Debug(ctx, "reusing local keypair", "user_id", user.ID)
	} else {
		priv, pub, err := p.agreement.GenerateKeyPair()
		if err != nil {
			return fail("generate keypair", err)
		}
		kp = &keystore.KeyPair{UserID: user.ID, PrivateKey: priv, PublicKey: pub, Curve: p.agreement.Curve()}
		defer kp.Wipe()

		if err := p.keys.Save(ctx, kp); err != nil {
			return fail("store local keys", err)
		}
		p.logger.Info(ctx, "generated identity keypair", "user_id", user.ID)
	}

	encoded := cryptox.EncodePublicKey(kp.PublicKey)
	if err := p.profiles.SetPublicKey(ctx, user.ID, encoded); err != nil {
		return fail("publish public key", err)
	}
	p.logger.Info(ctx, "published public key", "user_id", user.ID)

	out := *user
	out.PublicKey = encoded
	return &out, nil
}

// Forget removes the local keypair of userID. Used on account removal; the
// published key is left as is.
func (p *KeyProvisioner) Forget(ctx context.Context, userID string) error {
	if err := p.keys.Remove(ctx, userID); err != nil {
		return err
	}
	p.logger.Info(ctx, "removed local keypair", "user_id", userID)
	return nil
}

// ForgetDevice removes the keypairs of every user on this device together
// with the rest of the local store. It returns the users whose keys were
// removed.
func (p *KeyProvisioner) ForgetDevice(ctx context.Context) ([]string, error) {
	users, err := p.keys.Users(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.keys.Wipe(ctx); err != nil {
		return nil, err
	}
	p.logger.Info(ctx, "wiped local store", "users", len(users))
	return users, nil
}

// CheckConsistency compares the published key of userID with the one derived
// from the local private key. It only reports; nothing is regenerated or
// republished.
func (p *KeyProvisioner) CheckConsistency(ctx context.Context, userID string) error {
	kp, err := p.keys.Load(ctx, userID)
	if err != nil {
		return err
	}
	if kp == nil {
		return cryptox.ErrMissingLocalKey
	}
	defer kp.Wipe()

	if err := kp.CheckCurve(p.agreement.Curve()); err != nil {
		return err
	}

	local, err := p.agreement.PublicKey(kp.PrivateKey)
	if err != nil {
		return err
	}

	published, err := p.profiles.GetPublicKey(ctx, userID)
	if err != nil {
		return err
	}
	if published == "" {
		return nil
	}

	if published != cryptox.EncodePublicKey(local) {
		p.logger.Warn(ctx, "published public key does not match local key", "user_id", userID)
		return ErrPublishedKeyMismatch
	}
	return nil
}
