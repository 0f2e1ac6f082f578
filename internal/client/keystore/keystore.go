// Package keystore persists identity keypairs in the device-local store.
//
// A keypair lives under e2ee/<userID>/private, e2ee/<userID>/public and
// e2ee/<userID>/curve. They are written and removed together; only the key
// provisioner writes here.
package keystore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sealtalk/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/sealtalk/internal/common"
	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/dbx"
)

// KeyPair is the raw exported form of a user's identity keys.
type KeyPair struct {
	UserID     string
	PrivateKey []byte
	PublicKey  []byte
	// Curve is empty for keypairs stored before the curve was recorded.
	Curve string
}

// Wipe zeroes the private half.
func (k *KeyPair) Wipe() {
	if k != nil {
		common.WipeByteArray(k.PrivateKey)
	}
}

func privateKeyName(userID string) string { return "e2ee/" + userID + "/private" }
func publicKeyName(userID string) string  { return "e2ee/" + userID + "/public" }
func curveName(userID string) string      { return "e2ee/" + userID + "/curve" }

// Store reads and writes keypairs.
type Store struct {
	repo   localstore.Repository
	atomic func(ctx context.Context, fn func(repo localstore.Repository) error) error
}

// NewStore wraps a repository with no transactional support; writes of the
// two halves are sequential. Suitable for in-memory repositories.
func NewStore(repo localstore.Repository) *Store {
	return &Store{
		repo: repo,
		atomic: func(ctx context.Context, fn func(localstore.Repository) error) error {
			return fn(repo)
		},
	}
}

// NewSQLiteStore keeps keypairs in the local SQLite database and writes both
// halves in one transaction.
func NewSQLiteStore(db *sql.DB) *Store {
	return &Store{
		repo: localstore.NewSQLiteRepository(db),
		atomic: func(ctx context.Context, fn func(localstore.Repository) error) error {
			return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
				return fn(localstore.NewSQLiteRepository(tx))
			})
		},
	}
}

// Load returns the stored keypair for userID, or (nil, nil) when there is no
// private key. PublicKey may be nil if only the private half survived.
func (s *Store) Load(ctx context.Context, userID string) (*KeyPair, error) {
	priv, err := s.repo.Get(ctx, privateKeyName(userID))
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	if len(priv) == 0 {
		return nil, nil
	}

	pub, err := s.repo.Get(ctx, publicKeyName(userID))
	if err != nil {
		common.WipeByteArray(priv)
		return nil, fmt.Errorf("load public key: %w", err)
	}

	curve, err := s.repo.Get(ctx, curveName(userID))
	if err != nil {
		common.WipeByteArray(priv)
		return nil, fmt.Errorf("load key curve: %w", err)
	}

	return &KeyPair{UserID: userID, PrivateKey: priv, PublicKey: pub, Curve: string(curve)}, nil
}

// Save stores both halves of kp.
func (s *Store) Save(ctx context.Context, kp *KeyPair) error {
	if kp == nil || kp.UserID == "" || len(kp.PrivateKey) == 0 || len(kp.PublicKey) == 0 {
		return fmt.Errorf("save keypair: incomplete keypair")
	}

	err := s.atomic(ctx, func(repo localstore.Repository) error {
		if err := repo.Set(ctx, privateKeyName(kp.UserID), kp.PrivateKey); err != nil {
			return err
		}
		if err := repo.Set(ctx, publicKeyName(kp.UserID), kp.PublicKey); err != nil {
			return err
		}
		if kp.Curve == "" {
			return nil
		}
		return repo.Set(ctx, curveName(kp.UserID), []byte(kp.Curve))
	})
	if err != nil {
		return fmt.Errorf("save keypair: %w", err)
	}
	return nil
}

// Remove deletes the keypair of userID. Removing an absent keypair is not an
// error.
func (s *Store) Remove(ctx context.Context, userID string) error {
	err := s.atomic(ctx, func(repo localstore.Repository) error {
		if err := repo.Remove(ctx, privateKeyName(userID)); err != nil {
			return err
		}
		if err := repo.Remove(ctx, publicKeyName(userID)); err != nil {
			return err
		}
		return repo.Remove(ctx, curveName(userID))
	})
	if err != nil {
		return fmt.Errorf("remove keypair: %w", err)
	}
	return nil
}

// Users lists the user ids that have a stored private key on this device.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	keys, err := s.repo.Keys(ctx, "e2ee/")
	if err != nil {
		return nil, fmt.Errorf("list keypairs: %w", err)
	}

	var users []string
	for _, k := range keys {
		id, ok := strings.CutSuffix(strings.TrimPrefix(k, "e2ee/"), "/private")
		if ok && id != "" {
			users = append(users, id)
		}
	}
	return users, nil
}

// Wipe removes every entry of the device-local store, keypairs of all users
// included.
func (s *Store) Wipe(ctx context.Context) error {
	err := s.atomic(ctx, func(repo localstore.Repository) error {
		return repo.Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("wipe local store: %w", err)
	}
	return nil
}

// CheckCurve reports cryptox.ErrCurveMismatch when kp was stored for another
// curve than curve. Keypairs without a recorded curve pass.
func (kp *KeyPair) CheckCurve(curve string) error {
	if kp.Curve != "" && kp.Curve != curve {
		return fmt.Errorf("%w: stored %s, configured %s", cryptox.ErrCurveMismatch, kp.Curve, curve)
	}
	return nil
}
