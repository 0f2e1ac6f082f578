package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sealtalk/internal/common"
	"github.com/dmitrijs2005/sealtalk/internal/dbx"
	"github.com/dmitrijs2005/sealtalk/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO profiles (id, display_name, public_key)
		 VALUES ($1, $2, NULLIF($3, ''))
		 `

	if _, err := r.db.ExecContext(ctx, query, user.ID, user.DisplayName, user.PublicKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	query :=
		`SELECT id, display_name, COALESCE(public_key, '') FROM profiles
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.DisplayName, &user.PublicKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetPublicKey(ctx context.Context, userID string) (string, error) {
	query :=
		`SELECT COALESCE(public_key, '') FROM profiles
		 WHERE id = $1
		 `

	var key string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return key, nil
}

func (r *PostgresRepository) SetPublicKey(ctx context.Context, userID string, publicKey string) error {
	query :=
		`UPDATE profiles SET public_key = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userID, publicKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
