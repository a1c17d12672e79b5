// Package tokens provides a PostgreSQL-backed store of sealed connection
// token secrets, one per local user.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/dbx"
	"github.com/dmitrijs2005/framegate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the sealed token of userID, or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID int64) (*models.AccessToken, error) {
	query := `
		SELECT user_id, sealed_secret, nonce, created_at
		FROM access_tokens
		WHERE user_id = $1
	`
	token := &models.AccessToken{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&token.UserID, &token.SealedSecret, &token.Nonce, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, token *models.AccessToken) error {
	query := `
		INSERT INTO access_tokens (user_id, sealed_secret, nonce)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET sealed_secret = EXCLUDED.sealed_secret, nonce = EXCLUDED.nonce, created_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, token.UserID, token.SealedSecret, token.Nonce); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM access_tokens
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
