// Package links provides a PostgreSQL-backed cache of the remote account
// each local user is connected to.
package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/dbx"
	"github.com/dmitrijs2005/framegate/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the cached link for userID, or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID int64) (*models.UserLink, error) {
	query := `
		SELECT user_id, remote_user_id, updated_at
		FROM user_links
		WHERE user_id = $1
	`
	link := &models.UserLink{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&link.UserID, &link.RemoteUserID, &link.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return link, nil
}

// Upsert stores or replaces the link for userID.
func (r *PostgresRepository) Upsert(ctx context.Context, userID int64, remoteUserID int64) error {
	query := `
		INSERT INTO user_links (user_id, remote_user_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET remote_user_id = EXCLUDED.remote_user_id, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, remoteUserID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
