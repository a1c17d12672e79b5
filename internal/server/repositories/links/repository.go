package links

import (
	"context"

	"github.com/dmitrijs2005/framegate/internal/server/models"
)

// Repository caches the local user -> remote user mapping.
type Repository interface {
	Get(ctx context.Context, userID int64) (*models.UserLink, error)
	Upsert(ctx context.Context, userID int64, remoteUserID int64) error
}
