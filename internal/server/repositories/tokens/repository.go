package tokens

import (
	"context"

	"github.com/dmitrijs2005/framegate/internal/server/models"
)

// Repository persists sealed connection token secrets.
type Repository interface {
	Get(ctx context.Context, userID int64) (*models.AccessToken, error)
	Upsert(ctx context.Context, token *models.AccessToken) error
	Delete(ctx context.Context, userID int64) error
}
