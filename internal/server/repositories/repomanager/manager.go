package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/framegate/internal/dbx"
	"github.com/dmitrijs2005/framegate/internal/server/repositories/links"
	"github.com/dmitrijs2005/framegate/internal/server/repositories/tokens"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Links(db dbx.DBTX) links.Repository
	Tokens(db dbx.DBTX) tokens.Repository
}
