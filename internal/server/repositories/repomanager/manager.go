package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/companies"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or transaction
// and bootstraps the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Companies(db dbx.DBTX) companies.Repository
}
