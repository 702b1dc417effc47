package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/companies"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager serves one shared set of in-memory repositories.
// The DBTX argument is ignored; pair it with dbx.NoTx.
type MemoryRepositoryManager struct {
	users         *users.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
	companies     *companies.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		companies:     companies.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *MemoryRepositoryManager) Companies(dbx.DBTX) companies.Repository { return m.companies }

// RunMigrations is a no-op.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }
