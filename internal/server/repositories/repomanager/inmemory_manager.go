package repomanager

import (
	"context"
	"database/sql"

	"github.com/astepanovs/gatehouse/internal/dbx"
	"github.com/astepanovs/gatehouse/internal/server/repositories/regcodes"
	"github.com/astepanovs/gatehouse/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves tests. The DBTX argument is ignored;
// the same shared in-memory repositories back every call.
type InMemoryRepositoryManager struct {
	users    *users.InMemoryRepository
	regcodes *regcodes.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:    users.NewInMemoryRepository(),
		regcodes: regcodes.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) RegistrationCodes(db dbx.DBTX) regcodes.Repository {
	return m.regcodes
}
