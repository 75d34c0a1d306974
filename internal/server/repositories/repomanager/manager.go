// Package repomanager hands out repositories bound to a database handle.
// Passing the handle per call lets services run several repositories inside
// one transaction by handing them the same dbx.DBTX.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/astepanovs/gatehouse/internal/dbx"
	"github.com/astepanovs/gatehouse/internal/server/repositories/regcodes"
	"github.com/astepanovs/gatehouse/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RegistrationCodes(db dbx.DBTX) regcodes.Repository
}
