package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/invkeeper/internal/dbx"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/products"
	"github.com/dmitrijs2005/invkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repositories with *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Products(db dbx.DBTX) products.Repository
}
