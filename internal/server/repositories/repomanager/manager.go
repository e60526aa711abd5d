package repomanager

import (
	"context"
	"database/sql"

	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/server/repositories/notes"
	"github.com/privnotes/notes/internal/server/repositories/pages"
	"github.com/privnotes/notes/internal/server/repositories/sites"
	"github.com/privnotes/notes/internal/server/repositories/tokens"
	"github.com/privnotes/notes/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either a pooled handle or a
// transaction, so services can compose several stores inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Notes(db dbx.DBTX) notes.Repository
	Pages(db dbx.DBTX) pages.Repository
	Sites(db dbx.DBTX) sites.Repository
}
