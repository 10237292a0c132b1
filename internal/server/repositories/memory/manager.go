// Package memory provides map-backed repositories with the same observable
// behavior as the PostgreSQL ones. Transactions are not modeled: every call
// applies immediately, whatever DBTX it was bound to.
package memory

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/threatscope/internal/dbx"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/files"
	"github.com/dmitrijs2005/threatscope/internal/server/repositories/users"
)

// RepositoryManager vends the same two repositories regardless of the DBTX.
type RepositoryManager struct {
	users *UsersRepository
	files *FilesRepository
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{users: NewUsersRepository(), files: NewFilesRepository()}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *RepositoryManager) Files(dbx.DBTX) files.Repository { return m.files }
