package repomanager

import (
	"errors"
	"fmt"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

var ErrUnknownBackend = errors.New("unknown database backend")

// ForBackend returns the manager for backend together with the
// database/sql driver name to open its DSN with.
func ForBackend(backend string) (RepositoryManager, string, error) {
	switch backend {
	case BackendPostgres:
		return NewPostgresRepositoryManager(), DriverName, nil
	case BackendSQLite:
		return NewSQLiteRepositoryManager(), SQLiteDriverName, nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}
