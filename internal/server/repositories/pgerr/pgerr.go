// Package pgerr translates PostgreSQL driver errors into the shared
// sentinel errors of package common.
package pgerr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"
	invalidTextRepr = "22P02"
)

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Wrap maps "no rows" and malformed keys (a non-UUID id) to
// common.ErrorNotFound and wraps everything else as a db error.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepr {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
