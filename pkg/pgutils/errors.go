// Package pgutils classifies PostgreSQL errors by SQLSTATE code.
package pgutils

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 23: integrity constraint violations.
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"

	// Class 42: syntax errors and access rule violations.
	CodeUndefinedTable  = "42P01"
	CodeUndefinedObject = "42704"
)

// IsUniqueViolation reports whether err is a unique constraint violation (23505).
//
// The bulk phases use conflict-tolerant inserts, so a unique violation that
// still surfaces means the destination state is unexpected and the run must
// abort rather than continue with integrity checks disabled.
func IsUniqueViolation(err error) bool {
	return hasCode(err, CodeUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key violation (23503).
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, CodeForeignKeyViolation)
}

// IsNotNullViolation reports whether err is a not-null violation (23502).
func IsNotNullViolation(err error) bool {
	return hasCode(err, CodeNotNullViolation)
}

// IsUndefinedTable reports whether err is an undefined-table error (42P01),
// expected when dropping indexes or constraints left over from older schemas.
func IsUndefinedTable(err error) bool {
	return hasCode(err, CodeUndefinedTable)
}

// hasCode checks the pgconn error chain first, then falls back to message
// matching for drivers that flatten the SQLSTATE into the error string.
func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE "+code) || strings.Contains(msg, code)
}
