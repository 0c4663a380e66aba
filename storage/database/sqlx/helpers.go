// Package sqlxrepos implements the core repositories on PostgreSQL.
//
// Cross-record guarantees lean on the schema: reference lists are derived
// from child tables, cascades are ON DELETE CASCADE and the at-most-once
// submission rule is a UNIQUE constraint. Repositories translate the
// resulting constraint violations back into the core sentinel errors.
package sqlxrepos

import (
	"github.com/lib/pq"
)

// PostgreSQL error codes (appendix A of the manual).
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func isUniqueViolation(err error, constraint string) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == codeUniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

func isForeignKeyViolation(err error, constraint string) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == codeForeignKeyViolation && pqErr.Constraint == constraint
	}
	return false
}
