package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// isUniqueConstraint reports whether err is a SQLite unique-constraint
// violation, so repositories can surface duplicates as a distinct failure
// instead of a generic storage error.
func isUniqueConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
