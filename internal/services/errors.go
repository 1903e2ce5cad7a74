package services

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers missing required fields, out-of-range values and duplicate unique keys.
	ErrValidation = errors.New("validation failed")
	// ErrConfigurationMissing means no provider endpoint is configured for a model's name.
	ErrConfigurationMissing = errors.New("provider configuration missing")
	// ErrUpstream wraps failures of the outbound provider call.
	ErrUpstream = errors.New("upstream provider failure")
	// ErrPersistence wraps record store read/write failures.
	ErrPersistence = errors.New("persistence failure")
)

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
