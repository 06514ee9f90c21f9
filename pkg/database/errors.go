package database

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error classes/codes this loader cares about when deciding whether a
// failed insert is a data problem worth per-field diagnostics.
const (
	pgCodeStringDataRightTruncation = "22001"
	pgCodeUniqueViolation           = "23505"
)

// IsValueTooLong reports whether err is a Postgres string_data_right_truncation
// error (a value exceeded its column width).
func IsValueTooLong(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgCodeStringDataRightTruncation
	}
	return false
}

// IsUniqueViolation reports whether err is a Postgres unique_violation error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgCodeUniqueViolation
	}
	return false
}

// IsNoRows reports whether err is the sqlx/database "no rows" sentinel.
func IsNoRows(err error) bool {
	return err != nil && err.Error() == "sql: no rows in result set"
}
