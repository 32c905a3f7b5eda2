package sql

import (
	"errors"
	"strings"
)

// errorCoder is implemented by lib/pq errors.
type errorCoder interface {
	Code() string
}

// errorNumberer is implemented by drivers exposing numeric error codes.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is implemented by drivers exposing SQLSTATE codes.
type sqlStateError interface {
	SQLState() string
}

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness
// constraint violation, such as inserting a history row twice.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgUniqueViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgUniqueViolation {
		return true
	}
	if e, ok := asError[errorNumberer](err); ok && e.Number() == mysqlDuplicateEntry {
		return true
	}
	// Drivers without typed errors, modernc.org/sqlite included.
	msg := err.Error()
	for _, s := range []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
