package rqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/medatechnology/goutil/medaerror"
)

// Common error messages from SQLite/RQLite
const (
	ErrMsgUniqueConstraint     = "UNIQUE constraint failed"
	ErrMsgNotNullConstraint    = "NOT NULL constraint failed"
	ErrMsgForeignKeyConstraint = "FOREIGN KEY constraint failed"
	ErrMsgCheckConstraint      = "CHECK constraint failed"
	ErrMsgDatabaseLocked       = "database is locked"
	ErrMsgReadonlyDatabase     = "attempt to write a readonly database"
	ErrMsgNoSuchTable          = "no such table"
	ErrMsgNoSuchColumn         = "no such column"
)

var (
	ErrRQLiteNotConnected     medaerror.MedaError = medaerror.MedaError{Message: "RQLite database is not connected"}
	ErrRQLiteInvalidConfig    medaerror.MedaError = medaerror.MedaError{Message: "invalid RQLite configuration"}
	ErrRQLiteConnectionFailed medaerror.MedaError = medaerror.MedaError{Message: "failed to connect to RQLite server"}
	ErrRQLiteQueryFailed      medaerror.MedaError = medaerror.MedaError{Message: "RQLite query execution failed"}
	ErrRQLiteNodeUnavailable  medaerror.MedaError = medaerror.MedaError{Message: "RQLite node is unavailable"}
)

// RQLiteError wraps a failed statement with the entity and SQL involved.
type RQLiteError struct {
	Operation string
	Entity    string
	Query     string
	Err       error
}

func (e *RQLiteError) Error() string {
	var parts []string
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation=%s", e.Operation))
	}
	if e.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Entity))
	}
	msg := e.Err.Error()
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(parts, ", "))
	}
	if e.Query != "" {
		msg = fmt.Sprintf("%s - Query: %s", msg, e.Query)
	}
	return msg
}

func (e *RQLiteError) Unwrap() error {
	return e.Err
}

// WrapRQLiteError wraps an error with RQLite-specific context
func WrapRQLiteError(err error, operation, entity, query string) error {
	if err == nil {
		return nil
	}
	return &RQLiteError{Operation: operation, Entity: entity, Query: query, Err: err}
}

// IsConstraintViolation reports a statement SQLite refused because of the
// data, as opposed to a broken connection or a bad schema.
func IsConstraintViolation(err error) bool {
	return containsErrorMessage(err, ErrMsgUniqueConstraint) ||
		containsErrorMessage(err, ErrMsgNotNullConstraint) ||
		containsErrorMessage(err, ErrMsgForeignKeyConstraint) ||
		containsErrorMessage(err, ErrMsgCheckConstraint)
}

func IsTableNotFound(err error) bool {
	return containsErrorMessage(err, ErrMsgNoSuchTable)
}

func IsColumnNotFound(err error) bool {
	return containsErrorMessage(err, ErrMsgNoSuchColumn)
}

func IsDatabaseLocked(err error) bool {
	return containsErrorMessage(err, ErrMsgDatabaseLocked)
}

// IsConnectionError checks if the error is related to connection failure
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRQLiteConnectionFailed) || errors.Is(err, ErrRQLiteNodeUnavailable) {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "network is unreachable") ||
		strings.Contains(errMsg, "i/o timeout")
}

func containsErrorMessage(err error, msg string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), strings.ToLower(msg))
}
