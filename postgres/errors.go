package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/medatechnology/goutil/medaerror"
)

// PostgreSQL error codes the client reacts to.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	ErrCodeUniqueViolation     = "23505"
	ErrCodeForeignKeyViolation = "23503"
	ErrCodeNotNullViolation    = "23502"
	ErrCodeCheckViolation      = "23514"
	ErrCodeUndefinedTable      = "42P01"
	ErrCodeUndefinedColumn     = "42703"
	ErrCodeCannotConnectNow    = "57P03"
	ErrCodeDeadlockDetected    = "40P01"
	ErrCodeSerializationFail   = "40001"

	// Whole classes, matched on the first two characters.
	classIntegrityViolation = "23"
	classConnection         = "08"
)

var (
	ErrPostgresNotConnected     medaerror.MedaError = medaerror.MedaError{Message: "PostgreSQL database is not connected"}
	ErrPostgresInvalidDSN       medaerror.MedaError = medaerror.MedaError{Message: "invalid PostgreSQL DSN connection string"}
	ErrPostgresConnectionFailed medaerror.MedaError = medaerror.MedaError{Message: "failed to connect to PostgreSQL database"}
	ErrPostgresInvalidConfig    medaerror.MedaError = medaerror.MedaError{Message: "invalid PostgreSQL configuration"}
)

// PostgreSQLError wraps PostgreSQL-specific errors with additional context
type PostgreSQLError struct {
	Operation string
	Entity    string
	Query     string
	Code      string
	Message   string
	Detail    string
	Hint      string
	Err       error
}

func (e *PostgreSQLError) Error() string {
	var parts []string
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation=%s", e.Operation))
	}
	if e.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Entity))
	}
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	msg := e.Message
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(parts, ", "))
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s - Detail: %s", msg, e.Detail)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s - Hint: %s", msg, e.Hint)
	}
	return msg
}

func (e *PostgreSQLError) Unwrap() error {
	return e.Err
}

// WrapPostgreSQLError wraps err with the operation and entity, copying the
// server's code, detail and hint when err carries a *pq.Error.
func WrapPostgreSQLError(err error, operation, entity, query string) error {
	if err == nil {
		return nil
	}

	pgErr := &PostgreSQLError{
		Operation: operation,
		Entity:    entity,
		Query:     query,
		Message:   err.Error(),
		Err:       err,
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		pgErr.Code = string(pqErr.Code)
		pgErr.Message = pqErr.Message
		pgErr.Detail = pqErr.Detail
		pgErr.Hint = pqErr.Hint
	}
	return pgErr
}

// IsConstraintViolation reports any integrity constraint violation
// (class 23): the data was refused, the connection is fine.
func IsConstraintViolation(err error) bool {
	return strings.HasPrefix(GetPostgreSQLErrorCode(err), classIntegrityViolation)
}

func IsUniqueViolation(err error) bool {
	return GetPostgreSQLErrorCode(err) == ErrCodeUniqueViolation
}

func IsUndefinedTable(err error) bool {
	return GetPostgreSQLErrorCode(err) == ErrCodeUndefinedTable
}

// IsConnectionError checks if the error is related to database connection
func IsConnectionError(err error) bool {
	code := GetPostgreSQLErrorCode(err)
	return strings.HasPrefix(code, classConnection) || code == ErrCodeCannotConnectNow ||
		errors.Is(err, ErrPostgresConnectionFailed)
}

// IsRetryable checks if the error is transient and the operation can be retried
func IsRetryable(err error) bool {
	code := GetPostgreSQLErrorCode(err)
	return code == ErrCodeDeadlockDetected || code == ErrCodeSerializationFail || IsConnectionError(err)
}

// GetPostgreSQLErrorCode extracts the PostgreSQL error code from an error
func GetPostgreSQLErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *PostgreSQLError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// FormatPostgreSQLError formats a PostgreSQL error for logging or display
func FormatPostgreSQLError(err error) string {
	if err == nil {
		return "no error"
	}
	var pgErr *PostgreSQLError
	if !errors.As(err, &pgErr) {
		if w, ok := WrapPostgreSQLError(err, "", "", "").(*PostgreSQLError); ok {
			pgErr = w
		}
	}

	var parts []string
	if pgErr.Message != "" {
		parts = append(parts, fmt.Sprintf("Message: %s", pgErr.Message))
	}
	if pgErr.Code != "" {
		parts = append(parts, fmt.Sprintf("Code: %s", pgErr.Code))
	}
	if pgErr.Detail != "" {
		parts = append(parts, fmt.Sprintf("Detail: %s", pgErr.Detail))
	}
	if pgErr.Hint != "" {
		parts = append(parts, fmt.Sprintf("Hint: %s", pgErr.Hint))
	}
	return strings.Join(parts, " | ")
}
