package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/medatechnology/goutil/medaerror"
)

var (
	ErrClientUnavailable     medaerror.MedaError = medaerror.MedaError{Message: "backend client not initialized"}
	ErrRequestRejected       medaerror.MedaError = medaerror.MedaError{Message: "request rejected by backend"}
	ErrNotFound              medaerror.MedaError = medaerror.MedaError{Message: "record not found"}
	ErrRecordFailed          medaerror.MedaError = medaerror.MedaError{Message: "record operation failed"}
	ErrInvalidIdentifier     medaerror.MedaError = medaerror.MedaError{Message: "invalid table or field name"}
	ErrUnsupportedOperator   medaerror.MedaError = medaerror.MedaError{Message: "unsupported condition operator"}
	ErrMissingConditionValue medaerror.MedaError = medaerror.MedaError{Message: "condition has no values"}
	ErrMissingID             medaerror.MedaError = medaerror.MedaError{Message: "record id is required"}
	ErrEmptyPayload          medaerror.MedaError = medaerror.MedaError{Message: "payload has no fields to write"}
)

// ErrorKind is the category a façade failure is logged under.
type ErrorKind string

const (
	KindClientUnavailable ErrorKind = "client-unavailable"
	KindRequestRejected   ErrorKind = "request-rejected"
	KindNotFound          ErrorKind = "record-not-found"
	KindRecordFailed      ErrorKind = "record-failed"
	KindException         ErrorKind = "exception"
)

// Classify maps an error to its category. Anything not produced by this
// package (transport errors, decode errors, ...) is an exception.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrClientUnavailable):
		return KindClientUnavailable
	case errors.Is(err, ErrRequestRejected):
		return KindRequestRejected
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRecordFailed):
		return KindRecordFailed
	}
	return KindException
}

// ErrorContext provides additional context for errors
type ErrorContext struct {
	Operation string                 // The operation that failed (e.g., "FETCH", "CREATE")
	Entity    string                 // The entity involved (if applicable)
	Message   string                 // Server-supplied message (if applicable)
	Fields    map[string]interface{} // Additional context fields
}

// StoreError wraps an error with additional context
type StoreError struct {
	Err     error
	Context ErrorContext
}

// Error implements the error interface
func (e *StoreError) Error() string {
	msg := e.Err.Error()
	if e.Context.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Context.Message)
	}

	var parts []string
	if e.Context.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation=%s", e.Context.Operation))
	}
	if e.Context.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Context.Entity))
	}
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(parts, ", "))
	}
	return msg
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with context information
func WrapError(err error, operation, entity string) error {
	if err == nil {
		return nil
	}
	return &StoreError{
		Err: err,
		Context: ErrorContext{
			Operation: operation,
			Entity:    entity,
		},
	}
}

// WrapErrorWithFields wraps an error with additional field context
func WrapErrorWithFields(err error, operation, entity string, fields map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &StoreError{
		Err: err,
		Context: ErrorContext{
			Operation: operation,
			Entity:    entity,
			Fields:    fields,
		},
	}
}

// Rejected builds the error for a response that came back with success=false.
func Rejected(operation, entity, message string) error {
	return &StoreError{
		Err: ErrRequestRejected,
		Context: ErrorContext{
			Operation: operation,
			Entity:    entity,
			Message:   message,
		},
	}
}

// IsStoreError checks if an error is a StoreError
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// GetErrorContext extracts the error context if the error is a StoreError
func GetErrorContext(err error) (ErrorContext, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Context, true
	}
	return ErrorContext{}, false
}

// Common error wrapping helpers for specific operations

func WrapFetchError(err error, entity string) error {
	return WrapError(err, "FETCH", entity)
}

func WrapGetError(err error, entity string) error {
	return WrapError(err, "GET", entity)
}

func WrapCreateError(err error, entity string) error {
	return WrapError(err, "CREATE", entity)
}

func WrapUpdateError(err error, entity string) error {
	return WrapError(err, "UPDATE", entity)
}

func WrapDeleteError(err error, entity string) error {
	return WrapError(err, "DELETE", entity)
}

// FormatError formats an error for logging with all available context
func FormatError(err error) string {
	if err == nil {
		return "no error"
	}

	var se *StoreError
	if errors.As(err, &se) {
		parts := []string{fmt.Sprintf("Error: %s", se.Err.Error())}
		if se.Context.Message != "" {
			parts = append(parts, fmt.Sprintf("Message: %s", se.Context.Message))
		}
		if se.Context.Operation != "" {
			parts = append(parts, fmt.Sprintf("Operation: %s", se.Context.Operation))
		}
		if se.Context.Entity != "" {
			parts = append(parts, fmt.Sprintf("Entity: %s", se.Context.Entity))
		}
		if len(se.Context.Fields) > 0 {
			parts = append(parts, fmt.Sprintf("Fields: %v", se.Context.Fields))
		}
		return strings.Join(parts, " | ")
	}

	return err.Error()
}

// LogErrorWithContext logs err through logger, lifting the StoreError
// context and the error category into structured fields.
func LogErrorWithContext(logger Logger, err error, fields ...Field) {
	if err == nil {
		return
	}
	if logger == nil {
		logger = defaultLogger
	}

	logFields := make([]Field, 0, len(fields)+5)
	logFields = append(logFields, fields...)
	logFields = append(logFields, String("kind", string(Classify(err))))

	if ctx, ok := GetErrorContext(err); ok {
		if ctx.Operation != "" {
			logFields = append(logFields, String("operation", ctx.Operation))
		}
		if ctx.Entity != "" {
			logFields = append(logFields, String("entity", ctx.Entity))
		}
		if ctx.Message != "" {
			logFields = append(logFields, String("message", ctx.Message))
		}
	}

	logFields = append(logFields, Error(err))
	logger.Error(err.Error(), logFields...)
}
