package apper

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/medatechnology/goutil/medaerror"
)

var (
	ErrUnauthorized    medaerror.MedaError = medaerror.MedaError{Message: "apper authentication failed"}
	ErrRequestFailed   medaerror.MedaError = medaerror.MedaError{Message: "apper request failed"}
	ErrInvalidResponse medaerror.MedaError = medaerror.MedaError{Message: "invalid JSON response from apper"}
)

// HTTPError is a non-2xx answer that did not carry a backend envelope.
type HTTPError struct {
	Operation  string
	Entity     string
	StatusCode int
	Body       string
	RequestID  string
	Err        error
}

func (e *HTTPError) Error() string {
	var parts []string
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation=%s", e.Operation))
	}
	if e.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Entity))
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.RequestID != "" {
		parts = append(parts, fmt.Sprintf("request_id=%s", e.RequestID))
	}

	msg := e.Err.Error()
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(parts, ", "))
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s - Body: %s", msg, e.Body)
	}
	return msg
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError checks if the backend refused the credentials
func IsAuthenticationError(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden
	}
	return errors.Is(err, ErrUnauthorized)
}

// IsHTTPError checks if the error is an HTTP error with a specific status code
func IsHTTPError(err error, statusCode int) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == statusCode
	}
	return false
}

// IsRetryable reports transient failures: connection problems, 429 and 5xx.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "i/o timeout")
}
