package apper

import (
	"net/http"
	"strings"
	"time"

	"github.com/medatechnology/goutil/medaerror"

	store "github.com/medatechnology/storefront"
)

const (
	// Hosted backend endpoints, relative to Config.BaseURL. The entity name
	// is the first path segment after /records.
	ENDPOINT_RECORDS = "/records"
	ENDPOINT_FETCH   = "/fetch"

	HEADER_PROJECT_ID = "X-Project-ID"
	HEADER_REQUEST_ID = "X-Request-ID"

	DEFAULT_TIMEOUT       = 30 * time.Second
	DEFAULT_RETRY_TIMEOUT = 2 * time.Second
	// A façade call is exactly one round-trip unless the caller opts in.
	DEFAULT_MAX_RETRIES = 1

	DEFAULT_KEEP_ALIVE                    = 30 * time.Second
	DEFAULT_TLS_HANDSHAKE_TIMEOUT         = 10 * time.Second
	DEFAULT_RESPONSE_TIMEOUT              = 30 * time.Second
	DEFAULT_CONTINUE_TIMEOUT              = 1 * time.Second
	DEFAULT_MAX_IDLE_CONNECTIONS          = 100
	DEFAULT_MAX_IDLE_CONNECTIONS_PER_HOST = 10
	DEFAULT_MAX_CONNECTIONS_PER_HOST      = 50
	DEFAULT_IDLE_CONNECTION_TIMEOUT       = 90 * time.Second
)

var ErrInvalidConfig medaerror.MedaError = medaerror.MedaError{Message: "invalid apper configuration"}

// Config holds what is needed to talk to a hosted project.
type Config struct {
	BaseURL    string        // e.g. "https://api.apper.io/v1"
	ProjectID  string        // sent as X-Project-ID
	PublicKey  string        // sent as a bearer token
	Timeout    time.Duration // HTTP client timeout per attempt
	RetryCount int           // attempts per call, 1 means no retry
	RetryDelay time.Duration // pause between attempts
	Tracing    bool          // wrap the transport with OpenTelemetry
}

// NewDefaultConfig returns a Config with every default applied.
func NewDefaultConfig() Config {
	return Config{
		Timeout:    DEFAULT_TIMEOUT,
		RetryCount: DEFAULT_MAX_RETRIES,
		RetryDelay: DEFAULT_RETRY_TIMEOUT,
	}
}

// WithDefaults fills zero fields with defaults and trims a trailing slash
// from the base URL.
func (c Config) WithDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DEFAULT_TIMEOUT
	}
	if c.RetryCount < 1 {
		c.RetryCount = DEFAULT_MAX_RETRIES
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DEFAULT_RETRY_TIMEOUT
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Validate checks the fields that have no sensible default.
func (c Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "base URL")
	} else if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return store.WrapErrorWithFields(ErrInvalidConfig, "CONFIG", "", map[string]interface{}{"base_url": c.BaseURL})
	}
	if c.ProjectID == "" {
		missing = append(missing, "project id")
	}
	if c.PublicKey == "" {
		missing = append(missing, "public key")
	}
	if len(missing) > 0 {
		return store.WrapErrorWithFields(ErrInvalidConfig, "CONFIG", "", map[string]interface{}{"missing": missing})
	}
	return nil
}

// Client implements store.Client over the hosted backend's JSON API.
type Client struct {
	Config     Config
	HTTPClient *http.Client
	Logger     store.Logger
}
