package apper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	store "github.com/medatechnology/storefront"
)

// envelope is the part of every response body that tells a refusal apart
// from a transport-level failure.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// recordsURL builds <base>/records/<entity>[/suffix].
func (c *Client) recordsURL(entity string, suffix string) string {
	return c.Config.BaseURL + ENDPOINT_RECORDS + "/" + url.PathEscape(entity) + suffix
}

func recordURL(base string, id int) string {
	return base + "/" + strconv.Itoa(id)
}

// sendRequest sends one logical request with retries. The request id stays
// the same across attempts so the backend can correlate them.
//
// The returned body belongs to a 2xx response, or to a non-2xx response that
// still carries a JSON envelope with success=false. Anything else becomes an
// *HTTPError.
func (c *Client) sendRequest(ctx context.Context, operation, entity, method, endpoint string, payload interface{}) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	requestID := uuid.NewString()
	var lastErr error

	for attempt := 0; attempt < c.Config.RetryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req, requestID)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return respBody, nil
			} else if isRefusal(respBody) {
				return respBody, nil
			} else {
				lastErr = &HTTPError{
					Operation:  operation,
					Entity:     entity,
					StatusCode: resp.StatusCode,
					Body:       string(respBody),
					RequestID:  requestID,
					Err:        statusError(resp.StatusCode),
				}
			}
		}

		if !IsRetryable(lastErr) || ctx.Err() != nil {
			break
		}
		if attempt < c.Config.RetryCount-1 {
			c.logger().Debug("retrying apper request",
				store.String("operation", operation),
				store.String("entity", entity),
				store.String("request_id", requestID),
				store.Int("attempt", attempt+1),
				store.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.Config.RetryDelay):
			}
		}
	}

	var he *HTTPError
	if errors.As(lastErr, &he) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, entity, lastErr)
}

func (c *Client) setHeaders(req *http.Request, requestID string) {
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodDelete {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HEADER_PROJECT_ID, c.Config.ProjectID)
	req.Header.Set(HEADER_REQUEST_ID, requestID)
	if c.Config.PublicKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.PublicKey)
	}
}

func statusError(code int) error {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return ErrUnauthorized
	}
	return ErrRequestFailed
}

// isRefusal reports whether body is a JSON envelope with success=false.
func isRefusal(body []byte) bool {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	return env.Success != nil && !*env.Success
}

// decode reads a response envelope, keeping numbers as json.Number so money
// values are not rounded through float64.
func decode(body []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}
