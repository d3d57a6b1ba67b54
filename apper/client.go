package apper

import (
	"context"
	"net"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	store "github.com/medatechnology/storefront"
)

// NewClient creates a Client for the hosted backend. The configuration is
// completed with defaults and then validated.
func NewClient(config Config) (*Client, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var transport http.RoundTripper = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   config.Timeout,
			KeepAlive: DEFAULT_KEEP_ALIVE,
		}).DialContext,
		TLSHandshakeTimeout:   DEFAULT_TLS_HANDSHAKE_TIMEOUT,
		ResponseHeaderTimeout: DEFAULT_RESPONSE_TIMEOUT,
		ExpectContinueTimeout: DEFAULT_CONTINUE_TIMEOUT,
		MaxIdleConns:          DEFAULT_MAX_IDLE_CONNECTIONS,
		MaxIdleConnsPerHost:   DEFAULT_MAX_IDLE_CONNECTIONS_PER_HOST,
		MaxConnsPerHost:       DEFAULT_MAX_CONNECTIONS_PER_HOST,
		IdleConnTimeout:       DEFAULT_IDLE_CONNECTION_TIMEOUT,
	}
	if config.Tracing {
		transport = otelhttp.NewTransport(transport)
	}

	return &Client{
		Config: config,
		HTTPClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}, nil
}

// WithLogger sets the logger used for retry diagnostics.
func (c *Client) WithLogger(logger store.Logger) *Client {
	c.Logger = logger
	return c
}

func (c *Client) logger() store.Logger {
	if c.Logger == nil {
		return store.GetDefaultLogger()
	}
	return c.Logger
}

// FetchRecords posts the query descriptor to /records/{entity}/fetch.
func (c *Client) FetchRecords(ctx context.Context, entity string, query *store.Query) (store.FetchResponse, error) {
	var out store.FetchResponse
	body, err := c.sendRequest(ctx, "FETCH", entity, http.MethodPost, c.recordsURL(entity, ENDPOINT_FETCH), descriptor(query))
	if err != nil {
		return out, err
	}
	if err := decode(body, &out); err != nil {
		return store.FetchResponse{}, err
	}
	return out, nil
}

// GetRecordByID posts the projection to /records/{entity}/{id}.
func (c *Client) GetRecordByID(ctx context.Context, entity string, id int, query *store.Query) (store.RecordResponse, error) {
	var out store.RecordResponse
	body, err := c.sendRequest(ctx, "GET", entity, http.MethodPost, recordURL(c.recordsURL(entity, ""), id), descriptor(query))
	if err != nil {
		return out, err
	}
	if err := decode(body, &out); err != nil {
		return store.RecordResponse{}, err
	}
	return out, nil
}

// CreateRecord posts the payloads to /records/{entity}.
func (c *Client) CreateRecord(ctx context.Context, entity string, req store.MutationRequest) (store.MutationResponse, error) {
	return c.mutate(ctx, "CREATE", entity, http.MethodPost, req)
}

// UpdateRecord puts the payloads to /records/{entity}. Each payload names
// its target through the Id field.
func (c *Client) UpdateRecord(ctx context.Context, entity string, req store.MutationRequest) (store.MutationResponse, error) {
	return c.mutate(ctx, "UPDATE", entity, http.MethodPut, req)
}

// DeleteRecord sends {"RecordIds":[...]} with DELETE /records/{entity}.
func (c *Client) DeleteRecord(ctx context.Context, entity string, req store.DeleteRequest) (store.MutationResponse, error) {
	return c.mutate(ctx, "DELETE", entity, http.MethodDelete, req)
}

func (c *Client) mutate(ctx context.Context, operation, entity, method string, payload interface{}) (store.MutationResponse, error) {
	var out store.MutationResponse
	body, err := c.sendRequest(ctx, operation, entity, method, c.recordsURL(entity, ""), payload)
	if err != nil {
		return out, err
	}
	if err := decode(body, &out); err != nil {
		return store.MutationResponse{}, err
	}
	return out, nil
}

// descriptor never lets a nil query serialize as JSON null.
func descriptor(q *store.Query) *store.Query {
	if q == nil {
		return &store.Query{Fields: []store.FieldRef{}}
	}
	return q
}
