package apper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "github.com/medatechnology/storefront"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:    srv.URL + "/",
		ProjectID:  "proj-1",
		PublicKey:  "pk-test",
		RetryDelay: time.Millisecond,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c.WithLogger(store.NewNoopLogger())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"complete", Config{BaseURL: "https://api.example.com", ProjectID: "p", PublicKey: "k"}, false},
		{"missing base url", Config{ProjectID: "p", PublicKey: "k"}, true},
		{"bad scheme", Config{BaseURL: "ftp://x", ProjectID: "p", PublicKey: "k"}, true},
		{"missing project", Config{BaseURL: "http://x", PublicKey: "k"}, true},
		{"missing key", Config{BaseURL: "http://x", ProjectID: "p"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{BaseURL: "https://api.example.com/v1//"}.WithDefaults()
	assert.Equal(t, "https://api.example.com/v1", c.BaseURL)
	assert.Equal(t, DEFAULT_TIMEOUT, c.Timeout)
	assert.Equal(t, 1, c.RetryCount)
	assert.Equal(t, NewDefaultConfig().RetryDelay, c.RetryDelay)
}

func TestFetchRecords(t *testing.T) {
	var gotBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/records/product_c/fetch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "proj-1", r.Header.Get(HEADER_PROJECT_ID))
		assert.Equal(t, "Bearer pk-test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(HEADER_REQUEST_ID))

		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		io.WriteString(w, `{"success":true,"data":[{"Id":1,"name_c":"TV","price_c":1299.99}],"total":1}`)
	})

	q := store.BuildListQuery(store.EntityProduct, []string{"name_c", "price_c"}).WhereEqual("brand_c", "LG")
	resp, err := c.FetchRecords(context.Background(), store.EntityProduct, q)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, json.Number("1299.99"), resp.Data[0]["price_c"])
	assert.Equal(t, 1, resp.Data[0].GetInt("Id"))
	assert.Equal(t, "1299.99", resp.Data[0].GetDecimal("price_c").String())

	assert.Len(t, gotBody["fields"], 2)
	assert.Len(t, gotBody["where"], 1)
}

func TestGetRecordByIDNilQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/records/order_c/7", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"fields":[]}`, string(raw))
		io.WriteString(w, `{"success":true,"data":null}`)
	})

	resp, err := c.GetRecordByID(context.Background(), store.EntityOrder, 7, nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)
}

func TestMutations(t *testing.T) {
	var methods []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		assert.Equal(t, "/records/category_c", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		if r.Method == http.MethodDelete {
			assert.JSONEq(t, `{"RecordIds":[3]}`, string(raw))
			io.WriteString(w, `{"success":true,"results":[{"success":true}]}`)
			return
		}
		io.WriteString(w, `{"success":true,"results":[{"success":true,"data":{"Id":3,"name_c":"Audio"}}]}`)
	})
	ctx := context.Background()

	resp, err := c.CreateRecord(ctx, store.EntityCategory, store.MutationRequest{Records: []store.Record{{"name_c": "Audio"}}})
	require.NoError(t, err)
	first, ok := resp.First()
	require.True(t, ok)
	assert.Equal(t, "Audio", first.Data.GetString("name_c"))

	_, err = c.UpdateRecord(ctx, store.EntityCategory, store.MutationRequest{Records: []store.Record{{"Id": 3}}})
	require.NoError(t, err)

	resp, err = c.DeleteRecord(ctx, store.EntityCategory, store.DeleteRequest{RecordIds: []int{3}})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.Equal(t, []string{http.MethodPost, http.MethodPut, http.MethodDelete}, methods)
}

func TestRefusalEnvelopeIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"message":"field rating_c is read-only"}`)
	})

	resp, err := c.FetchRecords(context.Background(), store.EntityProduct, nil)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "field rating_c is read-only", resp.Message)
}

func TestHTTPErrorRetries(t *testing.T) {
	var calls int32
	var ids []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		ids = append(ids, r.Header.Get(HEADER_REQUEST_ID))
		http.Error(w, "upstream down", http.StatusBadGateway)
	}, func(cfg *Config) { cfg.RetryCount = 3 })

	_, err := c.FetchRecords(context.Background(), store.EntityOrder, nil)
	require.Error(t, err)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadGateway, he.StatusCode)
	assert.Equal(t, "FETCH", he.Operation)
	assert.Contains(t, he.Body, "upstream down")
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, ids[0], ids[2], "request id is stable across attempts")
}

func TestAuthFailureIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}, func(cfg *Config) { cfg.RetryCount = 3 })

	_, err := c.DeleteRecord(context.Background(), store.EntityOrder, store.DeleteRequest{RecordIds: []int{1}})
	assert.True(t, IsAuthenticationError(err))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsHTTPError(err, http.StatusUnauthorized))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvalidResponseBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>oops</html>`)
	})

	_, err := c.GetRecordByID(context.Background(), store.EntityProduct, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchRecords(ctx, store.EntityProduct, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestTracingTransport(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://localhost", ProjectID: "p", PublicKey: "k", Tracing: true})
	require.NoError(t, err)
	_, plain := c.HTTPClient.Transport.(*http.Transport)
	assert.False(t, plain)
}
