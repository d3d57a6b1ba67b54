package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient answers every call with the configured response or error
// and remembers what it was asked.
type scriptedClient struct {
	fetch    FetchResponse
	get      RecordResponse
	mutation MutationResponse
	err      error

	calls    []string
	lastReq  MutationRequest
	lastDel  DeleteRequest
	lastID   int
	lastQ    *Query
	entities []string
}

func (c *scriptedClient) record(call, entity string) {
	c.calls = append(c.calls, call)
	c.entities = append(c.entities, entity)
}

func (c *scriptedClient) FetchRecords(ctx context.Context, entity string, q *Query) (FetchResponse, error) {
	c.record("fetch", entity)
	c.lastQ = q
	return c.fetch, c.err
}

func (c *scriptedClient) GetRecordByID(ctx context.Context, entity string, id int, q *Query) (RecordResponse, error) {
	c.record("get", entity)
	c.lastID, c.lastQ = id, q
	return c.get, c.err
}

func (c *scriptedClient) CreateRecord(ctx context.Context, entity string, req MutationRequest) (MutationResponse, error) {
	c.record("create", entity)
	c.lastReq = req
	return c.mutation, c.err
}

func (c *scriptedClient) UpdateRecord(ctx context.Context, entity string, req MutationRequest) (MutationResponse, error) {
	c.record("update", entity)
	c.lastReq = req
	return c.mutation, c.err
}

func (c *scriptedClient) DeleteRecord(ctx context.Context, entity string, req DeleteRequest) (MutationResponse, error) {
	c.record("delete", entity)
	c.lastDel = req
	return c.mutation, c.err
}

type named struct {
	ID   int
	Name string
}

func decodeNamed(rec Record) (named, error) {
	if rec.GetString("name_c") == "boom" {
		return named{}, &DecodeError{Field: "name_c", Kind: DecodeMalformed, Err: errors.New("bad")}
	}
	return named{ID: rec.GetInt(FieldID), Name: rec.GetString("name_c")}, nil
}

func newTestRunner(c Client) (*Runner, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewRunner(c, NewLoggerWithWriter(buf, LogLevelDebug)), buf
}

func TestListSuccess(t *testing.T) {
	c := &scriptedClient{fetch: FetchResponse{Success: true, Data: []Record{
		{"Id": float64(1), "name_c": "a"},
		{"Id": float64(2), "name_c": "b"},
	}}}
	r, _ := newTestRunner(c)

	q := BuildListQuery(EntityProduct, []string{"name_c"})
	got := List(context.Background(), r, q, decodeNamed)

	assert.Equal(t, []named{{1, "a"}, {2, "b"}}, got)
	assert.Equal(t, []string{"fetch"}, c.calls)
	assert.Equal(t, []string{EntityProduct}, c.entities)
	assert.Same(t, q, c.lastQ)
}

func TestListSuccessWithoutData(t *testing.T) {
	r, _ := newTestRunner(&scriptedClient{fetch: FetchResponse{Success: true}})
	got := List(context.Background(), r, BuildListQuery(EntityProduct, nil), decodeNamed)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFailuresYieldEmptyValues(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		kind   ErrorKind
	}{
		{"client unavailable", nil, KindClientUnavailable},
		{"rejected", &scriptedClient{mutation: MutationResponse{Success: false, Message: "quota exceeded"}}, KindRequestRejected},
		{"thrown", &scriptedClient{err: errors.New("connection reset")}, KindException},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, buf := newTestRunner(tt.client)
			ctx := context.Background()
			q := BuildListQuery(EntityOrder, []string{"name_c"})

			list := List(ctx, r, q, decodeNamed)
			assert.NotNil(t, list)
			assert.Empty(t, list)

			assert.Nil(t, Get(ctx, r, 1, q, decodeNamed))
			assert.Nil(t, Create(ctx, r, EntityOrder, Record{"name_c": "x"}, decodeNamed))
			assert.Nil(t, Update(ctx, r, EntityOrder, Record{"Id": 1, "name_c": "x"}, decodeNamed))
			assert.False(t, Delete(ctx, r, EntityOrder, 1))

			out := buf.String()
			assert.Equal(t, 5, strings.Count(out, "kind="+string(tt.kind)), out)
			if tt.kind == KindRequestRejected {
				assert.Contains(t, out, "quota exceeded")
			}
		})
	}
}

func TestClientUnavailableMakesNoCall(t *testing.T) {
	var r *Runner
	assert.Empty(t, List(context.Background(), r, BuildListQuery(EntityOrder, nil), decodeNamed))
	assert.False(t, Delete(context.Background(), r, EntityOrder, 1))
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	q := BuildListQuery(EntityCategory, []string{"name_c"})

	c := &scriptedClient{get: RecordResponse{Success: true, Data: Record{"Id": 4, "name_c": "TV"}}}
	r, _ := newTestRunner(c)
	got := Get(ctx, r, 4, q, decodeNamed)
	require.NotNil(t, got)
	assert.Equal(t, named{4, "TV"}, *got)
	assert.Equal(t, 4, c.lastID)

	c = &scriptedClient{get: RecordResponse{Success: true}}
	r, buf := newTestRunner(c)
	assert.Nil(t, Get(ctx, r, 99, q, decodeNamed))
	assert.Contains(t, buf.String(), "kind=record-not-found")
}

func TestDecodeFailureIsFatalForCall(t *testing.T) {
	c := &scriptedClient{fetch: FetchResponse{Success: true, Data: []Record{
		{"Id": 1, "name_c": "fine"},
		{"Id": 2, "name_c": "boom"},
	}}}
	r, buf := newTestRunner(c)
	got := List(context.Background(), r, BuildListQuery(EntityProduct, nil), decodeNamed)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "kind=exception")
}

func TestMutate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		resp   MutationResponse
		expect *named
		kind   ErrorKind
	}{
		{
			name:   "first result succeeded",
			resp:   MutationResponse{Success: true, Results: []RecordResult{{Success: true, Data: Record{"Id": 10, "name_c": "new"}}}},
			expect: &named{10, "new"},
		},
		{
			name: "first result failed",
			resp: MutationResponse{Success: true, Results: []RecordResult{{Success: false, Message: "name_c is required"}}},
			kind: KindRecordFailed,
		},
		{
			name: "no results",
			resp: MutationResponse{Success: true},
			kind: KindRecordFailed,
		},
		{
			name: "result without data",
			resp: MutationResponse{Success: true, Results: []RecordResult{{Success: true}}},
			kind: KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedClient{mutation: tt.resp}
			r, buf := newTestRunner(c)
			payload := Record{"name_c": "new"}

			got := Create(ctx, r, EntityProduct, payload, decodeNamed)
			assert.Equal(t, tt.expect, got)
			assert.Equal(t, MutationRequest{Records: []Record{payload}}, c.lastReq)
			if tt.kind != "" {
				assert.Contains(t, buf.String(), "kind="+string(tt.kind))
			}
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	c := &scriptedClient{mutation: MutationResponse{Success: true, Results: []RecordResult{{Success: true}}}}
	r, _ := newTestRunner(c)
	assert.True(t, Delete(ctx, r, EntityOrder, 12))
	assert.Equal(t, DeleteRequest{RecordIds: []int{12}}, c.lastDel)

	c = &scriptedClient{mutation: MutationResponse{Success: true, Results: []RecordResult{{Success: false}}}}
	r, _ = newTestRunner(c)
	assert.False(t, Delete(ctx, r, EntityOrder, 12))
}
