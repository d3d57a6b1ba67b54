package rqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/rqlite/gorqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store "github.com/medatechnology/storefront"
)

// fakeConn answers writes from a script and never returns rows.
type fakeConn struct {
	writes  []gorqlite.ParameterizedStatement
	results []gorqlite.WriteResult
	errs    []error
	leader  string
	peers   []string
	closed  bool
}

func (f *fakeConn) QueryOneParameterizedContext(ctx context.Context, s gorqlite.ParameterizedStatement) (gorqlite.QueryResult, error) {
	return gorqlite.QueryResult{}, errors.New("no rows in fake")
}

func (f *fakeConn) WriteOneParameterizedContext(ctx context.Context, s gorqlite.ParameterizedStatement) (gorqlite.WriteResult, error) {
	i := len(f.writes)
	f.writes = append(f.writes, s)
	var wr gorqlite.WriteResult
	var err error
	if i < len(f.results) {
		wr = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return wr, err
}

func (f *fakeConn) Leader() (string, error) {
	if f.leader == "" {
		return "", errors.New("no leader")
	}
	return f.leader, nil
}

func (f *fakeConn) Peers() ([]string, error) { return f.peers, nil }
func (f *fakeConn) Close()                   { f.closed = true }

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default url", Config{URL: DEFAULT_URL}, false},
		{"strong", Config{URL: "https://db.internal:4001", Consistency: "STRONG"}, false},
		{"empty", Config{}, true},
		{"not http", Config{URL: "tcp://db:4001"}, true},
		{"bad consistency", Config{URL: DEFAULT_URL, Consistency: "eventual"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRQLiteInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	dsn, err := Config{URL: "http://db:4001/", Username: "shop", Password: "s3cret"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "http://shop:s3cret@db:4001", dsn)

	cfg := Config{URL: "http://admin:pw@db:4001"}
	assert.NotContains(t, cfg.String(), "pw")
	assert.Contains(t, cfg.String(), "admin@db:4001")
}

func TestNotConnected(t *testing.T) {
	var c *Client
	_, err := c.FetchRecords(context.Background(), store.EntityOrder, nil)
	assert.ErrorIs(t, err, ErrRQLiteNotConnected)
	_, err = c.Ping()
	assert.ErrorIs(t, err, ErrRQLiteNotConnected)
}

func TestPing(t *testing.T) {
	c := &Client{conn: &fakeConn{leader: "n1:4002", peers: []string{"n1:4002", "n2:4002"}}}
	nodes, err := c.Ping()
	require.NoError(t, err)
	assert.Equal(t, []string{"n1:4002", "n2:4002"}, nodes)

	c = &Client{conn: &fakeConn{}}
	_, err = c.Ping()
	assert.ErrorIs(t, err, ErrRQLiteNodeUnavailable)
}

func TestDeleteRecord(t *testing.T) {
	conn := &fakeConn{results: []gorqlite.WriteResult{{RowsAffected: 1}, {RowsAffected: 0}}}
	c := &Client{conn: conn}

	resp, err := c.DeleteRecord(context.Background(), store.EntityProduct, store.DeleteRequest{RecordIds: []int{4, 5}})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)

	require.Len(t, conn.writes, 2)
	assert.Equal(t, `DELETE FROM "product_c" WHERE "Id" IN (?)`, conn.writes[0].Query)
	assert.Equal(t, []interface{}{4}, conn.writes[0].Arguments)
}

func TestUpdateRecordOutcomes(t *testing.T) {
	conn := &fakeConn{results: []gorqlite.WriteResult{{RowsAffected: 0}}}
	c := &Client{conn: conn}

	resp, err := c.UpdateRecord(context.Background(), store.EntityOrder, store.MutationRequest{Records: []store.Record{
		{"Id": 9, "status_c": "shipped"},
		{"status_c": "shipped"},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.False(t, resp.Results[0].Success, "no row affected")
	assert.False(t, resp.Results[1].Success, "missing id never reaches the database")
	assert.Len(t, conn.writes, 1)
}

func TestCreateRecordConstraintAndRereadFallback(t *testing.T) {
	constraint := errors.New("NOT NULL constraint failed: product_c.name_c")
	conn := &fakeConn{
		results: []gorqlite.WriteResult{{Err: constraint}, {LastInsertID: 12, RowsAffected: 1}},
		errs:    []error{constraint, nil},
	}
	c := &Client{conn: conn}

	resp, err := c.CreateRecord(context.Background(), store.EntityProduct, store.MutationRequest{Records: []store.Record{
		{"brand_c": "LG"},
		{"name_c": "TV"},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.False(t, resp.Results[0].Success)
	assert.Contains(t, resp.Results[0].Message, "NOT NULL")
	assert.True(t, resp.Results[1].Success)
	assert.Equal(t, 12, resp.Results[1].Data.GetInt(store.FieldID))
}

func TestCreateRecordTransportFailure(t *testing.T) {
	conn := &fakeConn{errs: []error{errors.New("dial tcp: connection refused")}}
	c := &Client{conn: conn}

	_, err := c.CreateRecord(context.Background(), store.EntityOrder, store.MutationRequest{Records: []store.Record{{"total_c": 1}}})
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	var rqErr *RQLiteError
	require.True(t, errors.As(err, &rqErr))
	assert.Equal(t, "CREATE", rqErr.Operation)
}

func TestFetchRenderError(t *testing.T) {
	c := &Client{conn: &fakeConn{}}
	q := store.BuildListQuery(store.EntityOrder, []string{"status_c"}).Filter("status_c", "Between", 1)
	_, err := c.FetchRecords(context.Background(), store.EntityOrder, q)
	assert.ErrorIs(t, err, store.ErrUnsupportedOperator)
}

func TestClose(t *testing.T) {
	conn := &fakeConn{}
	(&Client{conn: conn}).Close()
	assert.True(t, conn.closed)
}
