package rqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/medatechnology/goutil/simplelog"
	"github.com/rqlite/gorqlite"

	store "github.com/medatechnology/storefront"
)

// connection is the part of *gorqlite.Connection the client uses.
type connection interface {
	QueryOneParameterizedContext(ctx context.Context, statement gorqlite.ParameterizedStatement) (gorqlite.QueryResult, error)
	WriteOneParameterizedContext(ctx context.Context, statement gorqlite.ParameterizedStatement) (gorqlite.WriteResult, error)
	Leader() (string, error)
	Peers() ([]string, error)
	Close()
}

// Client implements store.Client on an rqlite cluster. Each entity is a
// table with an integer "Id" primary key and one column per field.
type Client struct {
	Config Config
	conn   connection
}

// Open connects through gorqlite. If a consistency level is configured it
// applies to every read.
func Open(config Config) (*Client, error) {
	dsn, err := config.DSN()
	if err != nil {
		return nil, err
	}
	conn, err := gorqlite.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRQLiteConnectionFailed, err)
	}
	if config.Consistency != "" {
		level, err := gorqlite.ParseConsistencyLevel(strings.ToLower(config.Consistency))
		if err == nil {
			conn.SetConsistencyLevel(level)
		}
	}
	return &Client{Config: config, conn: conn}, nil
}

func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil
}

// Ping asks the cluster for its leader and peers and returns every node it
// knows about, leader first.
func (c *Client) Ping() ([]string, error) {
	if !c.IsConnected() {
		return nil, ErrRQLiteNotConnected
	}
	var nodes []string
	leader, err := c.conn.Leader()
	if err != nil {
		simplelog.LogErr(err, "error getting leader")
		return nodes, fmt.Errorf("%w: leader: %w", ErrRQLiteNodeUnavailable, err)
	}
	nodes = append(nodes, leader)
	peers, err := c.conn.Peers()
	if err != nil {
		simplelog.LogErr(err, "error getting peers")
		return nodes, fmt.Errorf("%w: peers: %w", ErrRQLiteNodeUnavailable, err)
	}
	for _, p := range peers {
		if p != leader {
			nodes = append(nodes, p)
		}
	}
	return nodes, nil
}

func (c *Client) Close() {
	if c.IsConnected() {
		c.conn.Close()
	}
}

func (c *Client) FetchRecords(ctx context.Context, entity string, query *store.Query) (store.FetchResponse, error) {
	if !c.IsConnected() {
		return store.FetchResponse{}, ErrRQLiteNotConnected
	}
	ps, err := store.ToSelectSQL(entity, query)
	if err != nil {
		return store.FetchResponse{}, err
	}
	rows, err := c.query(ctx, "FETCH", entity, ps)
	if err != nil {
		return store.FetchResponse{}, err
	}
	return store.FetchResponse{Success: true, Data: rows, Total: len(rows)}, nil
}

func (c *Client) GetRecordByID(ctx context.Context, entity string, id int, query *store.Query) (store.RecordResponse, error) {
	if !c.IsConnected() {
		return store.RecordResponse{}, ErrRQLiteNotConnected
	}
	ps, err := store.ToSelectByIDSQL(entity, id, query)
	if err != nil {
		return store.RecordResponse{}, err
	}
	rows, err := c.query(ctx, "GET", entity, ps)
	if err != nil {
		return store.RecordResponse{}, err
	}
	if len(rows) == 0 {
		return store.RecordResponse{Success: true}, nil
	}
	return store.RecordResponse{Success: true, Data: rows[0]}, nil
}

// CreateRecord inserts each payload on its own and reads the stored row
// back. A payload SQLite refuses shows up as a failed result.
func (c *Client) CreateRecord(ctx context.Context, entity string, req store.MutationRequest) (store.MutationResponse, error) {
	if !c.IsConnected() {
		return store.MutationResponse{}, ErrRQLiteNotConnected
	}
	results := make([]store.RecordResult, 0, len(req.Records))
	for _, rec := range req.Records {
		ps, err := store.ToInsertSQL(entity, rec)
		if err != nil {
			results = append(results, store.RecordResult{Message: err.Error()})
			continue
		}
		wr, err := c.conn.WriteOneParameterizedContext(ctx, statement(ps))
		if res, failed, err := writeOutcome("CREATE", entity, ps, wr, err); err != nil {
			return store.MutationResponse{}, err
		} else if failed {
			results = append(results, res)
			continue
		}
		results = append(results, c.reread(ctx, entity, int(wr.LastInsertID)))
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

// UpdateRecord applies each payload to the row named by its Id.
func (c *Client) UpdateRecord(ctx context.Context, entity string, req store.MutationRequest) (store.MutationResponse, error) {
	if !c.IsConnected() {
		return store.MutationResponse{}, ErrRQLiteNotConnected
	}
	results := make([]store.RecordResult, 0, len(req.Records))
	for _, rec := range req.Records {
		ps, err := store.ToUpdateSQL(entity, rec)
		if err != nil {
			results = append(results, store.RecordResult{Message: err.Error()})
			continue
		}
		wr, err := c.conn.WriteOneParameterizedContext(ctx, statement(ps))
		if res, failed, err := writeOutcome("UPDATE", entity, ps, wr, err); err != nil {
			return store.MutationResponse{}, err
		} else if failed {
			results = append(results, res)
			continue
		}
		if wr.RowsAffected == 0 {
			results = append(results, store.RecordResult{Message: store.ErrNotFound.Message})
			continue
		}
		results = append(results, c.reread(ctx, entity, rec.GetInt(store.FieldID)))
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

// DeleteRecord deletes ids one at a time so each gets its own result.
func (c *Client) DeleteRecord(ctx context.Context, entity string, req store.DeleteRequest) (store.MutationResponse, error) {
	if !c.IsConnected() {
		return store.MutationResponse{}, ErrRQLiteNotConnected
	}
	results := make([]store.RecordResult, 0, len(req.RecordIds))
	for _, id := range req.RecordIds {
		ps, err := store.ToDeleteSQL(entity, []int{id})
		if err != nil {
			return store.MutationResponse{}, err
		}
		wr, err := c.conn.WriteOneParameterizedContext(ctx, statement(ps))
		if res, failed, err := writeOutcome("DELETE", entity, ps, wr, err); err != nil {
			return store.MutationResponse{}, err
		} else if failed {
			results = append(results, res)
			continue
		}
		if wr.RowsAffected == 0 {
			results = append(results, store.RecordResult{Message: store.ErrNotFound.Message})
			continue
		}
		results = append(results, store.RecordResult{Success: true})
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

func (c *Client) query(ctx context.Context, operation, entity string, ps store.ParameterizedSQL) ([]store.Record, error) {
	qr, err := c.conn.QueryOneParameterizedContext(ctx, statement(ps))
	if err != nil {
		return nil, WrapRQLiteError(err, operation, entity, ps.Query)
	}
	rows := make([]store.Record, 0, qr.NumRows())
	for qr.Next() {
		m, err := qr.Map()
		if err != nil {
			return nil, WrapRQLiteError(err, operation, entity, ps.Query)
		}
		rows = append(rows, store.Record(m))
	}
	return rows, nil
}

// reread fetches the row a write just touched. If the row cannot be read
// the write still happened, so the result stays successful with only Id.
func (c *Client) reread(ctx context.Context, entity string, id int) store.RecordResult {
	ps, err := store.ToSelectRowSQL(entity, id)
	if err == nil {
		rows, qerr := c.query(ctx, "GET", entity, ps)
		if qerr == nil && len(rows) > 0 {
			return store.RecordResult{Success: true, Data: rows[0]}
		}
	}
	return store.RecordResult{Success: true, Data: store.Record{store.FieldID: id}}
}

// writeOutcome sorts a write into three cases: done, refused by SQLite for
// this record (failed=true), or broken (err != nil).
func writeOutcome(operation, entity string, ps store.ParameterizedSQL, wr gorqlite.WriteResult, err error) (store.RecordResult, bool, error) {
	if wr.Err != nil && IsConstraintViolation(wr.Err) {
		return store.RecordResult{Message: wr.Err.Error()}, true, nil
	}
	if err == nil {
		err = wr.Err
	}
	if err != nil {
		return store.RecordResult{}, false, WrapRQLiteError(err, operation, entity, ps.Query)
	}
	return store.RecordResult{Success: true}, false, nil
}

func statement(ps store.ParameterizedSQL) gorqlite.ParameterizedStatement {
	return gorqlite.ParameterizedStatement{
		Query:     ps.Query,
		Arguments: ps.Values,
	}
}
