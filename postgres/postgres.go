// Package postgres implements store.Client on PostgreSQL. Each entity is a
// table with a serial "Id" primary key and one column per field.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	store "github.com/medatechnology/storefront"
)

const returningID = ` RETURNING "Id"`

// Client implements store.Client for PostgreSQL.
type Client struct {
	db     *sql.DB
	config PostgresConfig
}

// Open validates the config, opens a pool and pings it.
func Open(config PostgresConfig) (*Client, error) {
	dsn, err := config.ToDSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostgresConnectionFailed, WrapPostgreSQLError(err, "CONNECT", "", ""))
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrPostgresConnectionFailed, WrapPostgreSQLError(err, "PING", "", ""))
	}
	return &Client{db: db, config: config}, nil
}

// NewWithDB wraps an existing pool. The caller keeps ownership of db.
func NewWithDB(db *sql.DB, config PostgresConfig) *Client {
	config.applyDefaults()
	return &Client{db: db, config: config}
}

func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Ping checks the pool is still usable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.db == nil {
		return ErrPostgresNotConnected
	}
	return WrapPostgreSQLError(c.db.PingContext(ctx), "PING", "", "")
}

func (c *Client) FetchRecords(ctx context.Context, entity string, query *store.Query) (store.FetchResponse, error) {
	if c == nil || c.db == nil {
		return store.FetchResponse{}, ErrPostgresNotConnected
	}
	ps, err := store.ToSelectSQL(entity, query)
	if err != nil {
		return store.FetchResponse{}, err
	}
	rows, err := c.query(ctx, "FETCH", entity, store.Postgres(ps))
	if err != nil {
		return store.FetchResponse{}, err
	}
	return store.FetchResponse{Success: true, Data: rows, Total: len(rows)}, nil
}

func (c *Client) GetRecordByID(ctx context.Context, entity string, id int, query *store.Query) (store.RecordResponse, error) {
	if c == nil || c.db == nil {
		return store.RecordResponse{}, ErrPostgresNotConnected
	}
	ps, err := store.ToSelectByIDSQL(entity, id, query)
	if err != nil {
		return store.RecordResponse{}, err
	}
	rows, err := c.query(ctx, "GET", entity, store.Postgres(ps))
	if err != nil {
		return store.RecordResponse{}, err
	}
	if len(rows) == 0 {
		return store.RecordResponse{Success: true}, nil
	}
	return store.RecordResponse{Success: true, Data: rows[0]}, nil
}

// CreateRecord inserts each payload with RETURNING "Id" and reads the
// stored row back.
func (c *Client) CreateRecord(ctx context.Context, entity string, req store.MutationRequest) (store.MutationResponse, error) {
	if c == nil || c.db == nil {
		return store.MutationResponse{}, ErrPostgresNotConnected
	}
	results := make([]store.RecordResult, 0, len(req.Records))
	for _, rec := range req.Records {
		ps, err := store.ToInsertSQL(entity, rec)
		if err != nil {
			results = append(results, store.RecordResult{Message: err.Error()})
			continue
		}
		ps = store.Postgres(ps)
		ps.Query += returningID

		args, err := bindValues(ps.Values)
		if err != nil {
			results = append(results, store.RecordResult{Message: err.Error()})
			continue
		}

		var id int
		qctx, cancel := c.withTimeout(ctx)
		err = c.db.QueryRowContext(qctx, ps.Query, args...).Scan(&id)
		cancel()
		if err != nil {
			if IsConstraintViolation(err) {
				results = append(results, store.RecordResult{Message: WrapPostgreSQLError(err, "CREATE", entity, ps.Query).Error()})
				continue
			}
			return store.MutationResponse{}, WrapPostgreSQLError(err, "CREATE", entity, ps.Query)
		}
		results = append(results, c.reread(ctx, entity, id))
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

func (c *Client) UpdateRecord(ctx context.Context, entity string, req store.MutationRequest) (store.MutationResponse, error) {
	if c == nil || c.db == nil {
		return store.MutationResponse{}, ErrPostgresNotConnected
	}
	results := make([]store.RecordResult, 0, len(req.Records))
	for _, rec := range req.Records {
		ps, err := store.ToUpdateSQL(entity, rec)
		if err != nil {
			results = append(results, store.RecordResult{Message: err.Error()})
			continue
		}
		affected, res, err := c.exec(ctx, "UPDATE", entity, store.Postgres(ps))
		if err != nil {
			return store.MutationResponse{}, err
		}
		switch {
		case res != nil:
			results = append(results, *res)
		case affected == 0:
			results = append(results, store.RecordResult{Message: store.ErrNotFound.Message})
		default:
			results = append(results, c.reread(ctx, entity, rec.GetInt(store.FieldID)))
		}
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

func (c *Client) DeleteRecord(ctx context.Context, entity string, req store.DeleteRequest) (store.MutationResponse, error) {
	if c == nil || c.db == nil {
		return store.MutationResponse{}, ErrPostgresNotConnected
	}
	results := make([]store.RecordResult, 0, len(req.RecordIds))
	for _, id := range req.RecordIds {
		ps, err := store.ToDeleteSQL(entity, []int{id})
		if err != nil {
			return store.MutationResponse{}, err
		}
		affected, res, err := c.exec(ctx, "DELETE", entity, store.Postgres(ps))
		if err != nil {
			return store.MutationResponse{}, err
		}
		switch {
		case res != nil:
			results = append(results, *res)
		case affected == 0:
			results = append(results, store.RecordResult{Message: store.ErrNotFound.Message})
		default:
			results = append(results, store.RecordResult{Success: true})
		}
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.config.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) query(ctx context.Context, operation, entity string, ps store.ParameterizedSQL) ([]store.Record, error) {
	args, err := bindValues(ps.Values)
	if err != nil {
		return nil, err
	}
	qctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(qctx, ps.Query, args...)
	if err != nil {
		return nil, WrapPostgreSQLError(err, operation, entity, ps.Query)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, WrapPostgreSQLError(err, operation, entity, ps.Query)
	}
	return records, nil
}

// exec runs a write. A constraint violation comes back as a failed result
// rather than an error.
func (c *Client) exec(ctx context.Context, operation, entity string, ps store.ParameterizedSQL) (int64, *store.RecordResult, error) {
	args, err := bindValues(ps.Values)
	if err != nil {
		return 0, &store.RecordResult{Message: err.Error()}, nil
	}
	qctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result, err := c.db.ExecContext(qctx, ps.Query, args...)
	if err != nil {
		wrapped := WrapPostgreSQLError(err, operation, entity, ps.Query)
		if IsConstraintViolation(err) {
			return 0, &store.RecordResult{Message: wrapped.Error()}, nil
		}
		return 0, nil, wrapped
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil, WrapPostgreSQLError(err, operation, entity, ps.Query)
	}
	return affected, nil, nil
}

// reread returns the stored row. When it cannot be read the write still
// happened, so the result stays successful with only Id.
func (c *Client) reread(ctx context.Context, entity string, id int) store.RecordResult {
	ps, err := store.ToSelectRowSQL(entity, id)
	if err == nil {
		rows, qerr := c.query(ctx, "GET", entity, store.Postgres(ps))
		if qerr == nil && len(rows) > 0 {
			return store.RecordResult{Success: true, Data: rows[0]}
		}
	}
	return store.RecordResult{Success: true, Data: store.Record{store.FieldID: id}}
}
