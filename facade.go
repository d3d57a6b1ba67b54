package store

import (
	"context"
	"time"
)

// DecodeFunc turns one wire record into an entity.
type DecodeFunc[T any] func(Record) (T, error)

// Runner executes façade calls against a Client. Every call ends either with
// a decoded result or with a logged failure and the empty value of its
// return type; errors are never handed back to the caller.
type Runner struct {
	Client Client
	Logger Logger
}

// NewRunner builds a Runner. A nil logger means the package default logger.
func NewRunner(client Client, logger Logger) *Runner {
	return &Runner{Client: client, Logger: logger}
}

func (r *Runner) logger() Logger {
	if r == nil || r.Logger == nil {
		return defaultLogger
	}
	return r.Logger
}

func (r *Runner) client() (Client, error) {
	if r == nil || r.Client == nil {
		return nil, ErrClientUnavailable
	}
	return r.Client, nil
}

// Report logs a failed call under its category. A missing record is
// routine and logged one level lower than the others.
func (r *Runner) Report(err error, operation, entity string) {
	if !IsStoreError(err) {
		err = WrapError(err, operation, entity)
	}
	if Classify(err) == KindNotFound {
		r.logger().Warn(err.Error(),
			String("kind", string(KindNotFound)),
			String("operation", operation),
			String("entity", entity))
		return
	}
	LogErrorWithContext(r.logger(), err)
}

func (r *Runner) traced(operation, entity string, start time.Time, fields ...Field) {
	fields = append(fields,
		String("operation", operation),
		String("entity", entity),
		Duration("elapsed", time.Since(start)))
	r.logger().Debug("backend call finished", fields...)
}

// List fetches and decodes every record matching q. On any failure the
// result is an empty, non-nil slice.
func List[T any](ctx context.Context, r *Runner, q *Query, decode DecodeFunc[T]) []T {
	if q == nil {
		q = &Query{}
	}
	entity := q.Entity
	out := []T{}

	c, err := r.client()
	if err != nil {
		r.Report(WrapFetchError(err, entity), "FETCH", entity)
		return out
	}

	start := time.Now()
	resp, err := c.FetchRecords(ctx, entity, q)
	if err != nil {
		r.Report(WrapFetchError(err, entity), "FETCH", entity)
		return out
	}
	if !resp.Success {
		r.Report(Rejected("FETCH", entity, resp.Message), "FETCH", entity)
		return out
	}

	decoded := make([]T, 0, len(resp.Data))
	for i, rec := range resp.Data {
		v, err := decode(rec)
		if err != nil {
			r.Report(WrapErrorWithFields(err, "FETCH", entity, map[string]interface{}{
				"index": i,
				"id":    rec.GetInt(FieldID),
			}), "FETCH", entity)
			return out
		}
		decoded = append(decoded, v)
	}
	r.traced("FETCH", entity, start, Int("count", len(decoded)))
	return decoded
}

// Get fetches one record by id. A missing record, like any failure, yields nil.
func Get[T any](ctx context.Context, r *Runner, id int, q *Query, decode DecodeFunc[T]) *T {
	if q == nil {
		q = &Query{}
	}
	entity := q.Entity

	c, err := r.client()
	if err != nil {
		r.Report(WrapGetError(err, entity), "GET", entity)
		return nil
	}

	start := time.Now()
	resp, err := c.GetRecordByID(ctx, entity, id, q)
	if err != nil {
		r.Report(WrapGetError(err, entity), "GET", entity)
		return nil
	}
	if !resp.Success {
		r.Report(Rejected("GET", entity, resp.Message), "GET", entity)
		return nil
	}
	if resp.Data == nil {
		r.Report(WrapErrorWithFields(ErrNotFound, "GET", entity, map[string]interface{}{"id": id}), "GET", entity)
		return nil
	}

	v, err := decode(resp.Data)
	if err != nil {
		r.Report(WrapErrorWithFields(err, "GET", entity, map[string]interface{}{"id": id}), "GET", entity)
		return nil
	}
	r.traced("GET", entity, start, Int("id", id))
	return &v
}

// Create sends one create payload and decodes the record the backend echoes
// back. The first per-record result must report success.
func Create[T any](ctx context.Context, r *Runner, entity string, payload Record, decode DecodeFunc[T]) *T {
	return mutate(ctx, r, "CREATE", entity, payload, decode)
}

// Update sends one patch payload (which carries Id) and decodes the updated
// record.
func Update[T any](ctx context.Context, r *Runner, entity string, payload Record, decode DecodeFunc[T]) *T {
	return mutate(ctx, r, "UPDATE", entity, payload, decode)
}

func mutate[T any](ctx context.Context, r *Runner, operation, entity string, payload Record, decode DecodeFunc[T]) *T {
	c, err := r.client()
	if err != nil {
		r.Report(WrapError(err, operation, entity), operation, entity)
		return nil
	}

	req := MutationRequest{Records: []Record{payload}}
	start := time.Now()
	var resp MutationResponse
	if operation == "CREATE" {
		resp, err = c.CreateRecord(ctx, entity, req)
	} else {
		resp, err = c.UpdateRecord(ctx, entity, req)
	}
	if err != nil {
		r.Report(WrapError(err, operation, entity), operation, entity)
		return nil
	}
	if !resp.Success {
		r.Report(Rejected(operation, entity, resp.Message), operation, entity)
		return nil
	}

	first, ok := resp.First()
	if !ok || !first.Success {
		r.Report(&StoreError{Err: ErrRecordFailed, Context: ErrorContext{
			Operation: operation,
			Entity:    entity,
			Message:   first.Message,
		}}, operation, entity)
		return nil
	}
	if first.Data == nil {
		r.Report(WrapError(ErrNotFound, operation, entity), operation, entity)
		return nil
	}

	v, err := decode(first.Data)
	if err != nil {
		r.Report(WrapError(err, operation, entity), operation, entity)
		return nil
	}
	r.traced(operation, entity, start, Int("id", first.Data.GetInt(FieldID)))
	return &v
}

// Delete removes one record and reports the first per-record result. Any
// failure is false.
func Delete(ctx context.Context, r *Runner, entity string, id int) bool {
	c, err := r.client()
	if err != nil {
		r.Report(WrapDeleteError(err, entity), "DELETE", entity)
		return false
	}

	start := time.Now()
	resp, err := c.DeleteRecord(ctx, entity, DeleteRequest{RecordIds: []int{id}})
	if err != nil {
		r.Report(WrapDeleteError(err, entity), "DELETE", entity)
		return false
	}
	if !resp.Success {
		r.Report(Rejected("DELETE", entity, resp.Message), "DELETE", entity)
		return false
	}

	first, ok := resp.First()
	if !ok || !first.Success {
		r.Report(&StoreError{Err: ErrRecordFailed, Context: ErrorContext{
			Operation: "DELETE",
			Entity:    entity,
			Message:   first.Message,
			Fields:    map[string]interface{}{"id": id},
		}}, "DELETE", entity)
		return false
	}
	r.traced("DELETE", entity, start, Int("id", id))
	return true
}
