// Package memory is an in-process store.Client. It evaluates query
// descriptors locally, which makes it the backend of choice for tests, the
// demo server and offline development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	store "github.com/medatechnology/storefront"
)

type table struct {
	nextID int
	rows   []store.Record
}

type Client struct {
	mu       sync.RWMutex
	tables   map[string]*table
	failures map[string]string
}

var _ store.Client = (*Client)(nil)

func New() *Client {
	return &Client{
		tables:   make(map[string]*table),
		failures: make(map[string]string),
	}
}

// Seed inserts records as they are, assigning ids to those without one, and
// returns the ids.
func (c *Client) Seed(entity string, recs ...store.Record) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.table(entity)
	ids := make([]int, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, t.insert(rec))
	}
	return ids
}

// Fail makes every call on entity answer success=false with message, until
// Recover is called.
func (c *Client) Fail(entity, message string) {
	c.mu.Lock()
	c.failures[entity] = message
	c.mu.Unlock()
}

func (c *Client) Recover(entity string) {
	c.mu.Lock()
	delete(c.failures, entity)
	c.mu.Unlock()
}

// Len returns the number of rows stored for entity.
func (c *Client) Len(entity string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.tables[entity]; ok {
		return len(t.rows)
	}
	return 0
}

func (c *Client) table(entity string) *table {
	t, ok := c.tables[entity]
	if !ok {
		t = &table{nextID: 1}
		c.tables[entity] = t
	}
	return t
}

func (c *Client) failure(entity string) (string, bool) {
	msg, ok := c.failures[entity]
	return msg, ok
}

func (t *table) insert(rec store.Record) int {
	row := rec.Clone()
	if row == nil {
		row = store.Record{}
	}
	id := row.GetInt(store.FieldID)
	if id <= 0 {
		id = t.nextID
	}
	if id >= t.nextID {
		t.nextID = id + 1
	}
	row[store.FieldID] = id
	t.rows = append(t.rows, row)
	return id
}

func (t *table) find(id int) (int, store.Record) {
	for i, row := range t.rows {
		if row.GetInt(store.FieldID) == id {
			return i, row
		}
	}
	return -1, nil
}

func (c *Client) FetchRecords(ctx context.Context, entity string, q *store.Query) (store.FetchResponse, error) {
	if err := ctx.Err(); err != nil {
		return store.FetchResponse{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if msg, ok := c.failure(entity); ok {
		return store.FetchResponse{Success: false, Message: msg}, nil
	}
	if q == nil {
		q = &store.Query{}
	}

	var matched []store.Record
	if t, ok := c.tables[entity]; ok {
		for _, row := range t.rows {
			ok, err := matches(row, q)
			if err != nil {
				return store.FetchResponse{}, err
			}
			if ok {
				matched = append(matched, row)
			}
		}
	}
	total := len(matched)

	if len(q.OrderBy) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range q.OrderBy {
				cmp := compare(matched[i][o.FieldName], matched[j][o.FieldName])
				if cmp == 0 {
					continue
				}
				if strings.EqualFold(o.SortType, store.SortDesc) {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}
	matched = page(matched, q.PagingInfo)

	data := make([]store.Record, 0, len(matched))
	for _, row := range matched {
		data = append(data, project(row, q))
	}
	return store.FetchResponse{Success: true, Data: data, Total: total}, nil
}

func (c *Client) GetRecordByID(ctx context.Context, entity string, id int, q *store.Query) (store.RecordResponse, error) {
	if err := ctx.Err(); err != nil {
		return store.RecordResponse{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if msg, ok := c.failure(entity); ok {
		return store.RecordResponse{Success: false, Message: msg}, nil
	}
	t, ok := c.tables[entity]
	if !ok {
		return store.RecordResponse{Success: true}, nil
	}
	_, row := t.find(id)
	if row == nil {
		return store.RecordResponse{Success: true}, nil
	}
	return store.RecordResponse{Success: true, Data: project(row, q)}, nil
}

func (c *Client) CreateRecord(ctx context.Context, entity string, req store.MutationRequest) (store.MutationResponse, error) {
	if err := ctx.Err(); err != nil {
		return store.MutationResponse{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg, ok := c.failure(entity); ok {
		return store.MutationResponse{Success: false, Message: msg}, nil
	}

	t := c.table(entity)
	results := make([]store.RecordResult, 0, len(req.Records))
	for _, rec := range req.Records {
		row := rec.Clone()
		if row != nil {
			delete(row, store.FieldID)
		}
		id := t.insert(row)
		_, stored := t.find(id)
		results = append(results, store.RecordResult{Success: true, Data: stored.Clone()})
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

func (c *Client) UpdateRecord(ctx context.Context, entity string, req store.MutationRequest) (store.MutationResponse, error) {
	if err := ctx.Err(); err != nil {
		return store.MutationResponse{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg, ok := c.failure(entity); ok {
		return store.MutationResponse{Success: false, Message: msg}, nil
	}

	t := c.table(entity)
	results := make([]store.RecordResult, 0, len(req.Records))
	for _, rec := range req.Records {
		if !rec.Has(store.FieldID) {
			results = append(results, store.RecordResult{Success: false, Message: "Id is required"})
			continue
		}
		i, row := t.find(rec.GetInt(store.FieldID))
		if row == nil {
			results = append(results, store.RecordResult{Success: false, Message: "record not found"})
			continue
		}
		for k, v := range rec {
			if k != store.FieldID {
				row[k] = v
			}
		}
		t.rows[i] = row
		results = append(results, store.RecordResult{Success: true, Data: row.Clone()})
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

func (c *Client) DeleteRecord(ctx context.Context, entity string, req store.DeleteRequest) (store.MutationResponse, error) {
	if err := ctx.Err(); err != nil {
		return store.MutationResponse{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg, ok := c.failure(entity); ok {
		return store.MutationResponse{Success: false, Message: msg}, nil
	}

	t := c.table(entity)
	results := make([]store.RecordResult, 0, len(req.RecordIds))
	for _, id := range req.RecordIds {
		i, row := t.find(id)
		if row == nil {
			results = append(results, store.RecordResult{Success: false, Message: "record not found"})
			continue
		}
		t.rows = append(t.rows[:i], t.rows[i+1:]...)
		results = append(results, store.RecordResult{Success: true})
	}
	return store.MutationResponse{Success: true, Results: results}, nil
}

// project copies Id and the requested fields of row. Fields the row does
// not have are left out.
func project(row store.Record, q *store.Query) store.Record {
	out := store.Record{store.FieldID: row[store.FieldID]}
	for _, name := range q.FieldNames() {
		if v, ok := row[name]; ok {
			out[name] = v
		}
	}
	return out
}

func page(rows []store.Record, p *store.PagingInfo) []store.Record {
	if p == nil {
		return rows
	}
	if p.Offset > 0 {
		if p.Offset >= len(rows) {
			return nil
		}
		rows = rows[p.Offset:]
	}
	limit := p.Limit
	if p.Offset > 0 && limit < 1 {
		limit = store.DEFAULT_PAGINATION_LIMIT
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func matches(row store.Record, q *store.Query) (bool, error) {
	for _, w := range q.Where {
		ok, err := evaluate(row, w.FieldName, w.Operator, w.Values)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, g := range q.WhereGroups {
		ok, err := evaluateGroup(row, g)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func evaluateGroup(row store.Record, g store.WhereGroup) (bool, error) {
	or := strings.EqualFold(g.Operator, store.LogicOR)

	var results []bool
	for _, c := range g.Conditions {
		ok, err := evaluate(row, c.FieldName, c.Operator, c.Values)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}
	for _, sub := range g.SubGroups {
		ok, err := evaluateGroup(row, sub)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}
	if len(results) == 0 {
		return true, nil
	}

	for _, ok := range results {
		if or && ok {
			return true, nil
		}
		if !or && !ok {
			return false, nil
		}
	}
	return !or, nil
}

func evaluate(row store.Record, field, operator string, values []interface{}) (bool, error) {
	v := row[field]

	switch operator {
	case store.OpHasValue:
		return store.IsTruthy(v), nil
	case store.OpEqualTo:
		return anyOf(values, func(x interface{}) bool { return compare(v, x) == 0 }), nil
	case store.OpNotEqualTo:
		return !anyOf(values, func(x interface{}) bool { return compare(v, x) == 0 }), nil
	case store.OpContains:
		return anyOf(values, func(x interface{}) bool { return strings.Contains(fold(v), fold(x)) }), nil
	case store.OpDoesNotContain:
		return !anyOf(values, func(x interface{}) bool { return strings.Contains(fold(v), fold(x)) }), nil
	case store.OpStartsWith:
		return anyOf(values, func(x interface{}) bool { return strings.HasPrefix(fold(v), fold(x)) }), nil
	}

	if !store.KnownOperator(operator) {
		return false, store.WrapErrorWithFields(store.ErrUnsupportedOperator, "FETCH", "", map[string]interface{}{"operator": operator})
	}
	if len(values) == 0 || v == nil {
		return false, nil
	}
	cmp := compare(v, values[0])
	switch operator {
	case store.OpGreaterThan:
		return cmp > 0, nil
	case store.OpGreaterThanOrEqualTo:
		return cmp >= 0, nil
	case store.OpLessThan:
		return cmp < 0, nil
	}
	return cmp <= 0, nil
}

func anyOf(values []interface{}, pred func(interface{}) bool) bool {
	for _, x := range values {
		if pred(x) {
			return true
		}
	}
	return false
}

func fold(v interface{}) string {
	return strings.ToLower(text(v))
}

func text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

// compare orders numbers numerically and everything else as text, so ISO
// timestamps sort chronologically.
func compare(a, b interface{}) int {
	if da, ok := number(a); ok {
		if db, ok := number(b); ok {
			return da.Cmp(db)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(text(a), text(b))
}

func number(v interface{}) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case int, int32, int64, float32, float64, json.Number, decimal.Decimal:
		return store.ToDecimal(t), true
	}
	return decimal.Decimal{}, false
}
