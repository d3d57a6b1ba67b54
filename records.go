package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one row as the backend sends it: field name to raw value.
// Numbers arrive as float64 from JSON, int64 or []byte from SQL drivers, so
// the accessors below are lenient about the concrete type.
type Record map[string]interface{}

type Records []Record

// Append adds a new Record to the Records slice.
func (r *Records) Append(rec Record) {
	*r = append(*r, rec)
}

// Has reports whether the field is present and not nil.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// Truthy mirrors the loose truth test the encoded fields are checked with:
// nil, "", false, 0 and NaN are false, everything else is true.
func (r Record) Truthy(field string) bool {
	return IsTruthy(r[field])
}

// IsTruthy is the value form of Record.Truthy.
func IsTruthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []byte:
		return len(t) > 0
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	}
	return true
}

// GetString returns the field as a string, "" when absent.
func (r Record) GetString(field string) string {
	switch t := r[field].(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// GetInt returns the field as an int, 0 when absent or not numeric.
func (r Record) GetInt(field string) int {
	return ToInt(r[field])
}

// GetFloat returns the field as a float64, 0 when absent or not numeric.
func (r Record) GetFloat(field string) float64 {
	return ToFloat(r[field])
}

// GetDecimal returns the field as a decimal, zero when absent or not numeric.
func (r Record) GetDecimal(field string) decimal.Decimal {
	return ToDecimal(r[field])
}

// GetBool returns the field as a bool. SQL backends hand booleans back as 0/1.
func (r Record) GetBool(field string) bool {
	switch t := r[field].(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case []byte:
		b, err := strconv.ParseBool(strings.TrimSpace(string(t)))
		return err == nil && b
	case nil:
		return false
	}
	return ToFloat(r[field]) != 0
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// FetchResponse is the envelope of a list call.
type FetchResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    []Record `json:"data,omitempty"`
	Total   int      `json:"total,omitempty"`
}

// RecordResponse is the envelope of a get-by-id call. Data is nil when the
// backend found nothing.
type RecordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    Record `json:"data,omitempty"`
}

// MutationRequest carries the payloads of a create or update call.
type MutationRequest struct {
	Records []Record `json:"records"`
}

// DeleteRequest names the records a delete call removes.
type DeleteRequest struct {
	RecordIds []int `json:"RecordIds"`
}

// RecordResult is the per-record outcome inside a mutation response.
type RecordResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    Record `json:"data,omitempty"`
}

// MutationResponse is the envelope of create, update and delete calls. The
// call may succeed overall while individual results report failure.
type MutationResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Results []RecordResult `json:"results,omitempty"`
}

// First returns the first per-record result, if any.
func (m MutationResponse) First() (RecordResult, bool) {
	if len(m.Results) == 0 {
		return RecordResult{}, false
	}
	return m.Results[0], true
}
