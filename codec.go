package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DecodeKind separates the two ways an encoded field can be unusable.
type DecodeKind string

const (
	// DecodeMalformed means the wire string is not valid JSON.
	DecodeMalformed DecodeKind = "malformed-json"
	// DecodeShape means the JSON parsed but is not the expected structure,
	// e.g. an object where an array was stored.
	DecodeShape DecodeKind = "wrong-shape"
)

// DecodeError reports an encoded field that could not be turned back into
// its structure.
type DecodeError struct {
	Entity string
	Field  string
	Kind   DecodeKind
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("decode %s.%s: %s: %v", e.Entity, e.Field, e.Kind, e.Err)
	}
	return fmt.Sprintf("decode %s: %s: %v", e.Field, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ForEntity stamps entity on a DecodeError and returns err.
func ForEntity(entity string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Entity == "" {
		de.Entity = entity
	}
	return err
}

// IsMalformed reports whether err is a DecodeError of kind DecodeMalformed.
func IsMalformed(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == DecodeMalformed
}

// IsWrongShape reports whether err is a DecodeError of kind DecodeShape.
func IsWrongShape(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == DecodeShape
}

// wireBytes returns the raw JSON text of an encoded field. Drivers may hand
// the text back as []byte; a JSON-native backend may already have parsed it.
func wireBytes(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case json.RawMessage:
		return t, nil
	}
	return json.Marshal(v)
}

// DecodeJSONArray decodes an array-typed JSON field of rec into out (a
// pointer to a slice). An absent or falsy field yields an empty slice.
func DecodeJSONArray(rec Record, field string, out interface{}) error {
	return decodeJSONField(rec, field, '[', "[]", out)
}

// DecodeJSONObject decodes an object-typed JSON field of rec into out (a
// pointer to a map or struct). An absent or falsy field yields {}.
func DecodeJSONObject(rec Record, field string, out interface{}) error {
	return decodeJSONField(rec, field, '{', "{}", out)
}

func decodeJSONField(rec Record, field string, open byte, empty string, out interface{}) error {
	raw := rec[field]
	if !IsTruthy(raw) {
		return json.Unmarshal([]byte(empty), out)
	}

	b, err := wireBytes(raw)
	if err != nil {
		return &DecodeError{Field: field, Kind: DecodeShape, Err: err}
	}
	if !json.Valid(b) {
		// run the decoder for its positioned syntax error
		var probe interface{}
		err := json.Unmarshal(b, &probe)
		if err == nil {
			err = fmt.Errorf("invalid JSON")
		}
		return &DecodeError{Field: field, Kind: DecodeMalformed, Err: err}
	}

	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		return json.Unmarshal([]byte(empty), out)
	}
	if len(trimmed) == 0 || trimmed[0] != open {
		return &DecodeError{Field: field, Kind: DecodeShape, Err: fmt.Errorf("expected %s, got %s", shapeName(open), jsonKind(trimmed))}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &DecodeError{Field: field, Kind: DecodeShape, Err: err}
	}
	return nil
}

func shapeName(open byte) string {
	if open == '[' {
		return "array"
	}
	return "object"
}

func jsonKind(b []byte) string {
	if len(b) == 0 {
		return "nothing"
	}
	switch b[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	}
	return "number"
}

// SplitLines decodes a newline-joined list field, dropping empty entries.
// An absent or falsy field yields an empty slice, never nil.
func SplitLines(v interface{}) []string {
	out := []string{}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case []string:
		for _, p := range t {
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	case []interface{}:
		for _, p := range t {
			if ps, ok := p.(string); ok && ps != "" {
				out = append(out, ps)
			}
		}
		return out
	default:
		return out
	}
	for _, p := range strings.Split(s, "\n") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinLines encodes a list field. A string is taken as already joined and
// passed through unchanged.
func JoinLines(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "\n")
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "\n")
	}
	return fmt.Sprint(v)
}

// EncodeJSON encodes a structured field. A string is taken as already
// encoded and passed through unchanged.
func EncodeJSON(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case json.RawMessage:
		return string(t), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// TimestampLayout is the ISO-8601 form timestamps are written in.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var timestampInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 and the common database renderings of a
// timestamp, including a bare date.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampInputs {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// TimestampValue reads a timestamp field that may be a string or, from a
// SQL driver, already a time.Time. Unparseable or absent values are zero.
func TimestampValue(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if ts, err := ParseTimestamp(t); err == nil {
			return ts
		}
	case []byte:
		if ts, err := ParseTimestamp(string(t)); err == nil {
			return ts
		}
	}
	return time.Time{}
}
