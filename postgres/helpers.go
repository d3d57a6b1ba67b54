package postgres

import (
	"database/sql"
	"fmt"
	"time"

	store "github.com/medatechnology/storefront"
)

// scanRecords reads every row into a Record keyed by column name.
func scanRecords(rows *sql.Rows) ([]store.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	records := make([]store.Record, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range columns {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(store.Record, len(columns))
		for i, col := range columns {
			rec[col] = convertValue(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// convertValue turns what lib/pq hands back into the plain values the
// record decoders understand. NUMERIC and TEXT arrive as []byte; they stay
// strings so money keeps its exact digits.
func convertValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case sql.NullString:
		if v.Valid {
			return v.String
		}
		return nil
	case sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
		return nil
	case sql.NullFloat64:
		if v.Valid {
			return v.Float64
		}
		return nil
	case sql.NullBool:
		if v.Valid {
			return v.Bool
		}
		return nil
	case sql.NullTime:
		if v.Valid {
			return v.Time
		}
		return nil
	}
	return value
}

// bindValues prepares payload values for lib/pq, which cannot bind
// json.Number, decimals or nested maps directly.
func bindValues(values []interface{}) ([]interface{}, error) {
	out := make([]interface{}, len(values))
	for i, v := range values {
		switch t := v.(type) {
		case time.Time:
			out[i] = t
		case fmt.Stringer:
			out[i] = t.String()
		case map[string]interface{}, []interface{}:
			s, err := store.EncodeJSON(t)
			if err != nil {
				return nil, err
			}
			out[i] = s
		default:
			out[i] = v
		}
	}
	return out, nil
}
