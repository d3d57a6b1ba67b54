package store

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParameterizedSQL is a statement with "?" placeholders and its arguments.
// The SQL-backed clients render descriptors into these.
type ParameterizedSQL struct {
	Query  string        `json:"query"`
	Values []interface{} `json:"values,omitempty"`
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier rejects anything that is not a plain table or column
// name. Identifiers are interpolated into SQL, values never are.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return WrapErrorWithFields(ErrInvalidIdentifier, "VALIDATE", "", map[string]interface{}{"identifier": name})
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// ToSelectSQL renders a fetch descriptor as a SELECT statement.
// Usage:
//
//	ps, err := store.ToSelectSQL("product_c", store.BuildSearchQuery("product_c", fields, "phone", "name_c", "brand_c"))
//
// Output:
//
//	SELECT "Id", "name_c", ... FROM "product_c" WHERE ((("name_c" LIKE ? ESCAPE '\')) OR (("brand_c" LIKE ? ESCAPE '\')))
//	values: ["%phone%", "%phone%"]
func ToSelectSQL(entity string, q *Query) (ParameterizedSQL, error) {
	if err := ValidateIdentifier(entity); err != nil {
		return ParameterizedSQL{}, err
	}
	if q == nil {
		q = &Query{}
	}

	cols, err := projection(q)
	if err != nil {
		return ParameterizedSQL{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(entity))

	where, args, err := renderFilters(q)
	if err != nil {
		return ParameterizedSQL{}, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if len(q.OrderBy) > 0 {
		parts := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			if err := ValidateIdentifier(o.FieldName); err != nil {
				return ParameterizedSQL{}, err
			}
			dir := SortAsc
			if strings.EqualFold(o.SortType, SortDesc) {
				dir = SortDesc
			}
			parts = append(parts, quoteIdent(o.FieldName)+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if p := q.PagingInfo; p != nil {
		limit := p.Limit
		if p.Offset > 0 && limit < 1 {
			limit = DEFAULT_PAGINATION_LIMIT
		}
		if limit > 0 {
			sb.WriteString(" LIMIT " + strconv.Itoa(limit))
			if p.Offset > 0 {
				sb.WriteString(" OFFSET " + strconv.Itoa(p.Offset))
			}
		}
	}

	return ParameterizedSQL{Query: sb.String(), Values: args}, nil
}

// ToSelectByIDSQL renders a get-by-id call. Only the projection of q is used.
func ToSelectByIDSQL(entity string, id int, q *Query) (ParameterizedSQL, error) {
	if err := ValidateIdentifier(entity); err != nil {
		return ParameterizedSQL{}, err
	}
	if q == nil {
		q = &Query{}
	}
	cols, err := projection(q)
	if err != nil {
		return ParameterizedSQL{}, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		strings.Join(cols, ", "), quoteIdent(entity), quoteIdent(FieldID))
	return ParameterizedSQL{Query: query, Values: []interface{}{id}}, nil
}

// ToSelectRowSQL selects every column of one row. The SQL clients use it to
// hand back the stored record after a write.
func ToSelectRowSQL(entity string, id int) (ParameterizedSQL, error) {
	if err := ValidateIdentifier(entity); err != nil {
		return ParameterizedSQL{}, err
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", quoteIdent(entity), quoteIdent(FieldID))
	return ParameterizedSQL{Query: query, Values: []interface{}{id}}, nil
}

// ToInsertSQL renders one create payload. The primary key is never inserted,
// the database assigns it.
func ToInsertSQL(entity string, rec Record) (ParameterizedSQL, error) {
	if err := ValidateIdentifier(entity); err != nil {
		return ParameterizedSQL{}, err
	}
	keys := SortedKeys(rec)
	columns := make([]string, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	values := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		if k == FieldID {
			continue
		}
		if err := ValidateIdentifier(k); err != nil {
			return ParameterizedSQL{}, err
		}
		columns = append(columns, quoteIdent(k))
		placeholders = append(placeholders, "?")
		values = append(values, rec[k])
	}
	if len(columns) == 0 {
		return ParameterizedSQL{Query: fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quoteIdent(entity))}, nil
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(entity), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return ParameterizedSQL{Query: query, Values: values}, nil
}

// ToUpdateSQL renders one update payload: every field except Id goes into
// SET, Id goes into WHERE. A payload with only Id has nothing to change and
// is rejected.
func ToUpdateSQL(entity string, rec Record) (ParameterizedSQL, error) {
	if err := ValidateIdentifier(entity); err != nil {
		return ParameterizedSQL{}, err
	}
	if !rec.Has(FieldID) {
		return ParameterizedSQL{}, WrapUpdateError(ErrMissingID, entity)
	}
	keys := SortedKeys(rec)
	sets := make([]string, 0, len(keys))
	values := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		if k == FieldID {
			continue
		}
		if err := ValidateIdentifier(k); err != nil {
			return ParameterizedSQL{}, err
		}
		sets = append(sets, quoteIdent(k)+" = ?")
		values = append(values, rec[k])
	}
	if len(sets) == 0 {
		return ParameterizedSQL{}, WrapUpdateError(ErrEmptyPayload, entity)
	}
	values = append(values, rec.GetInt(FieldID))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quoteIdent(entity), strings.Join(sets, ", "), quoteIdent(FieldID))
	return ParameterizedSQL{Query: query, Values: values}, nil
}

// ToDeleteSQL renders a delete of the given ids.
func ToDeleteSQL(entity string, ids []int) (ParameterizedSQL, error) {
	if err := ValidateIdentifier(entity); err != nil {
		return ParameterizedSQL{}, err
	}
	if len(ids) == 0 {
		return ParameterizedSQL{}, WrapDeleteError(ErrMissingID, entity)
	}
	placeholders := make([]string, len(ids))
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		values[i] = id
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
		quoteIdent(entity), quoteIdent(FieldID), strings.Join(placeholders, ", "))
	return ParameterizedSQL{Query: query, Values: values}, nil
}

// projection always leads with the primary key and drops duplicates.
func projection(q *Query) ([]string, error) {
	cols := []string{quoteIdent(FieldID)}
	seen := map[string]bool{FieldID: true}
	for _, name := range q.FieldNames() {
		if seen[name] {
			continue
		}
		if err := ValidateIdentifier(name); err != nil {
			return nil, err
		}
		seen[name] = true
		cols = append(cols, quoteIdent(name))
	}
	return cols, nil
}

// renderFilters combines the top-level Where entries and the WhereGroups
// with AND, the way the backend evaluates them.
func renderFilters(q *Query) (string, []interface{}, error) {
	var clauses []string
	var args []interface{}

	for _, w := range q.Where {
		clause, a, err := renderCondition(w.FieldName, w.Operator, w.Values)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, "("+clause+")")
		args = append(args, a...)
	}
	for _, g := range q.WhereGroups {
		clause, a, err := renderGroup(g)
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			continue
		}
		clauses = append(clauses, "("+clause+")")
		args = append(args, a...)
	}

	return strings.Join(clauses, " AND "), args, nil
}

func renderGroup(g WhereGroup) (string, []interface{}, error) {
	logic := LogicAND
	if strings.EqualFold(g.Operator, LogicOR) {
		logic = LogicOR
	}

	var parts []string
	var args []interface{}
	for _, c := range g.Conditions {
		clause, a, err := renderCondition(c.FieldName, c.Operator, c.Values)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+clause+")")
		args = append(args, a...)
	}
	for _, sub := range g.SubGroups {
		clause, a, err := renderGroup(sub)
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			continue
		}
		parts = append(parts, "("+clause+")")
		args = append(args, a...)
	}
	return strings.Join(parts, " "+logic+" "), args, nil
}

func renderCondition(field, operator string, values []interface{}) (string, []interface{}, error) {
	if err := ValidateIdentifier(field); err != nil {
		return "", nil, err
	}
	col := quoteIdent(field)

	if operator == OpHasValue {
		return col + " IS NOT NULL", nil, nil
	}
	if len(values) == 0 {
		return "", nil, WrapErrorWithFields(ErrMissingConditionValue, "QUERY", "", map[string]interface{}{"field": field})
	}

	switch operator {
	case OpEqualTo, OpNotEqualTo:
		op, list := "=", "IN"
		if operator == OpNotEqualTo {
			op, list = "<>", "NOT IN"
		}
		if len(values) == 1 {
			return col + " " + op + " ?", values, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		return col + " " + list + " (" + placeholders + ")", values, nil
	case OpGreaterThan:
		return col + " > ?", values[:1], nil
	case OpGreaterThanOrEqualTo:
		return col + " >= ?", values[:1], nil
	case OpLessThan:
		return col + " < ?", values[:1], nil
	case OpLessThanOrEqualTo:
		return col + " <= ?", values[:1], nil
	case OpContains, OpDoesNotContain, OpStartsWith:
		like, join := "LIKE", " OR "
		if operator == OpDoesNotContain {
			like, join = "NOT LIKE", " AND "
		}
		parts := make([]string, 0, len(values))
		args := make([]interface{}, 0, len(values))
		for _, v := range values {
			pattern := "%" + EscapeLike(fmt.Sprint(v)) + "%"
			if operator == OpStartsWith {
				pattern = EscapeLike(fmt.Sprint(v)) + "%"
			}
			parts = append(parts, col+" "+like+" ? ESCAPE '\\'")
			args = append(args, pattern)
		}
		return strings.Join(parts, join), args, nil
	}
	return "", nil, WrapErrorWithFields(ErrUnsupportedOperator, "QUERY", "", map[string]interface{}{"operator": operator})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match itself literally inside a LIKE pattern rendered
// with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Postgres rewrites "?" placeholders to $1, $2, ... leaving quoted text alone.
func Postgres(ps ParameterizedSQL) ParameterizedSQL {
	var sb strings.Builder
	n := 1
	var quote byte
	for i := 0; i < len(ps.Query); i++ {
		ch := ps.Query[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			sb.WriteByte(ch)
		case ch == '\'' || ch == '"':
			quote = ch
			sb.WriteByte(ch)
		case ch == '?':
			sb.WriteString("$" + strconv.Itoa(n))
			n++
		default:
			sb.WriteByte(ch)
		}
	}
	return ParameterizedSQL{Query: sb.String(), Values: ps.Values}
}
