package store

// Operators understood in Where and WhereGroup conditions.
const (
	OpEqualTo              = "EqualTo"
	OpNotEqualTo           = "NotEqualTo"
	OpContains             = "Contains"
	OpDoesNotContain       = "DoesNotContain"
	OpStartsWith           = "StartsWith"
	OpGreaterThan          = "GreaterThan"
	OpGreaterThanOrEqualTo = "GreaterThanOrEqualTo"
	OpLessThan             = "LessThan"
	OpLessThanOrEqualTo    = "LessThanOrEqualTo"
	OpHasValue             = "HasValue"

	LogicOR  = "OR"
	LogicAND = "AND"

	SortAsc  = "ASC"
	SortDesc = "DESC"

	DEFAULT_PAGINATION_LIMIT = 50
)

// KnownOperator reports whether op is one of the Op* constants.
func KnownOperator(op string) bool {
	switch op {
	case OpEqualTo, OpNotEqualTo, OpContains, OpDoesNotContain, OpStartsWith,
		OpGreaterThan, OpGreaterThanOrEqualTo, OpLessThan, OpLessThanOrEqualTo, OpHasValue:
		return true
	}
	return false
}

// Query is the request descriptor sent along with fetch and get-by-id calls.
// The JSON shape is the backend's wire format, so the odd capitalisation of
// the tags is on purpose.
//
//	q := store.BuildListQuery("product_c", []string{"name_c", "price_c"}).
//	  WhereEqual("category_c", "Phones").
//	  Sort("price_c", store.SortAsc).
//	  Page(20, 0)
//	// Output:
//	// {"fields":[{"field":{"Name":"name_c"}},{"field":{"Name":"price_c"}}],
//	//  "where":[{"FieldName":"category_c","Operator":"EqualTo","Values":["Phones"]}],
//	//  "orderBy":[{"fieldName":"price_c","sorttype":"ASC"}],
//	//  "pagingInfo":{"limit":20,"offset":0}}
type Query struct {
	// Entity is the table the descriptor was built for. It travels next to
	// the descriptor (as the entity argument of the Client), not inside it.
	Entity      string       `json:"-"`
	Fields      []FieldRef   `json:"fields"`
	Where       []Where      `json:"where,omitempty"`
	WhereGroups []WhereGroup `json:"whereGroups,omitempty"`
	OrderBy     []OrderBy    `json:"orderBy,omitempty"`
	PagingInfo  *PagingInfo  `json:"pagingInfo,omitempty"`
}

// FieldRef is one entry of the explicit field projection.
type FieldRef struct {
	Field FieldName `json:"field"`
}

type FieldName struct {
	Name string `json:"Name"`
}

// Where is a top-level condition. Multiple Where entries are AND-ed by the
// backend; multiple Values inside one entry are alternatives.
type Where struct {
	FieldName string        `json:"FieldName"`
	Operator  string        `json:"Operator"`
	Values    []interface{} `json:"Values"`
}

// WhereGroup nests conditions under a boolean operator. A group either holds
// conditions directly or sub-groups; sub-groups without an operator are
// AND-ed internally.
//
//	// (name_c contains "phone") OR (brand_c contains "phone")
//	WhereGroup{
//	  Operator: "OR",
//	  SubGroups: []WhereGroup{
//	    {Conditions: []GroupCondition{{FieldName: "name_c", Operator: "Contains", Values: []interface{}{"phone"}}}},
//	    {Conditions: []GroupCondition{{FieldName: "brand_c", Operator: "Contains", Values: []interface{}{"phone"}}}},
//	  },
//	}
type WhereGroup struct {
	Operator   string           `json:"operator,omitempty"`
	SubGroups  []WhereGroup     `json:"subGroups,omitempty"`
	Conditions []GroupCondition `json:"conditions,omitempty"`
}

// GroupCondition is a condition inside a WhereGroup. Same meaning as Where,
// different wire casing.
type GroupCondition struct {
	FieldName string        `json:"fieldName"`
	Operator  string        `json:"operator"`
	Values    []interface{} `json:"values"`
}

type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

type PagingInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FieldNames returns the projected field names in order.
func (q *Query) FieldNames() []string {
	if q == nil {
		return nil
	}
	names := make([]string, 0, len(q.Fields))
	for _, f := range q.Fields {
		names = append(names, f.Field.Name)
	}
	return names
}

// BuildListQuery returns a descriptor for entity projecting exactly the given
// fields. There is no implicit "all fields" fetch: an empty list projects
// nothing besides the primary key.
func BuildListQuery(entity string, fields []string) *Query {
	q := &Query{Entity: entity, Fields: make([]FieldRef, 0, len(fields))}
	for _, f := range fields {
		q.Fields = append(q.Fields, FieldRef{Field: FieldName{Name: f}})
	}
	return q
}

// BuildFilterQuery is BuildListQuery restricted by one condition on one field.
func BuildFilterQuery(entity string, fields []string, fieldName, operator string, value interface{}) *Query {
	return BuildListQuery(entity, fields).Filter(fieldName, operator, value)
}

// BuildSearchQuery is BuildListQuery restricted to records where any of the
// search fields contains the query string. Each field gets its own
// sub-group holding a single Contains condition, all under one OR group.
// At least one search field is required.
func BuildSearchQuery(entity string, fields []string, query string, searchField string, more ...string) *Query {
	return BuildListQuery(entity, fields).AnyContains(query, searchField, more...)
}

// Filter appends a single-value condition and returns q for chaining.
func (q *Query) Filter(fieldName, operator string, value interface{}) *Query {
	q.Where = append(q.Where, Where{
		FieldName: fieldName,
		Operator:  operator,
		Values:    []interface{}{value},
	})
	return q
}

// WhereEqual is Filter with the EqualTo operator.
func (q *Query) WhereEqual(fieldName string, value interface{}) *Query {
	return q.Filter(fieldName, OpEqualTo, value)
}

// WhereIn matches any of the values.
func (q *Query) WhereIn(fieldName string, values ...interface{}) *Query {
	q.Where = append(q.Where, Where{
		FieldName: fieldName,
		Operator:  OpEqualTo,
		Values:    values,
	})
	return q
}

// AnyContains appends one OR group with a Contains sub-group per field.
func (q *Query) AnyContains(query string, field string, more ...string) *Query {
	fields := append([]string{field}, more...)
	group := WhereGroup{
		Operator:  LogicOR,
		SubGroups: make([]WhereGroup, 0, len(fields)),
	}
	for _, f := range fields {
		group.SubGroups = append(group.SubGroups, WhereGroup{
			Conditions: []GroupCondition{{
				FieldName: f,
				Operator:  OpContains,
				Values:    []interface{}{query},
			}},
		})
	}
	q.WhereGroups = append(q.WhereGroups, group)
	return q
}

// Sort appends an ordering clause. Direction defaults to ascending.
func (q *Query) Sort(fieldName, direction string) *Query {
	if direction != SortDesc {
		direction = SortAsc
	}
	q.OrderBy = append(q.OrderBy, OrderBy{FieldName: fieldName, SortType: direction})
	return q
}

// Page sets paging. An offset without a limit falls back to the default limit.
func (q *Query) Page(limit, offset int) *Query {
	if offset > 0 && limit < 1 {
		limit = DEFAULT_PAGINATION_LIMIT
	}
	q.PagingInfo = &PagingInfo{Limit: limit, Offset: offset}
	return q
}
