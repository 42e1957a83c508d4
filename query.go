package pgq

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type queryVariant int

const (
	qSelect queryVariant = iota
	qInsert
	qUpdate
	qDelete
)

func (v queryVariant) String() string {
	switch v {
	case qSelect:
		return "SELECT"
	case qInsert:
		return "INSERT"
	case qUpdate:
		return "UPDATE"
	case qDelete:
		return "DELETE"
	default:
		return "unknown statement"
	}
}

type joinClause struct {
	kind  string
	table Node
	using []string
	on    Node
}

type orderClause struct {
	expr  Node
	dir   string
	nulls string
}

type assignment struct {
	col string
	val Node
}

// Query is a single statement under construction. The fluent methods mutate
// the receiver and return it, so calls chain. The first defective call is
// recorded and reported by Compile.
type Query struct {
	predications
	variant queryVariant
	err     error

	distinct    bool
	fields      []Node
	from        []Node
	joins       []joinClause
	where       []Node
	groupBy     []Node
	having      []Node
	orderBy     []orderClause
	offset      *int
	limit       *int
	table       Node
	insertCols  []string
	insertRows  [][]Node
	assignments []assignment
	returning   []Node
}

// Select starts a SELECT statement. Each field may be a column name, a list
// of fields, an alias mapping, or a node. With no fields the statement
// selects *.
func Select(fields ...any) *Query {
	q := &Query{variant: qSelect}
	q.self = q
	for _, f := range fields {
		q.addField(f)
	}
	return q
}

// Insert starts an INSERT statement. The target table may be given here or
// later with Into.
func Insert(table ...string) *Query {
	q := &Query{variant: qInsert}
	q.self = q
	if len(table) > 0 {
		q.table = Col(table[0])
	}
	return q
}

// Update starts an UPDATE statement on the given table.
func Update(table string) *Query {
	q := &Query{variant: qUpdate}
	q.self = q
	q.table = Col(table)
	return q
}

// Delete starts a DELETE statement.
func Delete() *Query {
	q := &Query{variant: qDelete}
	q.self = q
	return q
}

func (q *Query) setErr(err error) {
	if q.err == nil {
		q.err = err
	}
}

// require records a shape error unless the statement is one of the given
// variants.
func (q *Query) require(method string, variants ...queryVariant) bool {
	for _, v := range variants {
		if q.variant == v {
			return true
		}
	}
	q.setErr(errors.Wrapf(ErrQueryShape, "%s is not allowed on %s", method, q.variant))
	return false
}

func (q *Query) addField(f any) {
	switch v := f.(type) {
	case Node:
		q.fields = append(q.fields, v)
	case string:
		q.fields = append(q.fields, Col(v))
	case []string:
		for _, s := range v {
			q.addField(s)
		}
	case []any:
		for _, x := range v {
			q.addField(x)
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			switch fv := v[k].(type) {
			case bool:
				if !fv {
					q.setErr(errors.Wrapf(ErrQueryShape, "field mapping %q: false has no meaning", k))
					continue
				}
				q.fields = append(q.fields, Col(k))
			case string:
				q.fields = append(q.fields, Col(fv).As(k))
			case Node:
				q.fields = append(q.fields, fv.As(k))
			default:
				q.fields = append(q.fields, Val(v[k]).As(k))
			}
		}
	default:
		q.setErr(errors.Wrapf(ErrQueryShape, "unsupported select field %T", f))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Distinct sets the DISTINCT flag; with arguments it also sets the field
// list.
func (q *Query) Distinct(fields ...any) *Query {
	if !q.require("DISTINCT", qSelect) {
		return q
	}
	q.distinct = true
	for _, f := range fields {
		q.addField(f)
	}
	return q
}

// Field appends one projection field.
func (q *Query) Field(f any) *Query {
	if !q.require("FIELD", qSelect) {
		return q
	}
	q.addField(f)
	return q
}

// From appends tables or subqueries to the from list. Two or more entries
// compose as CROSS JOIN.
func (q *Query) From(tables ...any) *Query {
	if !q.require("FROM", qSelect, qDelete) {
		return q
	}
	for _, t := range tables {
		q.from = append(q.from, exprOf(t))
	}
	return q
}

// Into names the target table of an INSERT.
func (q *Query) Into(table string) *Query {
	if !q.require("INTO", qInsert) {
		return q
	}
	q.table = Col(table)
	return q
}

// Where appends a condition. Accepted shapes: an expression node, a mapping
// of columns to values (ANDed equality), (column, value) meaning equality,
// or (column, operator, value). Repeated calls AND together.
func (q *Query) Where(args ...any) *Query {
	if !q.require("WHERE", qSelect, qUpdate, qDelete) {
		return q
	}
	q.where = q.appendCondition(q.where, "WHERE", args)
	return q
}

// Having appends a HAVING condition using the same shapes as Where.
func (q *Query) Having(args ...any) *Query {
	if !q.require("HAVING", qSelect) {
		return q
	}
	q.having = q.appendCondition(q.having, "HAVING", args)
	return q
}

func (q *Query) appendCondition(conds []Node, clause string, args []any) []Node {
	switch len(args) {
	case 1:
		switch v := args[0].(type) {
		case Node:
			return append(conds, v)
		case map[string]any:
			for _, k := range sortedKeys(v) {
				conds = append(conds, Op(Col(k), "=", v[k]))
			}
			return conds
		}
	case 2:
		return append(conds, Op(exprOf(args[0]), "=", args[1]))
	case 3:
		if op, ok := args[1].(string); ok {
			return append(conds, Op(exprOf(args[0]), op, args[2]))
		}
	}
	q.setErr(errors.Wrapf(ErrQueryShape, "ambiguous %s shape with %d arguments", clause, len(args)))
	return conds
}

// GroupBy appends grouping expressions.
func (q *Query) GroupBy(exprs ...any) *Query {
	if !q.require("GROUP BY", qSelect) {
		return q
	}
	for _, e := range exprs {
		q.groupBy = append(q.groupBy, exprOf(e))
	}
	return q
}

// OrderBy appends an ordering term. The optional trailing arguments are a
// direction (ASC or DESC) and a nulls placement (NULLS FIRST or NULLS LAST).
func (q *Query) OrderBy(expr any, rest ...string) *Query {
	if !q.require("ORDER BY", qSelect) {
		return q
	}
	o, err := newOrderClause(expr, rest)
	if err != nil {
		q.setErr(err)
		return q
	}
	q.orderBy = append(q.orderBy, o)
	return q
}

func newOrderClause(expr any, rest []string) (orderClause, error) {
	o := orderClause{expr: exprOf(expr)}
	if len(rest) > 2 {
		return o, errors.Wrap(ErrQueryShape, "too many ORDER BY arguments")
	}
	if len(rest) > 0 {
		switch strings.ToUpper(rest[0]) {
		case "ASC", "DESC":
			o.dir = strings.ToUpper(rest[0])
		default:
			return o, errors.Wrapf(ErrQueryShape, "bad ORDER BY direction %q", rest[0])
		}
	}
	if len(rest) > 1 {
		switch strings.ToUpper(rest[1]) {
		case "NULLS FIRST", "FIRST":
			o.nulls = "NULLS FIRST"
		case "NULLS LAST", "LAST":
			o.nulls = "NULLS LAST"
		default:
			return o, errors.Wrapf(ErrQueryShape, "bad ORDER BY nulls placement %q", rest[1])
		}
	}
	return o, nil
}

// Offset sets the OFFSET clause.
func (q *Query) Offset(n int) *Query {
	if !q.require("OFFSET", qSelect) {
		return q
	}
	q.offset = &n
	return q
}

// Limit sets the LIMIT clause.
func (q *Query) Limit(n int) *Query {
	if !q.require("LIMIT", qSelect) {
		return q
	}
	q.limit = &n
	return q
}

// CrossJoin appends a CROSS JOIN.
func (q *Query) CrossJoin(table any) *Query {
	return q.join("CROSS JOIN", table, nil)
}

// InnerJoin appends an INNER JOIN. The condition is either a list of shared
// column names (USING) or an expression node (ON).
func (q *Query) InnerJoin(table, cond any) *Query {
	return q.join("INNER JOIN", table, cond)
}

// LeftJoin appends a LEFT OUTER JOIN.
func (q *Query) LeftJoin(table, cond any) *Query {
	return q.join("LEFT OUTER JOIN", table, cond)
}

// RightJoin appends a RIGHT OUTER JOIN.
func (q *Query) RightJoin(table, cond any) *Query {
	return q.join("RIGHT OUTER JOIN", table, cond)
}

func (q *Query) join(kind string, table, cond any) *Query {
	if !q.require(kind, qSelect) {
		return q
	}
	j := joinClause{kind: kind, table: exprOf(table)}
	switch c := cond.(type) {
	case nil:
	case string:
		j.using = []string{c}
	case []string:
		j.using = c
	case Node:
		j.on = c
	default:
		q.setErr(errors.Wrapf(ErrQueryShape, "unsupported %s condition %T", kind, cond))
		return q
	}
	q.joins = append(q.joins, j)
	return q
}

// Values supplies data for the statement. For INSERT the argument is a row
// mapping or a list of row mappings sharing the same columns; for UPDATE it
// is a mapping of columns to values or expression nodes.
func (q *Query) Values(v any) *Query {
	switch q.variant {
	case qInsert:
		q.addInsertRows(v)
	case qUpdate:
		q.addAssignments(v)
	default:
		q.setErr(errors.Wrapf(ErrQueryShape, "VALUES is not allowed on %s", q.variant))
	}
	return q
}

func (q *Query) addInsertRows(v any) {
	switch rows := v.(type) {
	case map[string]any:
		q.addInsertRow(rows)
	case []map[string]any:
		for _, r := range rows {
			q.addInsertRow(r)
		}
	default:
		q.setErr(errors.Wrapf(ErrQueryShape, "unsupported INSERT values %T", v))
	}
}

func (q *Query) addInsertRow(row map[string]any) {
	keys := sortedKeys(row)
	if q.insertCols == nil {
		q.insertCols = keys
	} else if !equalStrings(q.insertCols, keys) {
		q.setErr(errors.Wrap(ErrQueryShape, "INSERT rows with mismatched columns"))
		return
	}
	vals := make([]Node, len(keys))
	for i, k := range keys {
		if n, ok := row[k].(Node); ok {
			vals[i] = n
		} else {
			vals[i] = Val(row[k])
		}
	}
	q.insertRows = append(q.insertRows, vals)
}

func (q *Query) addAssignments(v any) {
	m, ok := v.(map[string]any)
	if !ok {
		q.setErr(errors.Wrapf(ErrQueryShape, "unsupported UPDATE values %T", v))
		return
	}
	for _, k := range sortedKeys(m) {
		a := assignment{col: k}
		if n, ok := m[k].(Node); ok {
			a.val = n
		} else {
			a.val = Val(m[k])
		}
		q.assignments = append(q.assignments, a)
	}
}

// Returning appends RETURNING columns.
func (q *Query) Returning(cols ...any) *Query {
	if !q.require("RETURNING", qInsert, qUpdate, qDelete) {
		return q
	}
	for _, c := range cols {
		q.returning = append(q.returning, exprOf(c))
	}
	return q
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
