package pgq

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Compile renders the statement. Defects recorded by the fluent methods and
// shape errors (missing table, empty assignment list, ...) surface here.
func (q *Query) Compile() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	switch q.variant {
	case qSelect:
		return q.compileSelect()
	case qInsert:
		return q.compileInsert()
	case qUpdate:
		return q.compileUpdate()
	case qDelete:
		return q.compileDelete()
	default:
		return "", errors.Wrapf(ErrQueryShape, "unknown statement variant %d", q.variant)
	}
}

func (q *Query) compileSelect() (string, error) {
	b := strings.Builder{}
	b.WriteString("SELECT")
	if q.distinct {
		b.WriteString(" DISTINCT")
	}
	if len(q.fields) == 0 {
		b.WriteString(" *")
	} else {
		s, err := compileList(q.fields)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + s)
	}
	if len(q.from) > 0 {
		s, err := compileFrom(q.from)
		if err != nil {
			return "", err
		}
		b.WriteString(" FROM " + s)
	}
	for _, j := range q.joins {
		s, err := compileJoin(j)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + s)
	}
	if err := writeConditions(&b, "WHERE", q.where); err != nil {
		return "", err
	}
	if len(q.groupBy) > 0 {
		s, err := compileList(q.groupBy)
		if err != nil {
			return "", err
		}
		b.WriteString(" GROUP BY " + s)
	}
	if err := writeConditions(&b, "HAVING", q.having); err != nil {
		return "", err
	}
	if err := writeOrderBy(&b, q.orderBy); err != nil {
		return "", err
	}
	writeOffsetLimit(&b, q.offset, q.limit)
	return b.String(), nil
}

func (q *Query) compileInsert() (string, error) {
	if q.table == nil {
		return "", errors.Wrap(ErrQueryShape, "INSERT without target table")
	}
	if len(q.insertRows) == 0 {
		return "", errors.Wrap(ErrQueryShape, "INSERT without VALUES")
	}
	table, err := q.table.Compile()
	if err != nil {
		return "", err
	}
	b := strings.Builder{}
	b.WriteString("INSERT INTO " + table + " (")
	for i, c := range q.insertCols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c))
	}
	b.WriteString(") VALUES ")
	for i, row := range q.insertRows {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := compileList(row)
		if err != nil {
			return "", err
		}
		b.WriteString("(" + s + ")")
	}
	if err := writeReturning(&b, q.returning); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (q *Query) compileUpdate() (string, error) {
	if q.table == nil {
		return "", errors.Wrap(ErrQueryShape, "UPDATE without target table")
	}
	if len(q.assignments) == 0 {
		return "", errors.Wrap(ErrQueryShape, "UPDATE with no assignments")
	}
	table, err := q.table.Compile()
	if err != nil {
		return "", err
	}
	b := strings.Builder{}
	b.WriteString("UPDATE " + table + " SET ")
	for i, a := range q.assignments {
		if i > 0 {
			b.WriteString(", ")
		}
		val := stripAlias(a.val)
		v, err := val.Compile()
		if err != nil {
			return "", err
		}
		if isStatement(val) {
			v = "(" + v + ")"
		}
		b.WriteString(quoteIdent(a.col) + " = " + v)
	}
	if err := writeConditions(&b, "WHERE", q.where); err != nil {
		return "", err
	}
	if err := writeReturning(&b, q.returning); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (q *Query) compileDelete() (string, error) {
	if len(q.from) == 0 {
		return "", errors.Wrap(ErrQueryShape, "DELETE without FROM")
	}
	from, err := compileFrom(q.from)
	if err != nil {
		return "", err
	}
	b := strings.Builder{}
	b.WriteString("DELETE FROM " + from)
	if err := writeConditions(&b, "WHERE", q.where); err != nil {
		return "", err
	}
	if err := writeReturning(&b, q.returning); err != nil {
		return "", err
	}
	return b.String(), nil
}

// compileList renders nodes as a comma-separated list, keeping aliases.
func compileList(nodes []Node) (string, error) {
	b := strings.Builder{}
	for i, n := range nodes {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := compileFromItem(n)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// compileFrom renders the from list; multiple entries compose as CROSS JOIN.
func compileFrom(from []Node) (string, error) {
	b := strings.Builder{}
	for i, t := range from {
		if i > 0 {
			b.WriteString(" CROSS JOIN ")
		}
		s, err := compileFromItem(t)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// compileFromItem renders a projection or table entry: subqueries get
// parenthesized, aliases stay.
func compileFromItem(n Node) (string, error) {
	s, err := n.Compile()
	if err != nil {
		return "", err
	}
	if isStatement(n) {
		s = "(" + s + ")"
	}
	return s, nil
}

func compileJoin(j joinClause) (string, error) {
	table, err := compileFromItem(j.table)
	if err != nil {
		return "", err
	}
	b := strings.Builder{}
	b.WriteString(j.kind + " " + table)
	if len(j.using) > 0 {
		b.WriteString(" USING (")
		for i, c := range j.using {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteIdent(c))
		}
		b.WriteString(")")
	}
	if j.on != nil {
		s, err := stripAlias(j.on).Compile()
		if err != nil {
			return "", err
		}
		b.WriteString(" ON " + s)
	}
	return b.String(), nil
}

// writeConditions appends a WHERE or HAVING clause: a single condition emits
// bare, multiple conditions AND together.
func writeConditions(b *strings.Builder, keyword string, conds []Node) error {
	if len(conds) == 0 {
		return nil
	}
	var s string
	var err error
	if len(conds) == 1 {
		s, err = stripAlias(conds[0]).Compile()
		if isStatement(conds[0]) {
			s = "(" + s + ")"
		}
	} else {
		s, err = newGroup("AND", conds).Compile()
	}
	if err != nil {
		return err
	}
	b.WriteString(" " + keyword + " " + s)
	return nil
}

func writeOrderBy(b *strings.Builder, orderBy []orderClause) error {
	if len(orderBy) == 0 {
		return nil
	}
	b.WriteString(" ORDER BY ")
	for i, o := range orderBy {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := stripAlias(o.expr).Compile()
		if err != nil {
			return err
		}
		b.WriteString(s)
		if o.dir != "" {
			b.WriteString(" " + o.dir)
		}
		if o.nulls != "" {
			b.WriteString(" " + o.nulls)
		}
	}
	return nil
}

func writeOffsetLimit(b *strings.Builder, offset, limit *int) {
	if offset != nil {
		b.WriteString(" OFFSET " + strconv.Itoa(*offset))
	}
	if limit != nil {
		b.WriteString(" LIMIT " + strconv.Itoa(*limit))
	}
}

func writeReturning(b *strings.Builder, returning []Node) error {
	if len(returning) == 0 {
		return nil
	}
	s, err := compileList(returning)
	if err != nil {
		return err
	}
	b.WriteString(" RETURNING " + s)
	return nil
}
