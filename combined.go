package pgq

import (
	"strings"

	"github.com/pkg/errors"
)

// Combined joins member statements with a set-operation keyword. Members are
// queries or other combined statements; nested combined members are
// parenthesized on emission.
type Combined struct {
	predications
	op      string
	members []Node
	orderBy []orderClause
	offset  *int
	limit   *int
	err     error
}

// Union combines the members with UNION.
func Union(members ...Node) *Combined { return newCombined("UNION", members) }

// UnionAll combines the members with UNION ALL.
func UnionAll(members ...Node) *Combined { return newCombined("UNION ALL", members) }

// Intersect combines the members with INTERSECT.
func Intersect(members ...Node) *Combined { return newCombined("INTERSECT", members) }

// IntersectAll combines the members with INTERSECT ALL.
func IntersectAll(members ...Node) *Combined { return newCombined("INTERSECT ALL", members) }

// Except combines the members with EXCEPT.
func Except(members ...Node) *Combined { return newCombined("EXCEPT", members) }

// ExceptAll combines the members with EXCEPT ALL.
func ExceptAll(members ...Node) *Combined { return newCombined("EXCEPT ALL", members) }

func newCombined(op string, members []Node) *Combined {
	c := &Combined{op: op, members: members}
	c.self = c
	for _, m := range members {
		if !isStatement(m) {
			c.err = errors.Wrapf(ErrQueryShape, "%s member must be a statement, got %T", op, m)
			break
		}
	}
	return c
}

// OrderBy appends an ordering term applied to the combined result.
func (c *Combined) OrderBy(expr any, rest ...string) *Combined {
	o, err := newOrderClause(expr, rest)
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		return c
	}
	c.orderBy = append(c.orderBy, o)
	return c
}

// Offset sets the OFFSET clause of the combined result.
func (c *Combined) Offset(n int) *Combined {
	c.offset = &n
	return c
}

// Limit sets the LIMIT clause of the combined result.
func (c *Combined) Limit(n int) *Combined {
	c.limit = &n
	return c
}

// Compile renders the combined statement. A single member emits bare; any
// member that is itself a combined statement is parenthesized.
func (c *Combined) Compile() (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if len(c.members) == 0 {
		return "", errors.Wrapf(ErrQueryShape, "%s with zero members", c.op)
	}
	b := strings.Builder{}
	for i, m := range c.members {
		if i > 0 {
			b.WriteString(" " + c.op + " ")
		}
		s, err := m.Compile()
		if err != nil {
			return "", err
		}
		if _, nested := m.(*Combined); nested && len(c.members) > 1 {
			s = "(" + s + ")"
		}
		b.WriteString(s)
	}
	if err := writeOrderBy(&b, c.orderBy); err != nil {
		return "", err
	}
	writeOffsetLimit(&b, c.offset, c.limit)
	return b.String(), nil
}
