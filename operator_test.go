package pgq

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestOperators(t *testing.T) {
	type tcase struct {
		node Node
		want string
	}
	cc := []tcase{
		{Op("a", "=", 1), `"a" = 1`},
		{Op("a", "<>", "b"), `"a" <> 'b'`},
		{Op(Col("a"), "/", Op(Col("b"), "+", 1)), `"a" / ("b" + 1)`},
		{Op(Op("a", "+", 1), "*", 2), `("a" + 1) * 2`},
		{Op(Op("a", "-", 1), "-", 2), `("a" - 1) - 2`},
		{Op(Op("a", "*", 2), "+", 1), `"a" * 2 + 1`},
		{Op("a", "in", []int{42, 23}), `"a" IN (42, 23)`},
		{Op("a", "IN", []string{"x", "y"}), `"a" IN ('x', 'y')`},
		{Col("a").In(42, 23), `"a" IN (42, 23)`},
		{Op("a", "LIKE", "x%"), `"a" LIKE 'x%'`},
		{And(Op("a", "=", 1), Op("b", "=", 2)), `"a" = 1 AND "b" = 2`},
		{Or(Op("a", "=", 1), Op("b", "=", 2)), `"a" = 1 OR "b" = 2`},
		{
			And(Op("a", "=", 1), Or(Op("b", "=", 2), Op("c", "=", 3))),
			`"a" = 1 AND ("b" = 2 OR "c" = 3)`,
		},
		{
			Or(And(Op("a", "=", 1), Op("b", "=", 2)), Op("c", "=", 3)),
			`("a" = 1 AND "b" = 2) OR "c" = 3`,
		},
		{Not(Op("a", "=", 1)), `NOT ("a" = 1)`},
		{And(Not(Op("a", "=", 1)), Op("b", "=", 2)), `NOT ("a" = 1) AND "b" = 2`},
		{Op(Col("a"), "=", Col("b")), `"a" = "b"`},
	}
	for _, c := range cc {
		got, err := c.node.Compile()
		if err != nil {
			t.Error(err)
			continue
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("compile:\n%s", diff)
		}
	}
}

func TestInSubquery(t *testing.T) {
	n := Op("id", "IN", Select("id").From("banned"))
	got, err := n.Compile()
	require.NoError(t, err)
	require.Equal(t, `"id" IN (SELECT "id" FROM "banned")`, got)
}

func TestEmptyGroup(t *testing.T) {
	_, err := And().Compile()
	require.ErrorIs(t, err, ErrQueryShape)
}

// A query used as an operand compiles as a parenthesized subexpression.
func TestSubqueryOperand(t *testing.T) {
	n := Op(Col("a"), "=", Select(Max("a")).From("x"))
	got, err := n.Compile()
	require.NoError(t, err)
	require.Equal(t, `"a" = (SELECT MAX("a") FROM "x")`, got)
}
