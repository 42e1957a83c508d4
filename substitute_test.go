package pgq

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	type tcase struct {
		template string
		values   []any
		want     string
	}
	cc := []tcase{
		{"a = ?, b = '?''?', c = ?", []any{1, 2}, "a = 1, b = '?''?', c = 2"},
		{"a = $2, b = $1", []any{1, 2}, "a = 2, b = 1"},
		{"a = $1 or a = $1", []any{42}, "a = 42 or a = 42"},
		{"a = ? and b = $1", []any{7}, "a = 7 and b = 7"},
		{`a = E'\'?' and b = ?`, []any{5}, `a = E'\'?' and b = 5`},
		{`"col?" = ?`, []any{true}, `"col?" = TRUE`},
		{`"a""b?" = ?`, []any{1}, `"a""b?" = 1`},
		{"name = ?", []any{"O'Hara"}, `name = E'O\'Hara'`},
		{"tags = ?", []any{[]int{1, 2}}, "tags = ARRAY[1, 2]"},
		{"price > $1", []any{nil}, "price > NULL"},
		{"cost = 2 $ 2", []any{}, "cost = 2 $ 2"},
		{"no placeholders", []any{}, "no placeholders"},
	}
	for _, c := range cc {
		got, err := Substitute(c.template, c.values...)
		if err != nil {
			t.Error(err)
			continue
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("Substitute(%q, %v):\n%s", c.template, c.values, diff)
		}
	}
}

func TestSubstituteErrors(t *testing.T) {
	type tcase struct {
		template string
		values   []any
		kind     error
	}
	cc := []tcase{
		{"a = ? and b = ?", []any{1}, ErrMissingBind},
		{"a = $2", []any{1}, ErrMissingBind},
		{"a = $0", []any{1}, ErrMissingBind},
		{"a = ?", []any{}, ErrMissingBind},
		{"a = 'abc", []any{}, ErrLex},
		{`a = E'abc\`, []any{}, ErrLex},
		{`a = "abc`, []any{}, ErrLex},
		{"a = ?", []any{make(chan int)}, ErrUnsupportedValue},
	}
	for _, c := range cc {
		_, err := Substitute(c.template, c.values...)
		require.ErrorIs(t, err, c.kind, "Substitute(%q, %v)", c.template, c.values)
	}
}

// The positional ? counter and explicit $N indices are independent.
func TestSubstituteMixedCounters(t *testing.T) {
	got, err := Substitute("? $1 ? $3", 10, 20, 30)
	require.NoError(t, err)
	require.Equal(t, "10 10 20 30", got)
}
