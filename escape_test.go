package pgq

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestEscapeIdentifier(t *testing.T) {
	type tcase struct {
		parts []string
		want  string
	}
	cc := []tcase{
		{[]string{"a", "b", "c"}, `"a"."b"."c"`},
		{[]string{"a.b", "c"}, `"a"."b"."c"`},
		{[]string{"a", "*"}, `"a".*`},
		{[]string{"*", "a"}, `*."a"`},
		{[]string{"", "a", ""}, `"a"`},
		{[]string{"a..b"}, `"a"."b"`},
		{[]string{`wei"rd`}, `"wei""rd"`},
		{[]string{"*"}, `*`},
		{[]string{}, ``},
		{[]string{"", "."}, ``},
	}
	for _, c := range cc {
		got, err := EscapeIdentifier(c.parts...)
		if err != nil {
			t.Error(err)
			continue
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("EscapeIdentifier(%q):\n%s", c.parts, diff)
		}
	}
}

func TestEscapeIdentifierNul(t *testing.T) {
	_, err := EscapeIdentifier("a\x00b")
	require.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestEscapeValue(t *testing.T) {
	type tcase struct {
		in   any
		want string
	}
	cc := []tcase{
		{nil, "NULL"},
		{true, "TRUE"},
		{false, "FALSE"},
		{0, "0"},
		{-17, "-17"},
		{uint64(12345678901234567890), "12345678901234567890"},
		{1.25, "1.25"},
		{math.NaN(), "'NaN'"},
		{math.Inf(1), "'Infinity'"},
		{math.Inf(-1), "'-Infinity'"},
		{"String", "'String'"},
		{"", "''"},
		{"'text'", `E'\'text\''`},
		{"a\\b", `E'a\\b'`},
		{"line1\nline2", `E'line1\nline2'`},
		{"tab\there", `E'tab\there'`},
		{"\b\f\r", `E'\b\f\r'`},
		{[]int{}, "'{}'"},
		{[]int{42, 23}, "ARRAY[42, 23]"},
		{[][]int{{0}, {1}}, "ARRAY[[0], [1]]"},
		{[]any{1, "a", nil}, "ARRAY[1, 'a', NULL]"},
		{map[string]any{}, "'{}'"},
		{map[string]any{"a": 1}, `'{"a":1}'`},
		{map[string]any{"b": []int{1, 2}, "a": "x"}, `'{"a":"x","b":[1,2]}'`},
		{[]byte{0xde, 0xad, 0xbe, 0xef}, `E'\\xdeadbeef'`},
		{uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'"},
		{decimal.RequireFromString("12.3400"), "12.3400"},
		{decimal.New(-1234, -2), "-12.34"},
		{time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC), "'2021-03-04 05:06:07+00:00'"},
	}
	for _, c := range cc {
		got, err := EscapeValue(c.in)
		if err != nil {
			t.Error(err)
			continue
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("EscapeValue(%#v):\n%s", c.in, diff)
		}
	}
}

func TestEscapeValueErrors(t *testing.T) {
	_, err := EscapeValue("a\x00b")
	require.ErrorIs(t, err, ErrInvalidString)

	_, err = EscapeValue(func() {})
	require.ErrorIs(t, err, ErrUnsupportedValue)

	_, err = EscapeValue([]any{1, make(chan int)})
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

// Finite numbers must parse back to the same value.
func TestNumericFidelity(t *testing.T) {
	for _, f := range []float64{0, 0.1, -1.5, 1e21, 1.0 / 3.0, math.MaxFloat64} {
		got, err := EscapeValue(f)
		if err != nil {
			t.Fatal(err)
		}
		back, err := strconv.ParseFloat(got, 64)
		if err != nil {
			t.Fatalf("%s did not parse back: %v", got, err)
		}
		if back != f {
			t.Errorf("%v round-tripped to %v via %s", f, back, got)
		}
	}
}
