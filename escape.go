package pgq

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// EscapeIdentifier quotes a possibly multi-part identifier. Each argument is
// split on dots, empty segments are dropped, and the surviving segments are
// quoted and joined with a dot. A "*" segment stays unquoted.
func EscapeIdentifier(parts ...string) (string, error) {
	segments := []string{}
	for _, p := range parts {
		for _, s := range strings.Split(p, ".") {
			if s == "" {
				continue
			}
			if strings.ContainsRune(s, 0) {
				return "", errors.Wrapf(ErrInvalidIdentifier, "NUL byte in %q", s)
			}
			segments = append(segments, s)
		}
	}
	b := strings.Builder{}
	for i, s := range segments {
		if i > 0 {
			b.WriteString(".")
		}
		if s == "*" {
			b.WriteString("*")
			continue
		}
		b.WriteString(quoteIdent(s))
	}
	return b.String(), nil
}

// quoteIdent wraps a single already-split segment in double quotes.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EscapeValue converts a host value into its PostgreSQL literal form.
// Plain mappings become quoted JSON; slices become ARRAY literals. Both the
// empty slice and the empty mapping encode as '{}'.
func EscapeValue(v any) (string, error) {
	return escapeValue(v, 0)
}

// escapeValue does the work of EscapeValue. depth > 0 means the value sits
// inside an array literal, where nested arrays drop the ARRAY keyword.
func escapeValue(v any, depth int) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	switch x := v.(type) {
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case string:
		return escapeString(x)
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return escapeFloat(float64(x)), nil
	case float64:
		return escapeFloat(x), nil
	case []byte:
		return `E'\\x` + hex.EncodeToString(x) + `'`, nil
	case uuid.UUID:
		return "'" + x.String() + "'", nil
	case decimal.Decimal:
		if x.Exponent() < 0 {
			return x.StringFixed(-x.Exponent()), nil
		}
		return x.String(), nil
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05.999999999-07:00") + "'", nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return escapeArray(rv, depth)
	case reflect.Map:
		return escapeJSON(v)
	}
	if valuer, ok := v.(driver.Valuer); ok {
		inner, err := valuer.Value()
		if err != nil {
			return "", errors.Wrapf(ErrUnsupportedValue, "driver.Valuer failed: %v", err)
		}
		return escapeValue(inner, depth)
	}
	return "", errors.Wrapf(ErrUnsupportedValue, "cannot escape %T", v)
}

func escapeFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "'NaN'"
	case math.IsInf(f, 1):
		return "'Infinity'"
	case math.IsInf(f, -1):
		return "'-Infinity'"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// stringEscapes maps characters that force the E-string form to their
// C-style escapes.
var stringEscapes = map[byte]string{
	'\'': `\'`,
	'\\': `\\`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
}

func escapeString(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", errors.Wrap(ErrInvalidString, "NUL byte in string value")
	}
	if !strings.ContainsAny(s, "'\\\b\f\n\r\t") {
		return "'" + s + "'", nil
	}
	b := strings.Builder{}
	b.WriteString("E'")
	for i := 0; i < len(s); i++ {
		if esc, ok := stringEscapes[s[i]]; ok {
			b.WriteString(esc)
			continue
		}
		b.WriteByte(s[i])
	}
	b.WriteString("'")
	return b.String(), nil
}

func escapeArray(rv reflect.Value, depth int) (string, error) {
	if rv.Len() == 0 {
		if depth == 0 {
			return "'{}'", nil
		}
		return "[]", nil
	}
	b := strings.Builder{}
	if depth == 0 {
		b.WriteString("ARRAY[")
	} else {
		b.WriteString("[")
	}
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := escapeValue(rv.Index(i).Interface(), depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	b.WriteString("]")
	return b.String(), nil
}

func escapeJSON(v any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrapf(ErrUnsupportedValue, "cannot encode %T as JSON: %v", v, err)
	}
	return escapeString(string(buf))
}
