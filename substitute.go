package pgq

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Substitute expands ? and $N placeholders in the template, splicing in the
// escaped values. Placeholders inside string, E-string and quoted identifier
// literals are left alone. Each ? consumes the next value in order; $N refers
// to values[N-1]. The two numbering schemes are independent and may be mixed.
func Substitute(template string, values ...any) (string, error) {
	b := strings.Builder{}
	s := newScanbuf(template)
	next := 0
	var prev byte
	for s.more() {
		c := s.get()
		switch c {
		case '\'':
			if prev == 'E' || prev == 'e' {
				if err := copyEString(s, &b, c); err != nil {
					return "", err
				}
			} else if err := copyQuoted(s, &b, c); err != nil {
				return "", err
			}
		case '"':
			if err := copyQuoted(s, &b, c); err != nil {
				return "", err
			}
		case '?':
			if next >= len(values) {
				return "", errors.Wrapf(ErrMissingBind, "placeholder %d of %d values", next+1, len(values))
			}
			v, err := EscapeValue(values[next])
			if err != nil {
				return "", err
			}
			next++
			b.WriteString(v)
		case '$':
			digits := s.digits()
			if digits == "" {
				b.WriteByte(c)
				break
			}
			n, err := strconv.Atoi(digits)
			if err != nil || n < 1 || n > len(values) {
				return "", errors.Wrapf(ErrMissingBind, "$%s with %d values", digits, len(values))
			}
			v, err := EscapeValue(values[n-1])
			if err != nil {
				return "", err
			}
			b.WriteString(v)
		default:
			b.WriteByte(c)
		}
		prev = c
	}
	return b.String(), nil
}

// copyQuoted copies a quoted literal through to the output. The opening quote
// q has already been read. A doubled quote is an escaped quote character and
// does not end the literal.
func copyQuoted(s *scanbuf, b *strings.Builder, q byte) error {
	b.WriteByte(q)
	for s.more() {
		c := s.get()
		b.WriteByte(c)
		if c != q {
			continue
		}
		if s.peek() == q {
			b.WriteByte(s.get())
			continue
		}
		return nil
	}
	return errors.Wrapf(ErrLex, "unterminated %c-quoted literal", q)
}

// copyEString copies an E-string body through to the output. A backslash
// escapes the following byte; a lone quote ends the literal.
func copyEString(s *scanbuf, b *strings.Builder, q byte) error {
	b.WriteByte(q)
	for s.more() {
		c := s.get()
		b.WriteByte(c)
		switch c {
		case '\\':
			if !s.more() {
				return errors.Wrap(ErrLex, "unterminated escape in E-string")
			}
			b.WriteByte(s.get())
		case q:
			return nil
		}
	}
	return errors.Wrap(ErrLex, "unterminated E-string literal")
}
