package pgq

import "github.com/pkg/errors"

// Error kinds returned by the escaper, substitution and query compilation.
// Returned errors wrap one of these; check with errors.Is.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidString     = errors.New("invalid string")
	ErrUnsupportedValue  = errors.New("unsupported value")
	ErrMissingBind       = errors.New("missing bind value")
	ErrLex               = errors.New("lex error")
	ErrQueryShape        = errors.New("invalid query shape")
)
