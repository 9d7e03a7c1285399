package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedExpression indicates a structural parse or evaluation failure.
	ErrMalformedExpression = errors.New("expr: malformed expression")

	// ErrInsufficientOperands indicates an operator applied to too few operands.
	ErrInsufficientOperands = errors.New("expr: insufficient operands")

	// ErrDomain indicates a function argument outside its domain (log of a non-positive value).
	ErrDomain = errors.New("expr: argument outside function domain")

	// ErrUnknownSymbol indicates an identifier with no binding in the symbol table.
	ErrUnknownSymbol = fmt.Errorf("%w: unknown symbol", ErrMalformedExpression)
)

// SyntaxError locates a tokenizer or parser failure in the source text.
type SyntaxError struct {
	Pos   int
	Token string
	Err   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %q at offset %d", e.Err, e.Token, e.Pos)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
