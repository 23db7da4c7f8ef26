package compiler

import (
	"errors"
	"fmt"
)

// Parse error kinds. A *ParseError carries one of these as its Kind, so
// errors.Is(err, ErrUnterminatedOpen) works on wrapped errors.
var (
	ErrUnterminatedOpen = errors.New("unterminated '['")
	ErrUnexpectedClose  = errors.New("unexpected ']'")
)

// ParseError reports a bracket that could not be paired. Position is the
// index of the offending opcode in the lexed sequence, not a byte offset.
type ParseError struct {
	Kind     error
	Position int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at position %d", e.Kind, e.Position)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

// SourcePosition maps the error's opcode index back into source text using
// the tokens produced by Tokenize on the same source.
func (e *ParseError) SourcePosition(toks []Token) (Position, bool) {
	if e.Position < 0 || e.Position >= len(toks) {
		return Position{}, false
	}
	return toks[e.Position].Pos, true
}
