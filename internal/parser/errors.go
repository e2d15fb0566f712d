package parser

import (
	"errors"
	"fmt"

	"github.com/roach88/cypherlite/internal/errcode"
)

// ParseError reports a grammar violation. Pos is the byte offset of the
// offending token in the query text; Token is its literal text ("" at end
// of input).
type ParseError struct {
	Pos     int
	Token   string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("parse error at offset %d near %q: %s", e.Pos, e.Token, e.Message)
}

// Protocol maps the parse error onto the stable error code table.
func (e *ParseError) Protocol() *errcode.Error {
	return errcode.New(errcode.QueryParseFailed, "%s", e.Error()).
		WithDetail("position", fmt.Sprintf("%d", e.Pos)).
		WithDetail("token", e.Token)
}

// Protocol maps any parse failure onto the stable error code table.
func Protocol(err error) *errcode.Error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Protocol()
	}
	return errcode.New(errcode.QueryParseFailed, "%v", err)
}

func errAt(tok token, format string, args ...any) *ParseError {
	return &ParseError{
		Pos:     tok.pos,
		Token:   tok.text,
		Message: fmt.Sprintf(format, args...),
	}
}
