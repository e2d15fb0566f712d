package errcode

import (
	"errors"
	"fmt"
)

// Code is a stable, protocol-visible error code. Codes are part of the wire
// contract and must never be renumbered. Numbering starts at 6000, matching
// the custom-error convention of the hosting execution environment.
type Code uint32

const (
	// QueryParseFailed: the query text does not match the grammar.
	QueryParseFailed Code = 6000

	// NodeNotFound: a node id was referenced that the store never issued.
	NodeNotFound Code = 6001

	// EdgeNotFound: an edge id was referenced that the store never issued.
	EdgeNotFound Code = 6002

	// QueryExecutionFailed: a runtime failure that is not one of the more
	// specific codes (stack underflow, oversized label/data, nonce overflow).
	QueryExecutionFailed Code = 6003

	// QueryStepLimitExceeded: the program exceeded its step budget.
	QueryStepLimitExceeded Code = 6004

	// StoreCapacityExceeded: an append would overflow the store's buffer.
	StoreCapacityExceeded Code = 6005

	// AuthorizationFailed: direct-signature verification rejected the program.
	AuthorizationFailed Code = 6006

	// CommitRevealMismatch: the reveal did not match a live commitment.
	CommitRevealMismatch Code = 6007
)

// String returns the canonical name for a code.
func (c Code) String() string {
	switch c {
	case QueryParseFailed:
		return "QueryParseFailed"
	case NodeNotFound:
		return "NodeNotFound"
	case EdgeNotFound:
		return "EdgeNotFound"
	case QueryExecutionFailed:
		return "QueryExecutionFailed"
	case QueryStepLimitExceeded:
		return "QueryStepLimitExceeded"
	case StoreCapacityExceeded:
		return "StoreCapacityExceeded"
	case AuthorizationFailed:
		return "AuthorizationFailed"
	case CommitRevealMismatch:
		return "CommitRevealMismatch"
	default:
		return fmt.Sprintf("Code(%d)", uint32(c))
	}
}

// Error is the single failure type every component surfaces. Callers branch
// exhaustively on Code; Message is for humans, Details for diagnostics.
// Failures are always returned, never thrown: no panic crosses a package
// boundary in this module.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail attaches a key/value diagnostic and returns the same error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Is reports whether err is (or wraps) an Error with the given code.
func Is(err error, code Code) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// CodeOf extracts the code from err. Returns QueryExecutionFailed for
// errors that did not originate in this module, so every failure path maps
// onto the protocol table.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return QueryExecutionFailed
}
