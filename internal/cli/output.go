package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/cypherlite/internal/errcode"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitQueryError   = 1 // Query failure (parse, authorization, budget, capacity)
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitQueryError or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitQueryError (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitQueryError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // trace correlation token
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // protocol code name, e.g. "QueryParseFailed"
	Number  uint32 `json:"number"`            // numeric protocol code, e.g. 6000
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any, traceID string) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data, TraceID: traceID})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// QueryError renders a protocol-coded failure and returns the matching
// ExitError so the process exits with code 1.
func (f *OutputFormatter) QueryError(err error, traceID string) error {
	code := errcode.CodeOf(err)
	cliErr := &CLIError{
		Code:    code.String(),
		Number:  uint32(code),
		Message: err.Error(),
	}
	var pe *errcode.Error
	if errors.As(err, &pe) && len(pe.Details) > 0 {
		cliErr.Details = pe.Details
	}

	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(CLIResponse{Status: "error", Error: cliErr, TraceID: traceID})
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", cliErr.Code, cliErr.Message)
		if f.Verbose && cliErr.Details != nil {
			fmt.Fprintf(f.Writer, "Details: %v\n", cliErr.Details)
		}
	}
	return WrapExitError(ExitQueryError, cliErr.Code, err)
}

// CommandError renders an operational failure (bad path, missing graph)
// and returns an ExitError with code 2.
func (f *OutputFormatter) CommandError(message string, err error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: "CommandError", Message: fmt.Sprintf("%s: %v", message, err)},
		})
	} else {
		fmt.Fprintf(f.Writer, "Error: %s: %v\n", message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
