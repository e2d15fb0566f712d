package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cypherlite/internal/errcode"
)

func TestSuccessText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("all good", ""))
	assert.Equal(t, "all good\n", buf.String())
}

func TestSuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"count": 3}, "trace-1"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-1", resp.TraceID)
	assert.Nil(t, resp.Error)
}

func TestQueryErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	perr := errcode.New(errcode.QueryParseFailed, "unexpected token").WithDetail("position", "4")
	err := f.QueryError(perr, "trace-2")
	require.Error(t, err)
	assert.Equal(t, ExitQueryError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "QueryParseFailed", resp.Error.Code)
	assert.Equal(t, uint32(6000), resp.Error.Number)
	assert.Equal(t, "trace-2", resp.TraceID)
	assert.NotNil(t, resp.Error.Details)
}

func TestQueryErrorText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	err := f.QueryError(errcode.New(errcode.AuthorizationFailed, "bad signature"), "")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Error [AuthorizationFailed]")
	assert.Contains(t, buf.String(), "bad signature")
}

func TestCommandErrorExitCode(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	err := f.CommandError("opening database", errors.New("no such file"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "opening database")
}

func TestGetExitCodeDefaults(t *testing.T) {
	assert.Equal(t, ExitQueryError, GetExitCode(errors.New("plain")))
	assert.Equal(t, 7, GetExitCode(&ExitError{Code: 7, Message: "custom"}))
}

func TestVerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer

	quiet := &OutputFormatter{Writer: &out}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, out.String())

	loud := &OutputFormatter{Writer: &out, ErrWriter: &errOut, Verbose: true}
	loud.VerboseLog("shown %d", 2)
	assert.Empty(t, out.String())
	assert.Equal(t, "shown 2\n", errOut.String())
}
