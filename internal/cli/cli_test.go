package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cypherlite/internal/testutil"
)

// cliEnv is a temp database plus the global flags every invocation needs.
type cliEnv struct {
	args []string
}

func newEnv(t *testing.T, authMode string) *cliEnv {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.cue")
	body := "database: \"" + filepath.Join(dir, "test.db") + "\"\n" +
		"auth: mode: \"" + authMode + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	return &cliEnv{args: []string{"--config", cfgPath, "--format", "json"}}
}

func (e *cliEnv) exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, e.args...))
	err := cmd.Execute()
	return out.String(), err
}

// decodeData unmarshals the Data field of a JSON CLI response into v.
func decodeData(t *testing.T, output string, v any) *CLIResponse {
	t.Helper()
	var resp struct {
		Status  string          `json:"status"`
		Data    json.RawMessage `json:"data"`
		Error   *CLIError       `json:"error"`
		TraceID string          `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp), "output: %s", output)
	if v != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return &CLIResponse{Status: resp.Status, Error: resp.Error, TraceID: resp.TraceID}
}

func TestInitAndInfo(t *testing.T) {
	env := newEnv(t, "open")

	out, err := env.exec(t, "init", "main")
	require.NoError(t, err, "output: %s", out)

	out, err = env.exec(t, "info", "main")
	require.NoError(t, err)

	var info GraphInfo
	decodeData(t, out, &info)
	assert.Equal(t, "main", info.Key)
	assert.Zero(t, info.Nodes)
	assert.Equal(t, 65536, info.Capacity)
}

func TestInitRejectsDuplicate(t *testing.T) {
	env := newEnv(t, "open")

	_, err := env.exec(t, "init", "main")
	require.NoError(t, err)

	_, err = env.exec(t, "init", "main")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCreateAndMatch(t *testing.T) {
	env := newEnv(t, "open")

	_, err := env.exec(t, "init", "main")
	require.NoError(t, err)

	out, err := env.exec(t, "run", "main", `CREATE (n:Person {0x2a})`)
	require.NoError(t, err, "output: %s", out)

	var created RunResult
	resp := decodeData(t, out, &created)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, []uint64{0}, created.CreatedIDs)

	out, err = env.exec(t, "run", "main", `MATCH (a:Person) RETURN a.data LIMIT 5`)
	require.NoError(t, err)

	var matched RunResult
	decodeData(t, out, &matched)
	require.Len(t, matched.Rows, 1)
	assert.Equal(t, "0x2a", matched.Rows[0].Value)

	// Both executions landed in the log.
	out, err = env.exec(t, "info", "main")
	require.NoError(t, err)
	var info GraphInfo
	decodeData(t, out, &info)
	assert.Equal(t, 2, info.Executions)
	assert.Equal(t, 1, info.Nodes)
}

func TestRunParseError(t *testing.T) {
	env := newEnv(t, "open")
	_, err := env.exec(t, "init", "main")
	require.NoError(t, err)

	out, err := env.exec(t, "run", "main", `MATCH NONSENSE`)
	require.Error(t, err)
	assert.Equal(t, ExitQueryError, GetExitCode(err))

	resp := decodeData(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "QueryParseFailed", resp.Error.Code)
	assert.Equal(t, uint32(6000), resp.Error.Number)
}

func TestRunMissingGraph(t *testing.T) {
	env := newEnv(t, "open")
	_, err := env.exec(t, "run", "nosuch", `MATCH (a:P) RETURN a.id LIMIT 1`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileCommand(t *testing.T) {
	env := newEnv(t, "open")

	out, err := env.exec(t, "compile", `CREATE (n:Person)`, "--wire")
	require.NoError(t, err)

	var result CompileResult
	decodeData(t, out, &result)
	assert.Len(t, result.CodeHash, 64)
	assert.True(t, result.Mutates)
	assert.Contains(t, result.Disassembly, "CREATE_NODE Person")
	assert.NotEmpty(t, result.Wire)
}

func TestKeygen(t *testing.T) {
	env := newEnv(t, "open")

	out, err := env.exec(t, "keygen")
	require.NoError(t, err)

	var keys map[string]string
	decodeData(t, out, &keys)
	assert.Len(t, keys["public_key"], 64)
	assert.Len(t, keys["seed"], 64)
}

func TestKeygenSeedFile(t *testing.T) {
	env := newEnv(t, "open")
	seedPath := filepath.Join(t.TempDir(), "seed.hex")

	out, err := env.exec(t, "keygen", "--seed-file", seedPath)
	require.NoError(t, err)

	var keys map[string]string
	decodeData(t, out, &keys)
	assert.Empty(t, keys["seed"])

	info, err := os.Stat(seedPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(seedPath)
	require.NoError(t, err)
	assert.Len(t, bytes.TrimSpace(raw), 64)
}

func TestDirectModeSignedMutation(t *testing.T) {
	env := newEnv(t, "direct")
	kp := testutil.KeyFromByte(0x11)

	_, err := env.exec(t, "init", "main", "--authority", kp.PubHex)
	require.NoError(t, err)

	const query = `CREATE (n:Person {0x01})`

	// Unsigned mutation is rejected.
	out, err := env.exec(t, "run", "main", query)
	require.Error(t, err)
	assert.Equal(t, ExitQueryError, GetExitCode(err))
	resp := decodeData(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AuthorizationFailed", resp.Error.Code)

	// Sign the query's code hash with the authority seed.
	out, err = env.exec(t, "sign", query, "--seed", kp.SeedHex)
	require.NoError(t, err)
	var signed SignResult
	decodeData(t, out, &signed)
	assert.Equal(t, kp.PubHex, signed.PublicKey)
	require.NotEmpty(t, signed.Signature)

	out, err = env.exec(t, "run", "main", query, "--key", kp.PubHex, "--sig", signed.Signature)
	require.NoError(t, err, "output: %s", out)
	var result RunResult
	decodeData(t, out, &result)
	assert.Equal(t, []uint64{0}, result.CreatedIDs)

	// Reads need no proof even in direct mode.
	_, err = env.exec(t, "run", "main", `MATCH (a:Person) RETURN a.id LIMIT 5`)
	require.NoError(t, err)
}

func TestCommitRevealFlow(t *testing.T) {
	env := newEnv(t, "commit-reveal")
	kp := testutil.KeyFromByte(0x11)

	_, err := env.exec(t, "init", "main", "--authority", kp.PubHex)
	require.NoError(t, err)

	const query = `CREATE (n:Person {0x07})`

	// Derive the commitment digest without disclosing the query.
	out, err := env.exec(t, "sign", query, "--seed", kp.SeedHex, "--commit")
	require.NoError(t, err)
	var signed SignResult
	decodeData(t, out, &signed)
	require.NotEmpty(t, signed.CommitDigest)
	assert.Empty(t, signed.Signature)

	_, err = env.exec(t, "commit", "main", signed.CommitDigest)
	require.NoError(t, err)

	// Revealing without a matching commitment fails.
	wrongDigest := signed.CommitDigest[:63] + "0"
	if wrongDigest == signed.CommitDigest {
		wrongDigest = signed.CommitDigest[:63] + "1"
	}
	out, err = env.exec(t, "reveal", "main", query, "--key", kp.PubHex, "--digest", wrongDigest)
	require.Error(t, err)
	resp := decodeData(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CommitRevealMismatch", resp.Error.Code)

	// The genuine reveal executes the mutation.
	out, err = env.exec(t, "reveal", "main", query, "--key", kp.PubHex, "--digest", signed.CommitDigest)
	require.NoError(t, err, "output: %s", out)
	var result RunResult
	decodeData(t, out, &result)
	assert.Equal(t, []uint64{0}, result.CreatedIDs)

	// The commitment was consumed; replaying fails.
	_, err = env.exec(t, "reveal", "main", query, "--key", kp.PubHex, "--digest", signed.CommitDigest)
	require.Error(t, err)
	assert.Equal(t, ExitQueryError, GetExitCode(err))
}

func TestNodeInfoCommand(t *testing.T) {
	env := newEnv(t, "open")
	_, err := env.exec(t, "init", "main")
	require.NoError(t, err)
	_, err = env.exec(t, "run", "main", `CREATE (n:Person {0xbe})`)
	require.NoError(t, err)

	out, err := env.exec(t, "info", "main", "0")
	require.NoError(t, err)
	var node NodeInfo
	decodeData(t, out, &node)
	assert.Equal(t, uint64(0), node.ID)
	assert.Equal(t, "Person", node.Label)
	assert.Equal(t, "0xbe", node.Data)

	_, err = env.exec(t, "info", "main", "99")
	require.Error(t, err)
	assert.Equal(t, ExitQueryError, GetExitCode(err))
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"compile", "CREATE (n:P)", "--format", "xml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
