package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.cue")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "cypherlite.db", cfg.Database)
	assert.Equal(t, uint64(1000), cfg.StepLimit)
	assert.Equal(t, 65536, cfg.CapacityBytes)
	assert.Equal(t, AuthModeDirect, cfg.Auth.Mode)
	assert.Equal(t, 10*time.Minute, cfg.Auth.RevealWindow())
	assert.Equal(t, 3, cfg.Auth.MaxAttempts)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
database:   "graphs.db"
step_limit: 500

auth: {
	mode:                  "commit-reveal"
	reveal_window_seconds: 30
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "graphs.db", cfg.Database)
	assert.Equal(t, uint64(500), cfg.StepLimit)
	// Untouched fields keep their defaults.
	assert.Equal(t, 65536, cfg.CapacityBytes)
	assert.Equal(t, AuthModeCommitReveal, cfg.Auth.Mode)
	assert.Equal(t, 30*time.Second, cfg.Auth.RevealWindow())
	assert.Equal(t, 3, cfg.Auth.MaxAttempts)
}

func TestLoadPartialAuthBlock(t *testing.T) {
	path := writeConfig(t, `auth: mode: "open"`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, AuthModeOpen, cfg.Auth.Mode)
	assert.Equal(t, 600, cfg.Auth.RevealWindowSeconds)
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	path := writeConfig(t, `auth: mode: "anything-goes"`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveStepLimit(t *testing.T) {
	path := writeConfig(t, `step_limit: 0`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsWrongType(t *testing.T) {
	path := writeConfig(t, `step_limit: "lots"`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	assert.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.cue"), []byte(`database: "dir.db"`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "dir.db", cfg.Database)
}
