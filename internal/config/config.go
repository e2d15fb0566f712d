// Package config loads engine configuration from CUE files.
//
// Configuration is declarative: a config file is a CUE value that unifies
// with the defaults below, so a file only states what it overrides. A value
// that conflicts with the schema is a load error, not a silent ignore.
package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue/build"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Authorization modes.
const (
	AuthModeOpen         = "open"
	AuthModeDirect       = "direct"
	AuthModeCommitReveal = "commit-reveal"
)

// schema is the CUE definition every config file must unify with.
// Defaults live here so the Go structs never carry magic values.
const schema = `
database:       string | *"cypherlite.db"
step_limit:     int & >0 | *1000
capacity_bytes: int & >0 | *65536

auth: {
	mode:                  "open" | *"direct" | "commit-reveal"
	reveal_window_seconds: int & >0 | *600
	max_attempts:          int & >0 | *3
}
`

// Auth configures the mutation authorization policy.
type Auth struct {
	Mode                string `json:"mode"`
	RevealWindowSeconds int    `json:"reveal_window_seconds"`
	MaxAttempts         int    `json:"max_attempts"`
}

// RevealWindow returns the commit-reveal expiry as a duration.
func (a Auth) RevealWindow() time.Duration {
	return time.Duration(a.RevealWindowSeconds) * time.Second
}

// Config is the fully resolved engine configuration.
type Config struct {
	Database      string `json:"database"`
	StepLimit     uint64 `json:"step_limit"`
	CapacityBytes int    `json:"capacity_bytes"`
	Auth          Auth   `json:"auth"`
}

// Default returns the configuration with no file applied.
func Default() (*Config, error) {
	return decode(nil)
}

// Load reads a CUE config file (or a directory of them) and resolves it
// against the schema.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config path %s: %w", path, err)
	}

	cfg := &load.Config{}
	args := []string{path}
	if info.IsDir() {
		cfg.Dir = path
		args = []string{"."}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, inst.Err)
	}
	return decode(func(args *decodeArgs) {
		args.instance = inst
	})
}

type decodeArgs struct {
	instance *build.Instance
}

func decode(opt func(*decodeArgs)) (*Config, error) {
	var args decodeArgs
	if opt != nil {
		opt(&args)
	}

	ctx := cuecontext.New()
	value := ctx.CompileString(schema)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}

	if args.instance != nil {
		fileValue := ctx.BuildInstance(args.instance)
		if err := fileValue.Err(); err != nil {
			return nil, fmt.Errorf("building config value: %w", err)
		}
		value = value.Unify(fileValue)
		if err := value.Validate(); err != nil {
			return nil, fmt.Errorf("config does not match schema: %w", err)
		}
	}

	var out Config
	if err := value.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Config) validate() error {
	switch c.Auth.Mode {
	case AuthModeOpen, AuthModeDirect, AuthModeCommitReveal:
	default:
		return fmt.Errorf("invalid auth mode %q", c.Auth.Mode)
	}
	if c.Database == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}
