package cli

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherlite/internal/authz"
	"github.com/roach88/cypherlite/internal/codegen"
	"github.com/roach88/cypherlite/internal/parser"
)

// KeygenOptions holds flags for the keygen command.
type KeygenOptions struct {
	*RootOptions
	SeedFile string
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeygenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 authority keypair",
		Long: `Generate an Ed25519 keypair.

The public key is the authority passed to init; the seed signs mutations.
With --seed-file the seed goes to disk (mode 0600) instead of stdout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SeedFile, "seed-file", "", "write the hex seed to this file instead of stdout")

	return cmd
}

func runKeygen(opts *KeygenOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return formatter.CommandError("generating keypair", err)
	}
	pubHex := hex.EncodeToString(pub)
	seedHex := hex.EncodeToString(priv.Seed())

	if opts.SeedFile != "" {
		if err := os.WriteFile(opts.SeedFile, []byte(seedHex+"\n"), 0o600); err != nil {
			return formatter.CommandError("writing seed file", err)
		}
		seedHex = ""
	}

	if formatter.Format == "json" {
		payload := map[string]any{"public_key": pubHex}
		if seedHex != "" {
			payload["seed"] = seedHex
		} else {
			payload["seed_file"] = opts.SeedFile
		}
		return formatter.Success(payload, "")
	}
	fmt.Fprintf(formatter.Writer, "public_key: %s\n", pubHex)
	if seedHex != "" {
		fmt.Fprintf(formatter.Writer, "seed:       %s\n", seedHex)
	} else {
		fmt.Fprintf(formatter.Writer, "seed written to %s\n", opts.SeedFile)
	}
	return nil
}

// SignOptions holds flags for the sign command.
type SignOptions struct {
	*RootOptions
	Seed     string
	SeedFile string
	Commit   bool
}

// SignResult is the sign command's JSON payload.
type SignResult struct {
	CodeHash     string `json:"code_hash"`
	PublicKey    string `json:"public_key"`
	Signature    string `json:"signature,omitempty"`
	CommitDigest string `json:"commit_digest,omitempty"`
}

// NewSignCommand creates the sign command.
func NewSignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SignOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sign <query>",
		Short: "Sign a query's code hash, or derive its commitment digest",
		Long: `Compile a query and sign its code hash with the authority seed.

The output feeds run --key/--sig (direct mode). With --commit the
command instead prints the commitment digest for commit/reveal.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", "", "hex Ed25519 seed")
	cmd.Flags().StringVar(&opts.SeedFile, "seed-file", "", "file holding the hex seed")
	cmd.Flags().BoolVar(&opts.Commit, "commit", false, "print the commitment digest instead of a signature")

	return cmd
}

func runSign(opts *SignOptions, query string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	priv, err := loadSeed(opts)
	if err != nil {
		return formatter.CommandError("loading seed", err)
	}
	pubHex := hex.EncodeToString(priv.Public().(ed25519.PublicKey))

	q, perr := parser.Parse(query)
	if perr != nil {
		return formatter.QueryError(parser.Protocol(perr), "")
	}
	hash, herr := codegen.Generate(q).CodeHash()
	if herr != nil {
		return formatter.CommandError("hashing program", herr)
	}

	result := SignResult{CodeHash: string(hash), PublicKey: pubHex}
	if opts.Commit {
		digest, derr := authz.CommitDigest(pubHex, hash)
		if derr != nil {
			return formatter.QueryError(derr, "")
		}
		result.CommitDigest = digest
	} else {
		result.Signature = hex.EncodeToString(authz.Sign(priv, hash))
	}

	if formatter.Format == "json" {
		return formatter.Success(result, "")
	}
	fmt.Fprintf(formatter.Writer, "code_hash:  %s\n", result.CodeHash)
	fmt.Fprintf(formatter.Writer, "public_key: %s\n", result.PublicKey)
	if result.Signature != "" {
		fmt.Fprintf(formatter.Writer, "signature:  %s\n", result.Signature)
	}
	if result.CommitDigest != "" {
		fmt.Fprintf(formatter.Writer, "commit:     %s\n", result.CommitDigest)
	}
	return nil
}

func loadSeed(opts *SignOptions) (ed25519.PrivateKey, error) {
	seedHex := opts.Seed
	if seedHex == "" && opts.SeedFile != "" {
		raw, err := os.ReadFile(opts.SeedFile)
		if err != nil {
			return nil, err
		}
		seedHex = string(raw)
		for len(seedHex) > 0 && (seedHex[len(seedHex)-1] == '\n' || seedHex[len(seedHex)-1] == '\r') {
			seedHex = seedHex[:len(seedHex)-1]
		}
	}
	if seedHex == "" {
		return nil, fmt.Errorf("either --seed or --seed-file is required")
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("seed is not valid hex: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
