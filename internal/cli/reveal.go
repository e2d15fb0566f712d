package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/cypherlite/internal/authz"
)

// RevealOptions holds flags for the reveal command.
type RevealOptions struct {
	*RootOptions
	PubKey string
	Digest string
}

// NewRevealCommand creates the reveal command.
func NewRevealCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RevealOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reveal <graph-key> <query>",
		Short: "Reveal and execute a previously committed query",
		Long: `Reveal the query behind a commitment and execute it.

The recomputed digest for (--key, code hash) must equal --digest and the
commitment must still be inside its reveal window. A mismatched reveal
burns one attempt; exhausting attempts voids the commitment.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReveal(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PubKey, "key", "", "hex Ed25519 public key of the committer")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "commitment digest being revealed")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("digest")

	return cmd
}

func runReveal(opts *RevealOptions, graphKey, query string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	auth := &authz.Request{PubKeyHex: opts.PubKey, CommitDigest: opts.Digest}
	return executeQuery(opts.RootOptions, formatter, cmd, graphKey, query, auth)
}
