package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit <graph-key> <digest>",
		Short: "Register a commitment for a later reveal",
		Long: `Register a blinded commitment digest against a graph.

The digest is SHA-256 over the commit domain, the authority's public
key, and the program's code hash. Compute it with the sign command's
--commit flag; the program itself is not disclosed until reveal.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runCommit(opts *RootOptions, graphKey, digest string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, opts, graphKey)
	if err != nil {
		return formatter.CommandError("opening graph", err)
	}
	defer s.Close()

	if err := s.eng.Commit(digest); err != nil {
		return formatter.QueryError(err, "")
	}
	if s.ledger != nil {
		if err := s.db.SaveCommitments(ctx, graphKey, s.ledger.Records()); err != nil {
			return formatter.CommandError("saving commitments", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"graph": graphKey, "digest": digest}, "")
	}
	fmt.Fprintf(formatter.Writer, "✓ Committed %s\n", digest)
	return nil
}
