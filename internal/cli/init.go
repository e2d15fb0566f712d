package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherlite/internal/graph"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Authority string
	Capacity  int
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <graph-key>",
		Short: "Create an empty graph",
		Long: `Create an empty graph under the given key.

The authority is the hex Ed25519 public key allowed to run mutating
queries. A graph created without one accepts mutations from anyone.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Authority, "authority", "", "hex Ed25519 public key of the graph authority")
	cmd.Flags().IntVar(&opts.Capacity, "capacity", 0, "snapshot capacity in bytes (default from config)")

	return cmd
}

func runInit(opts *InitOptions, graphKey string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, db, err := openDB(opts.RootOptions)
	if err != nil {
		return formatter.CommandError("opening database", err)
	}
	defer db.Close()

	capacity := cfg.CapacityBytes
	if opts.Capacity > 0 {
		capacity = opts.Capacity
	}

	g := graph.New(opts.Authority, graph.Config{CapacityBytes: capacity})
	ctx := cmd.Context()
	if _, _, err := db.LoadGraph(ctx, graphKey); err == nil {
		return formatter.CommandError("creating graph", fmt.Errorf("graph %q already exists", graphKey))
	}
	if err := db.SaveGraph(ctx, graphKey, g, 0); err != nil {
		return formatter.CommandError("saving graph", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"graph":     graphKey,
			"authority": opts.Authority,
			"capacity":  capacity,
		}, "")
	}
	fmt.Fprintf(formatter.Writer, "✓ Created graph %q (capacity %d bytes)\n", graphKey, capacity)
	if opts.Authority != "" {
		fmt.Fprintf(formatter.Writer, "  authority: %s\n", opts.Authority)
	}
	return nil
}
