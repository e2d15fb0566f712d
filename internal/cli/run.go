package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/cypherlite/internal/authz"
	"github.com/roach88/cypherlite/internal/store"
	"github.com/roach88/cypherlite/internal/vm"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	PubKey    string
	Signature string
}

// RunResult is the run and reveal commands' JSON payload.
type RunResult struct {
	Projection string   `json:"projection,omitempty"`
	Rows       []vm.Row `json:"rows,omitempty"`
	CreatedIDs []uint64 `json:"created_ids,omitempty"`
	Steps      uint64   `json:"steps"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <graph-key> <query>",
		Short: "Execute a query against a stored graph",
		Long: `Execute a query against a stored graph.

Read queries need no proof. Mutations need the authority's proof: in
direct mode pass --key and --sig produced by the sign command.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PubKey, "key", "", "hex Ed25519 public key of the caller")
	cmd.Flags().StringVar(&opts.Signature, "sig", "", "hex signature over the program's code hash")

	return cmd
}

func runRun(opts *RunOptions, graphKey, query string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var auth *authz.Request
	if opts.PubKey != "" || opts.Signature != "" {
		sig, err := hex.DecodeString(opts.Signature)
		if err != nil {
			return formatter.CommandError("decoding --sig", err)
		}
		auth = &authz.Request{PubKeyHex: opts.PubKey, Signature: sig}
	}

	return executeQuery(opts.RootOptions, formatter, cmd, graphKey, query, auth)
}

// executeQuery runs one query in a fresh session and persists the result.
// Shared by the run and reveal commands.
func executeQuery(rootOpts *RootOptions, formatter *OutputFormatter, cmd *cobra.Command, graphKey, query string, auth *authz.Request) error {
	ctx := cmd.Context()
	traceID := uuid.NewString()

	s, err := openSession(ctx, rootOpts, graphKey)
	if err != nil {
		return formatter.CommandError("opening graph", err)
	}
	defer s.Close()

	prog, hash, cerr := s.eng.Compile(query)
	if cerr != nil {
		return formatter.QueryError(cerr, traceID)
	}
	formatter.VerboseLog("trace %s: code_hash %s", traceID, hash)

	res, rerr := s.eng.Run(ctx, query, auth)

	// The ledger mutates on failed reveals too; persist it either way.
	if s.ledger != nil {
		if perr := s.db.SaveCommitments(ctx, s.graphKey, s.ledger.Records()); perr != nil {
			return formatter.CommandError("saving commitments", perr)
		}
	}
	if rerr != nil {
		return formatter.QueryError(rerr, traceID)
	}

	if err := s.persist(ctx); err != nil {
		return formatter.CommandError("saving graph", err)
	}
	if err := s.db.AppendExecution(ctx, graphKey, store.Execution{
		Seq:      s.eng.Clock().Current(),
		CodeHash: string(hash),
		Mutates:  prog.Mutates(),
		Steps:    res.Steps,
	}); err != nil {
		return formatter.CommandError("logging execution", err)
	}

	result := RunResult{
		Projection: res.Projection,
		Rows:       res.Rows,
		CreatedIDs: res.CreatedIDs,
		Steps:      res.Steps,
	}
	if formatter.Format == "json" {
		return formatter.Success(result, traceID)
	}
	return printRunResult(formatter, result)
}

func printRunResult(formatter *OutputFormatter, result RunResult) error {
	w := formatter.Writer
	if len(result.CreatedIDs) > 0 {
		for _, id := range result.CreatedIDs {
			fmt.Fprintf(w, "✓ created %d\n", id)
		}
	} else if len(result.Rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
	} else {
		for _, row := range result.Rows {
			fmt.Fprintf(w, "%d\t%s\n", row.NodeID, row.Value)
		}
	}
	fmt.Fprintf(w, "steps: %d\n", result.Steps)
	return nil
}
