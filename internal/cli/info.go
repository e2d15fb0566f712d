package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// GraphInfo is the info command's JSON payload for a whole graph.
type GraphInfo struct {
	Key          string `json:"key"`
	Authority    string `json:"authority,omitempty"`
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	Nonce        uint64 `json:"nonce"`
	Capacity     int    `json:"capacity"`
	SnapshotSize int    `json:"snapshot_size"`
	Executions   int    `json:"executions"`
}

// NodeInfo is the info command's JSON payload for a single node.
type NodeInfo struct {
	ID       uint64   `json:"id"`
	Label    string   `json:"label"`
	Data     string   `json:"data,omitempty"`
	OutEdges []uint64 `json:"out_edges,omitempty"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "info <graph-key> [node-id]",
		Short:         "Show graph statistics or a single node",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return runNodeInfo(rootOpts, args[0], args[1], cmd)
			}
			return runGraphInfo(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runGraphInfo(opts *RootOptions, graphKey string, cmd *cobra.Command) error {
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

	snapshot, err := s.eng.Store().MarshalSnapshot()
	if err != nil {
		return formatter.CommandError("sizing snapshot", err)
	}
	execs, err := s.db.Executions(ctx, graphKey)
	if err != nil {
		return formatter.CommandError("reading execution log", err)
	}

	info := GraphInfo{
		Key:          graphKey,
		Authority:    s.eng.Store().Authority(),
		Nodes:        s.eng.Store().NodeCount(),
		Edges:        s.eng.Store().EdgeCount(),
		Nonce:        s.eng.Store().Nonce(),
		Capacity:     s.eng.Store().Capacity(),
		SnapshotSize: len(snapshot),
		Executions:   len(execs),
	}
	if formatter.Format == "json" {
		return formatter.Success(info, "")
	}

	w := formatter.Writer
	fmt.Fprintf(w, "graph:      %s\n", info.Key)
	if info.Authority != "" {
		fmt.Fprintf(w, "authority:  %s\n", info.Authority)
	}
	fmt.Fprintf(w, "nodes:      %d\n", info.Nodes)
	fmt.Fprintf(w, "edges:      %d\n", info.Edges)
	fmt.Fprintf(w, "nonce:      %d\n", info.Nonce)
	fmt.Fprintf(w, "capacity:   %d/%d bytes\n", info.SnapshotSize, info.Capacity)
	fmt.Fprintf(w, "executions: %d\n", info.Executions)
	return nil
}

func runNodeInfo(opts *RootOptions, graphKey, idArg string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	id, err := strconv.ParseUint(idArg, 10, 64)
	if err != nil {
		return formatter.CommandError("parsing node id", err)
	}

	ctx := cmd.Context()
	s, serr := openSession(ctx, opts, graphKey)
	if serr != nil {
		return formatter.CommandError("opening graph", serr)
	}
	defer s.Close()

	node, nerr := s.eng.NodeInfo(id)
	if nerr != nil {
		return formatter.QueryError(nerr, "")
	}

	info := NodeInfo{ID: node.ID, Label: node.Label}
	if len(node.Data) > 0 {
		info.Data = "0x" + hex.EncodeToString(node.Data)
	}
	edges := s.eng.Store().Edges()
	for _, idx := range node.OutEdges {
		if idx >= 0 && idx < len(edges) {
			info.OutEdges = append(info.OutEdges, edges[idx].ID)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(info, "")
	}
	w := formatter.Writer
	fmt.Fprintf(w, "id:    %d\n", info.ID)
	fmt.Fprintf(w, "label: %s\n", info.Label)
	if info.Data != "" {
		fmt.Fprintf(w, "data:  %s\n", info.Data)
	}
	if len(info.OutEdges) > 0 {
		fmt.Fprintf(w, "out:   %v\n", info.OutEdges)
	}
	return nil
}
