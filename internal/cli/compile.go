package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherlite/internal/codegen"
	"github.com/roach88/cypherlite/internal/parser"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	ShowWire bool
}

// CompileResult is the compile command's JSON payload.
type CompileResult struct {
	CodeHash    string `json:"code_hash"`
	Mutates     bool   `json:"mutates"`
	Disassembly string `json:"disassembly"`
	Wire        string `json:"wire,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query to bytecode without executing it",
		Long: `Compile a query and print its bytecode and code hash.

The code hash is what an authority signs (direct mode) or commits to
(commit-reveal mode) before the program runs.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowWire, "wire", false, "include the hex wire encoding")

	return cmd
}

func runCompileCmd(opts *CompileOptions, query string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	q, perr := parser.Parse(query)
	if perr != nil {
		return formatter.QueryError(parser.Protocol(perr), "")
	}
	prog := codegen.Generate(q)
	wire, err := prog.MarshalWire()
	if err != nil {
		return formatter.CommandError("encoding program", err)
	}
	hash, err := prog.CodeHash()
	if err != nil {
		return formatter.CommandError("hashing program", err)
	}

	result := CompileResult{
		CodeHash:    string(hash),
		Mutates:     prog.Mutates(),
		Disassembly: prog.Disassemble(),
	}
	if opts.ShowWire {
		result.Wire = hex.EncodeToString(wire)
	}

	if formatter.Format == "json" {
		return formatter.Success(result, "")
	}
	fmt.Fprintf(formatter.Writer, "code_hash: %s\n", result.CodeHash)
	fmt.Fprintf(formatter.Writer, "mutates:   %v\n\n", result.Mutates)
	fmt.Fprint(formatter.Writer, result.Disassembly)
	if opts.ShowWire {
		fmt.Fprintf(formatter.Writer, "\nwire: %s\n", result.Wire)
	}
	return nil
}
