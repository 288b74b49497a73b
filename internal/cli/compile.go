package cli

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/edn"
	"github.com/roach88/vectorcheck/internal/harness"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	File   string `json:"file"`
	Hex    string `json:"hex,omitempty"`
	Output string `json:"output,omitempty"`
	Bytes  int    `json:"bytes"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile one fixture to binary",
		Long: `Compile a fixture written in extended diagnostic notation.

Without -o the encoded bytes are printed as hex. With -o they are written
raw to the given file, which is how a snapshot is produced by hand.

Examples:
  vectorcheck compile vectors/floats.edn
  vectorcheck compile vectors/floats.edn -o /tmp/floats.cbor`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write raw bytes to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	src, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read fixture", err)
	}

	compiled, err := edn.Compile(src, edn.Options{SourceLabel: path, Registry: harness.DefaultRegistry()})
	if err != nil {
		if outErr := formatter.Error(ErrCodeCompile, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "compilation failed", err)
	}
	formatter.VerboseLog("Compiled %s: %d bytes", path, len(compiled))

	result := CompileResult{File: path, Bytes: len(compiled)}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, compiled, 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		result.Output = opts.Output
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ Wrote %d bytes to %s\n", len(compiled), opts.Output)
		return nil
	}

	result.Hex = hex.EncodeToString(compiled)
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(result.Hex)
}
