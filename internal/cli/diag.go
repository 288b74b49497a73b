package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/codec"
)

// DiagResult is the JSON payload of the diag command.
type DiagResult struct {
	File       string `json:"file"`
	Diagnostic string `json:"diagnostic"`
}

// NewDiagCommand creates the diag command.
func NewDiagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag <file>",
		Short: "Print a binary snapshot in diagnostic notation",
		Long: `Decode a binary file, typically a fixture snapshot, and print it in
diagnostic notation with byte strings in hex.

Example:
  vectorcheck diag vectors/floats.cbor`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiag(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDiag(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}

	diag, err := codec.Diagnose(data)
	if err != nil {
		if outErr := formatter.Error(ErrCodeDecode, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "not well-formed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(DiagResult{File: path, Diagnostic: diag})
	}
	return formatter.Success(diag)
}
