package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/codec"
	"github.com/roach88/vectorcheck/internal/harness"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	corpusFlags

	// IDs overrides the run ID generator (for testing).
	IDs harness.RunIDGenerator
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [root]",
		Short: "Check the corpus without running the codec",
		Long: `Compile every fixture, verify its snapshot, decode it, and check the
document schema, vector shapes and encoding uniqueness. Vectors are not run
and snapshots are never written, whatever VECTOR_MODE says.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	opts.corpusFlags.register(cmd)

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if err := opts.corpusFlags.apply(cfg, args); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	runner, err := harness.NewRunner(harness.Options{
		Root:              cfg.Root,
		Extension:         cfg.Extension,
		SnapshotExtension: cfg.SnapshotExtension,
		Filter:            cfg.Filter,
		EncodeOptions:     codec.Options(cfg.EncodeOptions),
		DecodeOptions:     codec.Options(cfg.DecodeOptions),
		Logger:            logger,
		IDs:               opts.IDs,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create runner", err)
	}

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	result, err := runner.Validate(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to validate corpus", err)
	}
	return outputRun(formatter, opts.Verbose, result, "invalid vector(s)", "Corpus is valid")
}
