package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/codec"
	"github.com/roach88/vectorcheck/internal/config"
	"github.com/roach88/vectorcheck/internal/harness"
	"github.com/roach88/vectorcheck/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	corpusFlags

	Mode     string
	Update   bool
	Database string

	// IDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs harness.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [root]",
		Short: "Run every vector in the corpus",
		Long: `Compile each fixture, reconcile it with its binary snapshot, then run
every selected vector against the codec.

Without a root argument the corpus root comes from vectorcheck.yaml in the
working directory, or defaults to ./vectors.

The snapshot mode comes from --update, then --mode, then VECTOR_MODE.
In verify mode (the default) a stale or missing snapshot fails the fixture;
in gen mode snapshots are rewritten.

Exit codes:
  0 - All vectors passed
  1 - One or more vectors or fixtures failed
  2 - Command error (invalid flags, configuration, unreadable corpus)

Examples:
  vectorcheck run
  vectorcheck run ./vectors --filter "float*"
  vectorcheck run --update
  vectorcheck run --db ./history.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpus(opts, args, cmd)
		},
	}

	opts.corpusFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "snapshot mode: verify or gen (default from VECTOR_MODE)")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate snapshots (same as --mode gen)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

// resolveMode applies --update, then --mode, then the environment.
func (o *RunOptions) resolveMode() (config.Mode, error) {
	if o.Update {
		return config.ModeGenerate, nil
	}
	if o.Mode != "" {
		return config.ParseMode(o.Mode)
	}
	return config.ModeFromEnv()
}

func runCorpus(opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if err := opts.corpusFlags.apply(cfg, args); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	mode, err := opts.resolveMode()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid snapshot mode", err)
	}

	runner, err := harness.NewRunner(harness.Options{
		Root:              cfg.Root,
		Extension:         cfg.Extension,
		SnapshotExtension: cfg.SnapshotExtension,
		Filter:            cfg.Filter,
		Mode:              mode,
		EncodeOptions:     codec.Options(cfg.EncodeOptions),
		DecodeOptions:     codec.Options(cfg.DecodeOptions),
		Logger:            logger,
		IDs:               opts.IDs,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create runner", err)
	}
	formatter.VerboseLog("Running %s in %s mode", cfg.Root, runner.Mode())

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	result, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return WrapExitError(ExitFailure, "run interrupted", err)
		}
		return WrapExitError(ExitCommandError, "failed to run corpus", err)
	}

	database := opts.Database
	if database == "" {
		database = cfg.Database
	}
	if database != "" {
		if err := recordRun(ctx, database, result, logger); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	return outputRun(formatter, opts.Verbose, result, "vector(s) failed", "All vectors passed")
}

// signalContext cancels on SIGINT or SIGTERM so a run stops between fixtures.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping after current fixture", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func recordRun(ctx context.Context, path string, result *harness.RunResult, logger *slog.Logger) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	run, err := st.RecordRun(ctx, result)
	if err != nil {
		return err
	}
	logger.Info("run recorded", "db", path, "run_id", run.ID, "seq", run.Seq)
	return nil
}

// outputRun prints the report and turns failures into ExitFailure.
func outputRun(formatter *OutputFormatter, verbose bool, result *harness.RunResult, failureNoun, success string) error {
	report := newRunReport(result)
	failures := report.Failed + report.BrokenFixtures

	if formatter.Format == "json" {
		var failure *CLIError
		if failures > 0 {
			failure = &CLIError{
				Code:    ErrCodeTestFailed,
				Message: fmt.Sprintf("%d %s, %d fixture(s) broken", report.Failed, failureNoun, report.BrokenFixtures),
			}
		}
		if err := formatter.Result(failures == 0, report, failure); err != nil {
			return err
		}
	} else {
		writeRunText(formatter.Writer, report, verbose)
		if failures == 0 {
			fmt.Fprintln(formatter.Writer, "✓ "+success)
		}
	}

	if failures > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d %s, %d fixture(s) broken", report.Failed, failureNoun, report.BrokenFixtures))
	}
	return nil
}
