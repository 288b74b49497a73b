package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Failures bool
}

// HistoryResult is the JSON payload of the history command. Runs is set
// when listing; Run and Outcomes when showing one run.
type HistoryResult struct {
	Runs     []RunSummary     `json:"runs,omitempty"`
	Run      *RunSummary      `json:"run,omitempty"`
	Outcomes []OutcomeSummary `json:"outcomes,omitempty"`
}

// RunSummary is one recorded run.
type RunSummary struct {
	ID             string `json:"id"`
	Seq            int64  `json:"seq"`
	Root           string `json:"root"`
	Mode           string `json:"mode"`
	Passed         int    `json:"passed"`
	Failed         int    `json:"failed"`
	BrokenFixtures int    `json:"broken_fixtures"`
	Skipped        int    `json:"skipped"`
	Pass           bool   `json:"pass"`
}

// OutcomeSummary is one recorded outcome.
type OutcomeSummary struct {
	Seq     int64  `json:"seq"`
	Fixture string `json:"fixture"`
	Place   string `json:"place"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List runs recorded with "run --db", newest first, or show the
outcomes of one run.

Examples:
  vectorcheck history --db ./history.db
  vectorcheck history --db ./history.db 0190c3e2-... --failures`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&opts.Failures, "failures", false, "only show failing outcomes")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	database := opts.Database
	if database == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		database = cfg.Database
	}
	if database == "" {
		return NewExitError(ExitCommandError, "no database: pass --db or set database in vectorcheck.yaml")
	}

	st, err := store.Open(database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if len(args) == 0 {
		return listRuns(ctx, opts, st, formatter)
	}
	return showRun(ctx, opts, st, args[0], formatter)
}

func listRuns(ctx context.Context, opts *HistoryOptions, st *store.Store, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	summaries := lo.Map(runs, func(r store.RunRecord, _ int) RunSummary { return summarizeRun(r) })

	if opts.Format == "json" {
		return formatter.Success(HistoryResult{Runs: summaries})
	}
	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range summaries {
		fmt.Fprintf(w, "%s #%d %s  %s  %s  %d passed, %d failed, %d broken, %d skipped\n",
			passMark(r.Pass), r.Seq, r.ID, r.Mode, r.Root, r.Passed, r.Failed, r.BrokenFixtures, r.Skipped)
	}
	return nil
}

func showRun(ctx context.Context, opts *HistoryOptions, st *store.Store, runID string, formatter *OutputFormatter) error {
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	outs, err := st.ReadOutcomes(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read outcomes", err)
	}
	if opts.Failures {
		outs = lo.Filter(outs, func(o store.OutcomeRecord, _ int) bool { return o.Status != store.StatusPass })
	}

	summary := summarizeRun(run)
	outcomes := lo.Map(outs, func(o store.OutcomeRecord, _ int) OutcomeSummary {
		return OutcomeSummary{
			Seq:     o.Seq,
			Fixture: o.Fixture,
			Place:   o.Place,
			Kind:    o.Kind,
			Status:  o.Status,
			Message: o.Message,
		}
	})

	if opts.Format == "json" {
		return formatter.Success(HistoryResult{Run: &summary, Outcomes: outcomes})
	}
	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (#%d, %s, %s)\n", summary.ID, summary.Seq, summary.Mode, summary.Root)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %s %s [%s]\n", passMark(o.Status == store.StatusPass), o.Place, o.Status)
		if o.Message != "" {
			fmt.Fprintln(w, indent(o.Message, "    "))
		}
	}
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d broken fixtures, %d skipped\n",
		summary.Passed, summary.Failed, summary.BrokenFixtures, summary.Skipped)
	return nil
}

func summarizeRun(r store.RunRecord) RunSummary {
	return RunSummary{
		ID:             r.ID,
		Seq:            r.Seq,
		Root:           r.Root,
		Mode:           r.Mode,
		Passed:         r.Passed,
		Failed:         r.Failed,
		BrokenFixtures: r.BrokenFixtures,
		Skipped:        r.Skipped,
		Pass:           r.Pass,
	}
}

func passMark(pass bool) string {
	if pass {
		return "✓"
	}
	return "✗"
}
