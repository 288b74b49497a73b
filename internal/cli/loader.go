package cli

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/config"
)

// loadConfig reads --config, or vectorcheck.yaml from the working
// directory when present. A relative root in an explicit config file is
// resolved against the file's directory.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath == "" {
		return config.LoadDir(".")
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(opts.ConfigPath), cfg.Root)
	}
	return cfg, nil
}

// newLogger returns a text logger at Info, or Debug when verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// corpusFlags are the corpus selection flags shared by run and validate.
type corpusFlags struct {
	Extension string
	Filter    string
}

func (f *corpusFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Extension, "ext", "", "fixture file extension (default from config, .edn)")
	cmd.Flags().StringVar(&f.Filter, "filter", "", "filter fixtures by glob pattern")
}

// apply overlays positional root and flags on cfg and validates the result.
func (f *corpusFlags) apply(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.Root = args[0]
	}
	if f.Extension != "" {
		cfg.Extension = f.Extension
	}
	if f.Filter != "" {
		cfg.Filter = f.Filter
	}
	return cfg.Validate()
}
