package harness

import (
	"context"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/roach88/vectorcheck/internal/codec"
	"github.com/roach88/vectorcheck/internal/config"
	"github.com/roach88/vectorcheck/internal/edn"
)

// Options configures a Runner. Zero values take the defaults noted.
type Options struct {
	// Root is the corpus directory. Required.
	Root string

	// Extension selects fixtures. Default ".edn".
	Extension string

	// SnapshotExtension names snapshots. Default ".cbor".
	SnapshotExtension string

	// Filter is an optional glob on fixture names.
	Filter string

	// Mode selects snapshot regeneration or verification. Default verify.
	Mode config.Mode

	// Codec is the codec under test. Default codec.NewCBOR().
	Codec codec.Codec

	// Registry holds notation extensions. Default DefaultRegistry().
	Registry *edn.Registry

	// EncodeOptions and DecodeOptions sit under each document's options.
	EncodeOptions codec.Options
	DecodeOptions codec.Options

	// Logger receives progress and "log" vector output. Default discards.
	Logger *slog.Logger

	// IDs generates run IDs. Default UUIDv7Generator.
	IDs RunIDGenerator
}

// documentOptions decode the fixture document itself.
var documentOptions = codec.Options{"keepNanPayloads": true}

// Runner executes a corpus.
type Runner struct {
	opts       Options
	compiler   *edn.Compiler
	reconciler *Reconciler
	logger     *slog.Logger
}

// NewRunner validates opts and fills in defaults.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Root == "" {
		return nil, errors.Mark(errors.New("corpus root must be set"), config.ErrConfiguration)
	}
	if opts.Extension == "" {
		opts.Extension = ".edn"
	}
	if opts.SnapshotExtension == "" {
		opts.SnapshotExtension = ".cbor"
	}
	if opts.Extension == opts.SnapshotExtension {
		return nil, errors.Mark(errors.New("fixture and snapshot extensions must differ"), config.ErrConfiguration)
	}
	if opts.Codec == nil {
		opts.Codec = codec.NewCBOR()
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}

	compiler := edn.NewCompiler(opts.Registry)
	reconciler, err := NewReconciler(compiler, opts.Mode)
	if err != nil {
		return nil, err
	}
	opts.Mode = reconciler.Mode()

	return &Runner{
		opts:       opts,
		compiler:   compiler,
		reconciler: reconciler,
		logger:     opts.Logger,
	}, nil
}

// Mode returns the snapshot mode of the runner.
func (r *Runner) Mode() config.Mode {
	return r.opts.Mode
}

// Discover lists the fixtures to run, filtered and sorted.
func (r *Runner) Discover() ([]string, error) {
	paths, err := FindFixtures(r.opts.Root, r.opts.Extension)
	if err != nil {
		return nil, err
	}
	return FilterFixtures(paths, r.opts.Filter, r.opts.Extension)
}

// Run executes every fixture in order. The returned error covers problems
// with the run itself; fixture and vector failures are in the result.
// Cancelling ctx stops the run between fixtures.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	return r.walk(ctx, r.reconciler, true)
}

// Validate compiles, verifies and decodes every fixture and checks vector
// shapes and encoding uniqueness without running the codec on vectors.
// Snapshots are never written.
func (r *Runner) Validate(ctx context.Context) (*RunResult, error) {
	reconciler, err := NewReconciler(r.compiler, config.ModeVerify)
	if err != nil {
		return nil, err
	}
	return r.walk(ctx, reconciler, false)
}

func (r *Runner) walk(ctx context.Context, reconciler *Reconciler, execute bool) (*RunResult, error) {
	paths, err := r.Discover()
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:         r.opts.IDs.Generate(),
		Mode:          reconciler.Mode(),
		Root:          r.opts.Root,
		EncodeOptions: r.opts.EncodeOptions,
		DecodeOptions: r.opts.DecodeOptions,
	}
	r.logger.Info("starting run",
		"run_id", result.RunID,
		"root", r.opts.Root,
		"mode", string(result.Mode),
		"fixtures", len(paths),
	)

	registry := NewEncodingRegistry()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Fixtures = append(result.Fixtures, r.runFixture(reconciler, registry, path, execute))
	}

	passed, failed, broken, skipped := result.Counts()
	r.logger.Info("run complete",
		"run_id", result.RunID,
		"passed", passed,
		"failed", failed,
		"broken_fixtures", broken,
		"skipped", skipped,
	)
	return result, nil
}

// runFixture loads one fixture and runs or checks its selected vectors.
func (r *Runner) runFixture(reconciler *Reconciler, registry *EncodingRegistry, path string, execute bool) FixtureResult {
	fr := FixtureResult{Path: path}

	doc, err := r.loadDocument(reconciler, path)
	if err != nil {
		r.logger.Warn("fixture failed", "path", path, "error", err)
		fr.Err = err
		return fr
	}
	fr.Title = doc.Title
	fr.Meta = doc.Meta

	vectors, skipped := SelectVectors(doc.Tests)
	fr.Skipped = skipped

	exec := NewExecutor(r.opts.Codec, registry, r.logger, r.opts.EncodeOptions, r.opts.DecodeOptions)
	label := fr.Label()
	for _, v := range vectors {
		var vr VectorResult
		if execute {
			vr = exec.Execute(doc, label, v)
		} else {
			vr = exec.Check(doc, label, v)
		}
		if vr.Err != nil {
			r.logger.Debug("vector failed", "place", vr.Place, "kind", vr.Kind.String(), "error", vr.Err)
		}
		fr.Vectors = append(fr.Vectors, vr)
	}

	r.logger.Debug("fixture done", "path", path, "vectors", len(fr.Vectors), "skipped", skipped)
	return fr
}

func (r *Runner) loadDocument(reconciler *Reconciler, path string) (*Document, error) {
	f, err := LoadFixture(r.opts.Root, path, r.opts.Extension, r.opts.SnapshotExtension)
	if err != nil {
		return nil, err
	}
	compiled, err := reconciler.Reconcile(f)
	if err != nil {
		return nil, err
	}
	decoded, err := r.opts.Codec.Decode(compiled, documentOptions)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to decode %q", path), ErrCodec)
	}
	doc, err := ParseDocument(decoded)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return doc, nil
}
