package harness

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/roach88/vectorcheck/internal/config"
)

// NotationCompiler turns fixture source into binary. label identifies the
// source in error messages.
type NotationCompiler interface {
	Compile(src []byte, label string) ([]byte, error)
}

// Reconciler keeps snapshots in step with fixture sources.
type Reconciler struct {
	compiler NotationCompiler
	mode     config.Mode
}

// NewReconciler creates a reconciler. Modes other than verify and gen are a
// configuration error.
func NewReconciler(compiler NotationCompiler, mode config.Mode) (*Reconciler, error) {
	if _, err := config.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if mode == "" {
		mode = config.ModeVerify
	}
	return &Reconciler{compiler: compiler, mode: mode}, nil
}

// Mode returns the reconciliation mode.
func (r *Reconciler) Mode() config.Mode {
	return r.mode
}

// Reconcile compiles f and returns the compiled bytes. In generate mode
// the snapshot is overwritten; in verify mode it must match byte for byte.
func (r *Reconciler) Reconcile(f *Fixture) ([]byte, error) {
	compiled, err := r.compiler.Compile(f.Source, f.Path)
	if err != nil {
		return nil, err
	}

	switch r.mode {
	case config.ModeGenerate:
		if err := os.WriteFile(f.SnapshotPath, compiled, 0644); err != nil {
			return nil, errors.Wrapf(err, "failed to write snapshot for %q", f.Path)
		}
	default:
		stored, err := os.ReadFile(f.SnapshotPath)
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.Mark(errors.Newf("CBOR snapshot missing for %q", f.Path), ErrSnapshotDrift),
				regenerateHint)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read snapshot for %q", f.Path)
		}
		if !bytes.Equal(stored, compiled) {
			return nil, errors.WithHint(
				errors.Mark(errors.Newf("CBOR out of date for %q", f.Path), ErrSnapshotDrift),
				regenerateHint)
		}
	}
	return compiled, nil
}
