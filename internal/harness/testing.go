package harness

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/roach88/vectorcheck/internal/config"
)

// RunTests runs a corpus as go subtests: "File <path>" per fixture and
// "<title> - <description>" per vector. When opts.Mode is empty the mode
// comes from VECTOR_MODE.
func RunTests(t *testing.T, opts Options) {
	t.Helper()

	if opts.Mode == "" {
		mode, err := config.ModeFromEnv()
		if err != nil {
			t.Fatal(err)
		}
		opts.Mode = mode
	}

	r, err := NewRunner(opts)
	if err != nil {
		t.Fatal(err)
	}
	paths, err := r.Discover()
	if err != nil {
		t.Fatal(err)
	}

	registry := NewEncodingRegistry()
	for _, path := range paths {
		t.Run("File "+path, func(t *testing.T) {
			fr := r.runFixture(r.reconciler, registry, path, true)
			if fr.Err != nil {
				t.Fatal(describeError(fr.Err))
			}
			for _, vr := range fr.Vectors {
				t.Run(vr.Place, func(t *testing.T) {
					if vr.Log != "" {
						t.Log(vr.Log)
					}
					if vr.Err != nil {
						t.Error(vr.Err)
					}
				})
			}
		})
	}
}

// describeError appends any hints to the error message.
func describeError(err error) string {
	msg := err.Error()
	if hint := errors.FlattenHints(err); hint != "" {
		msg += "\n" + hint
	}
	return msg
}
