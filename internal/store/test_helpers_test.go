package store

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/roach88/vectorcheck/internal/codec"
	"github.com/roach88/vectorcheck/internal/config"
	"github.com/roach88/vectorcheck/internal/harness"
)

// createTestStore opens a fresh store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestResult builds a run with one passing vector, one failing
// vector and one broken fixture.
func createTestResult(runID string) *harness.RunResult {
	return &harness.RunResult{
		RunID:         runID,
		Mode:          config.ModeVerify,
		Root:          "vectors",
		EncodeOptions: codec.Options{"float64": true},
		DecodeOptions: codec.Options{"dupMapKey": "reject", "maxNestedLevels": uint64(16)},
		Fixtures: []harness.FixtureResult{
			{
				Path:  "ints.edn",
				Title: "ints",
				Vectors: []harness.VectorResult{
					{Place: "ints - zero", Description: "zero", Kind: harness.KindRoundTrip},
					{
						Place:       "ints - one",
						Description: "one",
						Kind:        harness.KindRoundTrip,
						Err:         errors.Mark(errors.New("Encoding.  Got h'01', expected h'1801'"), harness.ErrAssertion),
					},
				},
				Skipped: 2,
			},
			{
				Path: "stale.edn",
				Err:  errors.Mark(errors.New(`CBOR out of date for "stale.edn"`), harness.ErrSnapshotDrift),
			},
		},
	}
}
