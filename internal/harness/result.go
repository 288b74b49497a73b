package harness

import (
	"github.com/roach88/vectorcheck/internal/codec"
	"github.com/roach88/vectorcheck/internal/config"
)

// RunResult is the outcome of one run over a corpus.
type RunResult struct {
	RunID    string
	Mode     config.Mode
	Root     string
	Fixtures []FixtureResult

	// EncodeOptions and DecodeOptions are the corpus defaults of the run.
	EncodeOptions codec.Options
	DecodeOptions codec.Options
}

// FixtureResult is the outcome of one fixture. When Err is set the fixture
// could not be compiled, reconciled or decoded and no vector ran.
type FixtureResult struct {
	Path    string
	Title   string
	Meta    map[string]any
	Err     error
	Vectors []VectorResult

	// Skipped counts vectors left out by an "only" focus.
	Skipped int
}

// VectorResult is the outcome of one vector.
type VectorResult struct {
	Place       string
	Description string
	Kind        VectorKind
	Err         error

	// Log is the diagnostic output requested by the vector's log flag.
	Log string
}

// Pass reports whether the vector passed.
func (v VectorResult) Pass() bool { return v.Err == nil }

// Pass reports whether the fixture and all of its vectors passed.
func (f FixtureResult) Pass() bool {
	if f.Err != nil {
		return false
	}
	for _, v := range f.Vectors {
		if !v.Pass() {
			return false
		}
	}
	return true
}

// Label is the group name used for the fixture's vectors.
func (f FixtureResult) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Path
}

// Pass reports whether every fixture passed.
func (r *RunResult) Pass() bool {
	for _, f := range r.Fixtures {
		if !f.Pass() {
			return false
		}
	}
	return true
}

// Counts returns passed and failed vectors, failed fixtures, and vectors
// skipped by focus.
func (r *RunResult) Counts() (passed, failed, brokenFixtures, skipped int) {
	for _, f := range r.Fixtures {
		if f.Err != nil {
			brokenFixtures++
		}
		skipped += f.Skipped
		for _, v := range f.Vectors {
			if v.Pass() {
				passed++
			} else {
				failed++
			}
		}
	}
	return passed, failed, brokenFixtures, skipped
}
