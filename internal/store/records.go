package store

import (
	"github.com/roach88/vectorcheck/internal/codec"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID   string
	Seq  int64
	Root string
	Mode string

	EncodeOptions codec.Options
	DecodeOptions codec.Options

	Passed         int
	Failed         int
	BrokenFixtures int
	Skipped        int
	Pass           bool
}

// OutcomeRecord is one row of the outcomes table.
type OutcomeRecord struct {
	ID      string
	RunID   string
	Seq     int64
	Fixture string
	Place   string

	// Kind is the vector kind, or "fixture" for a fixture that did not load.
	Kind string

	// Status is "pass" or the error category of the failure.
	Status  string
	Message string
}

// KindFixture marks outcomes recorded for a whole fixture.
const KindFixture = "fixture"

// StatusPass marks a passing outcome.
const StatusPass = "pass"
