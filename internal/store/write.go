package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/vectorcheck/internal/harness"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WriteRun inserts a run. A zero Seq is replaced by the next logical
// sequence number. Uses ON CONFLICT DO NOTHING for idempotency.
// Returns the record as stored.
func (s *Store) WriteRun(ctx context.Context, run RunRecord) (RunRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunRecord{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback()

	run, err = writeRun(ctx, tx, run)
	if err != nil {
		return RunRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

func writeRun(ctx context.Context, db execer, run RunRecord) (RunRecord, error) {
	encJSON, err := marshalOptions(run.EncodeOptions)
	if err != nil {
		return RunRecord{}, fmt.Errorf("write run: %w", err)
	}
	decJSON, err := marshalOptions(run.DecodeOptions)
	if err != nil {
		return RunRecord{}, fmt.Errorf("write run: %w", err)
	}

	if run.Seq == 0 {
		if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
			return RunRecord{}, fmt.Errorf("write run: next seq: %w", err)
		}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, root, mode, encode_options, decode_options, passed, failed, broken_fixtures, skipped, pass)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Root,
		run.Mode,
		encJSON,
		decJSON,
		run.Passed,
		run.Failed,
		run.BrokenFixtures,
		run.Skipped,
		run.Pass,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("write run: %w", err)
	}
	return run, nil
}

// WriteOutcome inserts an outcome. An empty ID is computed with OutcomeID.
// Duplicate IDs are silently ignored.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteOutcome(ctx context.Context, out OutcomeRecord) error {
	return writeOutcome(ctx, s.db, out)
}

func writeOutcome(ctx context.Context, db execer, out OutcomeRecord) error {
	if out.ID == "" {
		id, err := OutcomeID(out.RunID, out.Seq, out.Place)
		if err != nil {
			return fmt.Errorf("write outcome: %w", err)
		}
		out.ID = id
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO outcomes
		(id, run_id, seq, fixture, place, kind, status, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		out.ID,
		out.RunID,
		out.Seq,
		out.Fixture,
		out.Place,
		out.Kind,
		out.Status,
		out.Message,
	)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}

// RecordRun atomically writes a run result and all of its outcomes.
func (s *Store) RecordRun(ctx context.Context, result *harness.RunResult) (RunRecord, error) {
	run := NewRunRecord(result)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunRecord{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback()

	if run, err = writeRun(ctx, tx, run); err != nil {
		return RunRecord{}, err
	}
	for _, out := range Outcomes(result) {
		if err := writeOutcome(ctx, tx, out); err != nil {
			return RunRecord{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// NewRunRecord summarises a run result. Seq is left for WriteRun.
func NewRunRecord(result *harness.RunResult) RunRecord {
	passed, failed, broken, skipped := result.Counts()
	return RunRecord{
		ID:             result.RunID,
		Root:           result.Root,
		Mode:           string(result.Mode),
		EncodeOptions:  result.EncodeOptions,
		DecodeOptions:  result.DecodeOptions,
		Passed:         passed,
		Failed:         failed,
		BrokenFixtures: broken,
		Skipped:        skipped,
		Pass:           result.Pass(),
	}
}

// Outcomes flattens a run result into outcome rows numbered from 1.
func Outcomes(result *harness.RunResult) []OutcomeRecord {
	var outs []OutcomeRecord
	add := func(fixture, place, kind string, err error) {
		out := OutcomeRecord{
			RunID:   result.RunID,
			Seq:     int64(len(outs) + 1),
			Fixture: fixture,
			Place:   place,
			Kind:    kind,
			Status:  StatusPass,
		}
		if err != nil {
			out.Status = harness.Category(err)
			out.Message = err.Error()
		}
		outs = append(outs, out)
	}

	for _, f := range result.Fixtures {
		if f.Err != nil {
			add(f.Path, f.Path, KindFixture, f.Err)
			continue
		}
		for _, v := range f.Vectors {
			add(f.Path, v.Place, v.Kind.String(), v.Err)
		}
	}
	return outs
}
