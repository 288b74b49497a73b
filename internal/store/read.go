package store

import (
	"context"
	"database/sql"
	"fmt"
)

const runColumns = `id, seq, root, mode, encode_options, decode_options, passed, failed, broken_fixtures, skipped, pass`

type rowScanner interface {
	Scan(dest ...any) error
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ReadOutcomes returns the outcomes of a run ordered by seq ASC, id ASC.
//
// Returns an empty slice (not nil) if the run has no outcomes.
func (s *Store) ReadOutcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, seq, fixture, place, kind, status, message
		FROM outcomes
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outs := []OutcomeRecord{}
	for rows.Next() {
		var out OutcomeRecord
		if err := rows.Scan(
			&out.ID, &out.RunID, &out.Seq, &out.Fixture,
			&out.Place, &out.Kind, &out.Status, &out.Message,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outs = append(outs, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outs, nil
}

// CountFailures returns the number of non-passing outcomes of a run.
func (s *Store) CountFailures(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM outcomes
		WHERE run_id = ? AND status != ?
	`, runID, StatusPass).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failures: %w", err)
	}
	return count, nil
}

func scanRun(row rowScanner) (RunRecord, error) {
	var run RunRecord
	var encJSON, decJSON string
	if err := row.Scan(
		&run.ID, &run.Seq, &run.Root, &run.Mode, &encJSON, &decJSON,
		&run.Passed, &run.Failed, &run.BrokenFixtures, &run.Skipped, &run.Pass,
	); err != nil {
		return RunRecord{}, err
	}

	var err error
	if run.EncodeOptions, err = unmarshalOptions(encJSON); err != nil {
		return RunRecord{}, err
	}
	if run.DecodeOptions, err = unmarshalOptions(decJSON); err != nil {
		return RunRecord{}, err
	}
	return run, nil
}

var _ rowScanner = (*sql.Row)(nil)
