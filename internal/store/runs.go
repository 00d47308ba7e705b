package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RunRecord is one row of run history.
type RunRecord struct {
	ID                      string    `json:"id"`
	StartedAt               time.Time `json:"started_at"`
	Radius                  float64   `json:"radius"`
	MinLength               float64   `json:"min_length"`
	Deleted                 int       `json:"deleted"`
	MultipartWarnings       int       `json:"multipart_warnings"`
	SnappedPairs            int       `json:"snapped_pairs"`
	Neighborhoods           int       `json:"neighborhoods"`
	UnresolvedNeighborhoods int       `json:"unresolved_neighborhoods"`
}

// Stats summarizes the lines table.
type Stats struct {
	Lines int `json:"lines"`
	// Edited counts lines whose geometry was rewritten after import.
	Edited   int `json:"edited"`
	Tracked  int `json:"tracked"`
	Finished int `json:"finished"`
}

// RecordRun appends a run to the history. Recording the same id twice is a
// no-op.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, radius, min_length, deleted, multipart_warnings,
		 snapped_pairs, neighborhoods, unresolved_neighborhoods)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.Radius,
		rec.MinLength,
		rec.Deleted,
		rec.MultipartWarnings,
		rec.SnappedPairs,
		rec.Neighborhoods,
		rec.UnresolvedNeighborhoods,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.ID, err)
	}
	return nil
}

// Runs returns the run history, oldest first. Ids are UUIDv7, so id order
// is creation order.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, radius, min_length, deleted, multipart_warnings,
		       snapped_pairs, neighborhoods, unresolved_neighborhoods
		FROM runs
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// LastRun returns the most recent run, if any.
func (s *Store) LastRun(ctx context.Context) (RunRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, radius, min_length, deleted, multipart_warnings,
		       snapped_pairs, neighborhoods, unresolved_neighborhoods
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT 1
	`)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, false, nil
	}
	if err != nil {
		return RunRecord{}, false, err
	}
	return rec, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (RunRecord, error) {
	var (
		rec     RunRecord
		started string
	)
	err := r.Scan(
		&rec.ID,
		&started,
		&rec.Radius,
		&rec.MinLength,
		&rec.Deleted,
		&rec.MultipartWarnings,
		&rec.SnappedPairs,
		&rec.Neighborhoods,
		&rec.UnresolvedNeighborhoods,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan run: %w", err)
	}
	rec.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return rec, fmt.Errorf("parse started_at of run %s: %w", rec.ID, err)
	}
	return rec, nil
}

// Stats counts lines, rewritten lines, lines with committed status, and
// finished lines.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN seq > 1 THEN 1 END),
			COUNT(CASE WHEN snap_start IS NOT NULL OR snap_end IS NOT NULL THEN 1 END),
			COUNT(CASE WHEN snap_status = 'finished' THEN 1 END)
		FROM lines
	`).Scan(&st.Lines, &st.Edited, &st.Tracked, &st.Finished)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
