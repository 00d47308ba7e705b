package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/snapstate"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Read returns the line with the given id, or ErrNotFound.
func (s *Store) Read(ctx context.Context, id int64) (geom.Line, error) {
	var (
		blob  []byte
		attrs string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT geom, attrs FROM lines WHERE id = ?
	`, id).Scan(&blob, &attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return geom.Line{}, fmt.Errorf("read line %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return geom.Line{}, fmt.Errorf("read line %d: %w", id, err)
	}
	return scanLine(id, blob, attrs)
}

func scanLine(id int64, blob []byte, attrs string) (geom.Line, error) {
	line, err := decodeGeometry(id, blob)
	if err != nil {
		return geom.Line{}, err
	}
	line.Attrs, err = decodeAttrs(attrs)
	if err != nil {
		return geom.Line{}, fmt.Errorf("line %d: %w", id, err)
	}
	return line, nil
}

// Write inserts or replaces the geometry and attributes of a line. Persisted
// status fields are kept.
func (s *Store) Write(ctx context.Context, line geom.Line) error {
	return writeLine(ctx, s.db, line)
}

// WriteTx is Write inside a caller-managed transaction.
func (s *Store) WriteTx(ctx context.Context, tx *sql.Tx, line geom.Line) error {
	return writeLine(ctx, tx, line)
}

func writeLine(ctx context.Context, db execer, line geom.Line) error {
	blob, err := encodeGeometry(line)
	if err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	attrs, err := encodeAttrs(line.Attrs)
	if err != nil {
		return fmt.Errorf("write line %d: %w", line.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO lines (id, geom, parts, length, attrs, seq)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			geom   = excluded.geom,
			parts  = excluded.parts,
			length = excluded.length,
			attrs  = excluded.attrs,
			seq    = lines.seq + 1
	`,
		line.ID,
		blob,
		line.PartCount(),
		line.Length(),
		attrs,
	)
	if err != nil {
		return fmt.Errorf("write line %d: %w", line.ID, err)
	}
	return nil
}

// Delete removes a line, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete line %d: %w", id, err)
	}
	return requireRow(res, "delete", id)
}

func requireRow(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s line %d: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s line %d: %w", op, id, ErrNotFound)
	}
	return nil
}

// List returns the ids of lines accepted by keep, ascending. A nil keep
// selects every line without decoding geometry.
func (s *Store) List(ctx context.Context, keep func(geom.Line) bool) ([]int64, error) {
	if keep == nil {
		return s.listIDs(ctx)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, geom, attrs FROM lines ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var (
			id    int64
			blob  []byte
			attrs string
		)
		if err := rows.Scan(&id, &blob, &attrs); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		line, err := scanLine(id, blob, attrs)
		if err != nil {
			return nil, err
		}
		if keep(line) {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}
	return ids, nil
}

func (s *Store) listIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM lines ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

// WriteStatus persists the committed status fields of a line.
func (s *Store) WriteStatus(ctx context.Context, id int64, f snapstate.Fields) error {
	var status sql.NullString
	if f.Finished {
		status = sql.NullString{String: snapstate.TextFinished, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE lines SET snap_start = ?, snap_end = ?, snap_status = ?
		WHERE id = ?
	`, f.SnapStart, f.SnapEnd, status, id)
	if err != nil {
		return fmt.Errorf("write status %d: %w", id, err)
	}
	return requireRow(res, "write status of", id)
}

// ReadStatus returns the persisted fields of every line a commit pass has
// reached, keyed by id.
func (s *Store) ReadStatus(ctx context.Context) (map[int64]snapstate.Fields, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, snap_start, snap_end, snap_status
		FROM lines
		WHERE snap_start IS NOT NULL OR snap_end IS NOT NULL
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]snapstate.Fields)
	for rows.Next() {
		var (
			id                 int64
			start, end, status sql.NullString
		)
		if err := rows.Scan(&id, &start, &end, &status); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out[id] = snapstate.Fields{
			SnapStart: start.String,
			SnapEnd:   end.String,
			Finished:  status.String == snapstate.TextFinished,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status: %w", err)
	}
	return out, nil
}

// Row is a line together with its persisted status, as exported.
type Row struct {
	Line   geom.Line
	Status snapstate.Fields
	// HasStatus is false until a commit pass reached the line.
	HasStatus bool
}

// Rows returns every line with its status, ascending id.
func (s *Store) Rows(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, geom, attrs, snap_start, snap_end, snap_status
		FROM lines ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			id                 int64
			blob               []byte
			attrs              string
			start, end, status sql.NullString
		)
		if err := rows.Scan(&id, &blob, &attrs, &start, &end, &status); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		line, err := scanLine(id, blob, attrs)
		if err != nil {
			return nil, err
		}
		out = append(out, Row{
			Line: line,
			Status: snapstate.Fields{
				SnapStart: start.String,
				SnapEnd:   end.String,
				Finished:  status.String == snapstate.TextFinished,
			},
			HasStatus: start.Valid || end.Valid,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
