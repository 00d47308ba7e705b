package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/snapstate"
)

type memRow struct {
	line   geom.Line
	status *snapstate.Fields
	seq    int64
}

// MemStore is an in-memory geometry store with the same semantics as Store.
// Lines are deep-copied on the way in and out, so callers never share
// coordinate slices with the store.
type MemStore struct {
	mu   sync.RWMutex
	rows map[int64]*memRow
	runs []RunRecord
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[int64]*memRow)}
}

// Read returns a copy of the line, or ErrNotFound.
func (m *MemStore) Read(_ context.Context, id int64) (geom.Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[id]
	if !ok {
		return geom.Line{}, fmt.Errorf("read line %d: %w", id, ErrNotFound)
	}
	return row.line.Clone(), nil
}

// Write inserts or replaces a line, keeping any persisted status.
func (m *MemStore) Write(_ context.Context, line geom.Line) error {
	if len(line.Parts) == 0 {
		return fmt.Errorf("write line: encode line %d: no parts", line.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[line.ID]
	if !ok {
		m.rows[line.ID] = &memRow{line: line.Clone(), seq: 1}
		return nil
	}
	row.line = line.Clone()
	row.seq++
	return nil
}

// Delete removes a line, or returns ErrNotFound.
func (m *MemStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("delete line %d: %w", id, ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

// List returns ids accepted by keep (nil keeps all), ascending.
func (m *MemStore) List(_ context.Context, keep func(geom.Line) bool) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := []int64{}
	for id, row := range m.rows {
		if keep == nil || keep(row.line.Clone()) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// WriteStatus persists status fields for an existing line.
func (m *MemStore) WriteStatus(_ context.Context, id int64, f snapstate.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("write status of line %d: %w", id, ErrNotFound)
	}
	fields := f
	row.status = &fields
	return nil
}

// ReadStatus returns persisted fields keyed by line id.
func (m *MemStore) ReadStatus(_ context.Context) (map[int64]snapstate.Fields, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int64]snapstate.Fields)
	for id, row := range m.rows {
		if row.status != nil {
			out[id] = *row.status
		}
	}
	return out, nil
}

// Rows returns every line with its status, ascending id.
func (m *MemStore) Rows(ctx context.Context) ([]Row, error) {
	ids, _ := m.List(ctx, nil)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Row, 0, len(ids))
	for _, id := range ids {
		row := m.rows[id]
		r := Row{Line: row.line.Clone()}
		if row.status != nil {
			r.Status = *row.status
			r.HasStatus = true
		}
		out = append(out, r)
	}
	return out, nil
}

// RecordRun appends a run; duplicate ids are ignored.
func (m *MemStore) RecordRun(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.runs {
		if r.ID == rec.ID {
			return nil
		}
	}
	m.runs = append(m.runs, rec)
	return nil
}

// Runs returns recorded runs in insertion order.
func (m *MemStore) Runs(_ context.Context) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RunRecord, len(m.runs))
	copy(out, m.runs)
	return out, nil
}

// Stats counts lines, rewritten lines, tracked lines and finished lines.
func (m *MemStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{Lines: len(m.rows)}
	for _, row := range m.rows {
		if row.seq > 1 {
			st.Edited++
		}
		if row.status == nil {
			continue
		}
		st.Tracked++
		if row.status.Finished {
			st.Finished++
		}
	}
	return st, nil
}
