// Package snapstate tracks per-endpoint snapping progress for a run.
//
// Every tracked line has two status slots, one per endpoint. A slot starts
// Unresolved and may move exactly once to SnappedDone or StaticDone; after
// that it is final for the rest of the run. Set enforces this: rewriting a
// final slot is a programming error and is reported, not ignored.
//
// The tracker is owned by a single engine run and is not safe for concurrent
// use.
package snapstate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/roadsnap/internal/geom"
)

// Status is the snapping state of one endpoint.
type Status int

const (
	// Unresolved means the endpoint has not taken part in a snap.
	Unresolved Status = iota
	// SnappedDone means the endpoint was moved onto another line's endpoint.
	SnappedDone
	// StaticDone means another endpoint was moved onto this one.
	StaticDone
)

// Done reports whether the status is final.
func (s Status) Done() bool {
	return s == SnappedDone || s == StaticDone
}

// String returns the persisted text form.
func (s Status) String() string {
	switch s {
	case SnappedDone:
		return TextSnapped
	case StaticDone:
		return TextStatic
	default:
		return TextUnresolved
	}
}

// Persisted text values, kept identical to the fields downstream tooling reads.
const (
	TextUnresolved = ""
	TextSnapped    = "snapped - done"
	TextStatic     = "static - done"
	TextFinished   = "finished"
)

var (
	// ErrStatusFinal is returned by Set when the endpoint already has a final status.
	ErrStatusFinal = errors.New("snapstate: endpoint status is final")
	// ErrInvalidStatus is returned by Set for a target status that is not final.
	ErrInvalidStatus = errors.New("snapstate: target status must be snapped or static")
)

// Record holds both endpoint statuses of one line.
type Record struct {
	Start Status
	End   Status
}

// Get returns the status for a role.
func (r Record) Get(role geom.Role) Status {
	if role == geom.Start {
		return r.Start
	}
	return r.End
}

// Finished reports whether both endpoints are final.
func (r Record) Finished() bool {
	return r.Start.Done() && r.End.Done()
}

// Tracker maps line ids to their endpoint records.
type Tracker struct {
	records map[int64]*Record
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{records: make(map[int64]*Record)}
}

// Ensure creates an all-unresolved record for lineID if none exists.
func (t *Tracker) Ensure(lineID int64) {
	if _, ok := t.records[lineID]; !ok {
		t.records[lineID] = &Record{}
	}
}

// Tracked reports whether lineID has a record.
func (t *Tracker) Tracked(lineID int64) bool {
	_, ok := t.records[lineID]
	return ok
}

// Get returns the status of one endpoint. Untracked lines are Unresolved.
func (t *Tracker) Get(lineID int64, role geom.Role) Status {
	rec, ok := t.records[lineID]
	if !ok {
		return Unresolved
	}
	return rec.Get(role)
}

// Set moves an endpoint from Unresolved to a final status.
// The line is tracked implicitly if it was not already.
func (t *Tracker) Set(lineID int64, role geom.Role, s Status) error {
	if !s.Done() {
		return fmt.Errorf("set line %d %s to %d: %w", lineID, role, int(s), ErrInvalidStatus)
	}
	t.Ensure(lineID)
	rec := t.records[lineID]

	slot := &rec.End
	if role == geom.Start {
		slot = &rec.Start
	}
	if slot.Done() {
		return fmt.Errorf("set line %d %s to %q (currently %q): %w", lineID, role, s, *slot, ErrStatusFinal)
	}
	*slot = s
	return nil
}

// Lines returns tracked line ids in ascending order.
func (t *Tracker) Lines() []int64 {
	ids := make([]int64, 0, len(t.records))
	for id := range t.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of tracked lines.
func (t *Tracker) Len() int {
	return len(t.records)
}
