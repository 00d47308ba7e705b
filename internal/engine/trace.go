package engine

import "github.com/roach88/roadsnap/internal/geom"

// EventKind names a trace event.
type EventKind string

const (
	// EventDeleted: a line was removed by the short-segment filter.
	EventDeleted EventKind = "deleted"
	// EventTruncated: a multipart line was cut down to its first part.
	EventTruncated EventKind = "truncated"
	// EventSnapped: an endpoint was moved onto the anchor.
	EventSnapped EventKind = "snapped"
)

// Event is one geometry change made during a run, stamped by the Clock.
type Event struct {
	Seq    int64
	Kind   EventKind
	LineID int64

	// Snapped events only.
	Role       geom.Role
	AnchorID   int64
	AnchorRole geom.Role
	Case       int
	Distance   float64

	// Deleted events: the measured length. Truncated events: original part count.
	Length float64
	Parts  int
}
