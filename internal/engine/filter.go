package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/snapstate"
)

// DefaultMinLength is the short-segment threshold in projected units.
const DefaultMinLength = 4.0

// isShort reports whether a line must be removed before snapping: no usable
// first part, zero length, or shorter than minLength.
func isShort(l geom.Line, minLength float64) bool {
	if !l.Valid() {
		return true
	}
	length := l.Length()
	return length == 0 || length < minLength
}

// FilterShortSegments deletes every line shorter than minLength, and every
// line with degenerate geometry, from st. Lines tracked by settled are kept.
// It returns one event per deleted line in ascending id order; invalid
// geometry is additionally reported as a warning.
func FilterShortSegments(ctx context.Context, st GeometryStore, minLength float64, settled *snapstate.Tracker, clock *Clock, log *slog.Logger) ([]Event, []*SnapError, error) {
	ids, err := st.List(ctx, func(l geom.Line) bool {
		if settled != nil && settled.Tracked(l.ID) {
			return false
		}
		return isShort(l, minLength)
	})
	if err != nil {
		return nil, nil, NewExternalFailure("list short segments", 0, err)
	}

	var (
		events   []Event
		warnings []*SnapError
	)
	for _, id := range ids {
		line, err := st.Read(ctx, id)
		if err != nil {
			return events, warnings, NewExternalFailure("read short segment", id, err)
		}
		var length float64
		if line.Valid() {
			length = line.Length()
		} else {
			warnings = append(warnings, NewInvalidGeometry(id))
		}

		if err := st.Delete(ctx, id); err != nil {
			return events, warnings, NewExternalFailure("delete short segment", id, err)
		}
		log.Debug("line deleted", "line_id", id, "length", length, "min_length", minLength)
		events = append(events, Event{
			Seq:    clock.Next(),
			Kind:   EventDeleted,
			LineID: id,
			Length: length,
		})
	}
	return events, warnings, nil
}
