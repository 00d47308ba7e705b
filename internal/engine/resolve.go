package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/snapstate"
)

// pairing is one of the four endpoint combinations checked against the
// anchor. Case numbers are 1-based and double as priority.
type pairing struct {
	Case   int
	Moving geom.Role
	Fixed  geom.Role
}

// casePriority is the fixed evaluation order: end-end, start-end, end-start,
// start-start (moving line first, anchor second).
var casePriority = [4]pairing{
	{Case: 1, Moving: geom.End, Fixed: geom.End},
	{Case: 2, Moving: geom.Start, Fixed: geom.End},
	{Case: 3, Moving: geom.End, Fixed: geom.Start},
	{Case: 4, Moving: geom.Start, Fixed: geom.Start},
}

// Resolver applies the per-neighborhood snapping rules.
// It is used by Engine.Run and is not safe for concurrent use.
type Resolver struct {
	store   GeometryStore
	tracker *snapstate.Tracker
	settled *snapstate.Tracker
	radius  float64
	clock   *Clock
	log     *slog.Logger

	truncated map[int64]bool

	Events                  []Event
	Warnings                []*SnapError
	SnappedPairs            int
	MultipartWarnings       int
	UnresolvedNeighborhoods int
}

// NewResolver creates a resolver writing to st and tracker. Lines tracked by
// settled never move; a nil settled tracker freezes nothing.
func NewResolver(st GeometryStore, tracker, settled *snapstate.Tracker, radius float64, clock *Clock, log *slog.Logger) *Resolver {
	if settled == nil {
		settled = snapstate.New()
	}
	if clock == nil {
		clock = NewClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		store:     st,
		tracker:   tracker,
		settled:   settled,
		radius:    radius,
		clock:     clock,
		log:       log,
		truncated: make(map[int64]bool),
	}
}

// Resolve processes one neighborhood. The anchor is nb.Lines[0]; every other
// line is evaluated once against it, in order. It returns the number of
// endpoints snapped.
func (r *Resolver) Resolve(ctx context.Context, nb Neighborhood) (int, error) {
	if len(nb.Lines) < 2 {
		r.UnresolvedNeighborhoods++
		return 0, nil
	}

	anchor, err := r.load(ctx, nb.Lines[0])
	if err != nil {
		return 0, err
	}

	snapped := 0
	for _, id := range nb.Lines[1:] {
		if err := ctx.Err(); err != nil {
			return snapped, err
		}
		line, err := r.load(ctx, id)
		if err != nil {
			return snapped, err
		}
		ok, err := r.evaluate(ctx, anchor, line)
		if err != nil {
			return snapped, err
		}
		if ok {
			snapped++
		}
	}

	if snapped == 0 {
		r.UnresolvedNeighborhoods++
		r.log.Debug("neighborhood unresolved",
			"code", ErrCodeUnresolvedNeighborhood,
			"anchor", anchor.ID,
			"point", nb.Center.Point,
			"members", len(nb.Lines),
		)
	}
	return snapped, nil
}

// load reads a line and trims it to a single part, persisting the trimmed
// geometry so the warning is raised once per line.
func (r *Resolver) load(ctx context.Context, id int64) (geom.Line, error) {
	line, err := r.store.Read(ctx, id)
	if err != nil {
		return geom.Line{}, NewExternalFailure("read line", id, err)
	}

	parts := line.PartCount()
	trimmed, dropped := geom.TruncateToFirstPart(line)
	if !dropped {
		return line, nil
	}
	if err := r.store.Write(ctx, trimmed); err != nil {
		return geom.Line{}, NewExternalFailure("write truncated line", id, err)
	}
	if !r.truncated[id] {
		r.truncated[id] = true
		r.MultipartWarnings++
		r.Warnings = append(r.Warnings, NewMultipartWarning(id, parts))
	}
	r.log.Warn("multiple parts, extra parts trimmed", "line_id", id, "parts", parts)
	r.Events = append(r.Events, Event{
		Seq:    r.clock.Next(),
		Kind:   EventTruncated,
		LineID: id,
		Parts:  parts,
	})
	return trimmed, nil
}

// evaluate checks the four pairings of line against anchor and applies the
// first one that qualifies. A pairing qualifies when its distance is within
// the radius, equals the smallest non-zero distance of the four, and the
// moving endpoint is still unresolved. Settled lines are never moved.
func (r *Resolver) evaluate(ctx context.Context, anchor, line geom.Line) (bool, error) {
	if line.ID == anchor.ID {
		return false, nil
	}
	if r.settled.Tracked(line.ID) {
		r.log.Debug("settled line kept", "line_id", line.ID, "anchor", anchor.ID)
		return false, nil
	}

	var dist [4]float64
	benchmark := math.Inf(1)
	for i, p := range casePriority {
		dist[i] = geom.Distance(line.Terminal(p.Moving), anchor.Terminal(p.Fixed))
		if dist[i] > 0 && dist[i] < benchmark {
			benchmark = dist[i]
		}
	}
	if math.IsInf(benchmark, 1) {
		// every pairing coincides; nothing to close
		return false, nil
	}

	for i, p := range casePriority {
		if dist[i] > r.radius || dist[i] != benchmark {
			continue
		}
		if r.tracker.Get(line.ID, p.Moving).Done() {
			continue
		}
		return true, r.apply(ctx, anchor, line, p, dist[i])
	}
	return false, nil
}

func (r *Resolver) apply(ctx context.Context, anchor, line geom.Line, p pairing, d float64) error {
	target := anchor.Terminal(p.Fixed)
	updated, err := geom.ReplaceTerminal(line, p.Moving, target)
	if err != nil {
		return NewExternalFailure("rebuild geometry", line.ID, err)
	}
	if err := r.store.Write(ctx, updated); err != nil {
		return NewExternalFailure("write snapped line", line.ID, err)
	}

	if err := r.tracker.Set(line.ID, p.Moving, snapstate.SnappedDone); err != nil {
		return NewStateViolation(line.ID, err)
	}
	if r.tracker.Get(anchor.ID, p.Fixed) == snapstate.Unresolved {
		if err := r.tracker.Set(anchor.ID, p.Fixed, snapstate.StaticDone); err != nil {
			return NewStateViolation(anchor.ID, err)
		}
	}

	r.SnappedPairs++
	r.Events = append(r.Events, Event{
		Seq:        r.clock.Next(),
		Kind:       EventSnapped,
		LineID:     line.ID,
		Role:       p.Moving,
		AnchorID:   anchor.ID,
		AnchorRole: p.Fixed,
		Case:       p.Case,
		Distance:   d,
	})
	r.log.Debug("endpoint snapped",
		"line_id", line.ID,
		"role", p.Moving.String(),
		"anchor", anchor.ID,
		"anchor_role", p.Fixed.String(),
		"case", p.Case,
		"distance", d,
	)
	return nil
}
