package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/proximity"
	"github.com/roach88/roadsnap/internal/snapstate"
	"github.com/roach88/roadsnap/internal/store"
)

// DefaultRadius is the default snap radius in projected units.
const DefaultRadius = 4.0

// Config holds the parameters of a run.
type Config struct {
	// Radius is the maximum distance at which two endpoints merge.
	Radius float64
	// MinLength is the short-segment threshold.
	MinLength float64
	// MaxNeighbors caps near-table rows per endpoint (see proximity.QuadtreeIndex).
	MaxNeighbors int
	// ReloadStatus seeds the tracker from persisted status fields.
	ReloadStatus bool
}

// DefaultConfig returns radius 4, min length 4, six neighbors, fresh status.
func DefaultConfig() Config {
	return Config{
		Radius:       DefaultRadius,
		MinLength:    DefaultMinLength,
		MaxNeighbors: proximity.DefaultMaxNeighbors,
	}
}

// Validate rejects negative parameters.
func (c Config) Validate() error {
	if c.Radius < 0 {
		return fmt.Errorf("snap radius must be >= 0, got %v", c.Radius)
	}
	if c.MinLength < 0 {
		return fmt.Errorf("min length must be >= 0, got %v", c.MinLength)
	}
	return nil
}

// Result summarizes a run.
type Result struct {
	RunID  string
	Config Config

	Deleted                 int
	MultipartWarnings       int
	SnappedPairs            int
	Neighborhoods           int
	UnresolvedNeighborhoods int

	// Lines holds the committed status of every tracked line, ascending id.
	Lines []snapstate.Committed

	// Events is the ordered geometry change log.
	Events []Event

	// Warnings lists non-fatal per-line conditions.
	Warnings []*SnapError

	Duration time.Duration
}

// Mutations counts geometry changes made by the run, deletions included.
func (r *Result) Mutations() int {
	return len(r.Events)
}

// Engine runs endpoint snapping over a GeometryStore.
//
// INVARIANTS:
//   - One proximity query per run, issued after filtering.
//   - Neighborhoods are processed in Plan order, each exactly once.
//   - A tracker slot changes at most once per run.
type Engine struct {
	store  GeometryStore
	index  proximity.Index
	cfg    Config
	log    *slog.Logger
	runIDs RunIDGenerator
	clock  *Clock
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndex replaces the default quadtree proximity index.
func WithIndex(idx proximity.Index) Option {
	return func(e *Engine) {
		e.index = idx
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithNow overrides the wall clock used for run timestamps and durations.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine. The config is validated here so Run only fails on
// collaborator errors.
func New(st GeometryStore, cfg Config, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, errors.New("engine: nil geometry store")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		store:  st,
		cfg:    cfg,
		log:    slog.Default(),
		runIDs: UUIDv7Generator{},
		clock:  NewClock(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.index == nil {
		e.index = proximity.NewQuadtreeIndex(cfg.MaxNeighbors)
	}
	return e, nil
}

// Run executes one snapping pass: filter, extract, query, resolve, commit.
//
// A fatal error aborts the pass immediately. Geometry already written stays
// written; status fields are only committed when resolution completes.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	started := e.now()
	res := &Result{
		RunID:  e.runIDs.Generate(),
		Config: e.cfg,
	}
	log := e.log.With("run_id", res.RunID)
	log.Info("snap run starting", "radius", e.cfg.Radius, "min_length", e.cfg.MinLength)

	tracker, settled, err := e.loadTracker(ctx)
	if err != nil {
		return res, err
	}
	if settled.Len() > 0 {
		log.Info("persisted status reloaded", "settled_lines", settled.Len())
	}

	deleted, warnings, err := FilterShortSegments(ctx, e.store, e.cfg.MinLength, settled, e.clock, log)
	res.Events = append(res.Events, deleted...)
	res.Warnings = append(res.Warnings, warnings...)
	res.Deleted = len(deleted)
	if err != nil {
		return res, err
	}
	log.Info("short segments removed", "deleted", res.Deleted)

	ids, err := e.store.List(ctx, nil)
	if err != nil {
		return res, NewExternalFailure("list lines", 0, err)
	}
	points, err := ExtractEndpoints(ctx, e.store, ids)
	if err != nil {
		return res, err
	}

	cands, err := e.index.Query(ctx, points, e.cfg.Radius)
	if err != nil {
		return res, NewExternalFailure("proximity query", 0, err)
	}
	plan := BuildNeighborhoods(cands)
	res.Neighborhoods = len(plan.Neighborhoods)
	log.Info("near table built",
		"lines", len(ids),
		"endpoints", len(points),
		"candidates", len(cands),
		"participants", len(plan.NearDist),
		"neighborhoods", res.Neighborhoods,
	)

	for _, id := range plan.Participants() {
		tracker.Ensure(id)
	}

	resolver := NewResolver(e.store, tracker, settled, e.cfg.Radius, e.clock, log)
	for _, nb := range plan.Neighborhoods {
		if _, err := resolver.Resolve(ctx, nb); err != nil {
			e.collect(res, resolver)
			return res, err
		}
	}
	e.collect(res, resolver)

	res.Lines, err = e.commit(ctx, tracker, log)
	if err != nil {
		return res, err
	}

	res.Duration = e.now().Sub(started)
	if rec, ok := e.store.(RunRecorder); ok {
		if err := rec.RecordRun(ctx, runRecord(res, started)); err != nil {
			return res, NewExternalFailure("record run", 0, err)
		}
	}

	log.Info("snap run finished",
		"deleted", res.Deleted,
		"multipart", res.MultipartWarnings,
		"snapped_pairs", res.SnappedPairs,
		"neighborhoods", res.Neighborhoods,
		"unresolved", res.UnresolvedNeighborhoods,
		"events", e.clock.Current(),
		"duration", res.Duration,
	)
	return res, nil
}

// loadTracker returns the tracker for this run and the set of settled lines.
// Settled lines carry status from an earlier run; they are neither filtered
// nor moved again, but may still anchor a neighborhood. Without ReloadStatus
// both start empty.
func (e *Engine) loadTracker(ctx context.Context) (tracker, settled *snapstate.Tracker, err error) {
	if !e.cfg.ReloadStatus {
		return snapstate.New(), snapstate.New(), nil
	}
	persisted, err := e.store.ReadStatus(ctx)
	if err != nil {
		return nil, nil, NewExternalFailure("read persisted status", 0, err)
	}
	if tracker, err = snapstate.FromFields(persisted); err != nil {
		return nil, nil, fmt.Errorf("reload status: %w", err)
	}
	if settled, err = snapstate.FromFields(persisted); err != nil {
		return nil, nil, fmt.Errorf("reload status: %w", err)
	}
	return tracker, settled, nil
}

func (e *Engine) collect(res *Result, r *Resolver) {
	res.Events = append(res.Events, r.Events...)
	res.Warnings = append(res.Warnings, r.Warnings...)
	res.SnappedPairs = r.SnappedPairs
	res.MultipartWarnings = r.MultipartWarnings
	res.UnresolvedNeighborhoods = r.UnresolvedNeighborhoods
}

// commit writes tracker state to the store. Lines removed since the status
// was persisted are skipped.
func (e *Engine) commit(ctx context.Context, tracker *snapstate.Tracker, log *slog.Logger) ([]snapstate.Committed, error) {
	all := tracker.Commit()
	out := make([]snapstate.Committed, 0, len(all))
	for _, c := range all {
		err := e.store.WriteStatus(ctx, c.LineID, c.Fields)
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("status not committed, line gone", "line_id", c.LineID)
			continue
		}
		if err != nil {
			return out, NewExternalFailure("write status", c.LineID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func runRecord(res *Result, started time.Time) store.RunRecord {
	return store.RunRecord{
		ID:                      res.RunID,
		StartedAt:               started,
		Radius:                  res.Config.Radius,
		MinLength:               res.Config.MinLength,
		Deleted:                 res.Deleted,
		MultipartWarnings:       res.MultipartWarnings,
		SnappedPairs:            res.SnappedPairs,
		Neighborhoods:           res.Neighborhoods,
		UnresolvedNeighborhoods: res.UnresolvedNeighborhoods,
	}
}

// Resolution is the in-memory outcome of Resolve.
type Resolution struct {
	*Result
	// Geometries are the surviving lines after the run, ascending id.
	Geometries []geom.Line
}

// Resolve runs the engine over an in-memory copy of lines and returns the
// updated geometries with the run summary. The input slice is not modified.
func Resolve(ctx context.Context, lines []geom.Line, cfg Config, opts ...Option) (*Resolution, error) {
	mem := store.NewMemStore()
	for _, l := range lines {
		if err := mem.Write(ctx, l.Clone()); err != nil {
			return nil, err
		}
	}

	e, err := New(mem, cfg, opts...)
	if err != nil {
		return nil, err
	}
	res, err := e.Run(ctx)
	out := &Resolution{Result: res}
	if err != nil {
		return out, err
	}

	ids, err := mem.List(ctx, nil)
	if err != nil {
		return out, err
	}
	for _, id := range ids {
		l, err := mem.Read(ctx, id)
		if err != nil {
			return out, err
		}
		out.Geometries = append(out.Geometries, l)
	}
	return out, nil
}
