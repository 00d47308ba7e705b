package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/roadsnap/internal/engine"
	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/snapstate"
	"github.com/roach88/roadsnap/internal/testutil"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool

	// Resolution is the engine outcome: counters, events, committed status
	// and surviving geometries.
	Resolution *engine.Resolution

	// Errors contains assertion failure messages.
	Errors []string

	lines  map[int64]geom.Line
	status map[int64]snapstate.Fields
}

// AddError records an assertion failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Line returns a surviving line by id.
func (r *Result) Line(id int64) (geom.Line, bool) {
	l, ok := r.lines[id]
	return l, ok
}

// Status returns the committed status of a line. Untracked lines report
// empty fields.
func (r *Result) Status(id int64) snapstate.Fields {
	return r.status[id]
}

// Config builds the engine configuration for the scenario.
func (s *Scenario) Config() engine.Config {
	cfg := engine.DefaultConfig()
	if s.Radius != nil {
		cfg.Radius = *s.Radius
	}
	if s.MinLength != nil {
		cfg.MinLength = *s.MinLength
	}
	if s.MaxNeighbors != nil {
		cfg.MaxNeighbors = *s.MaxNeighbors
	}
	return cfg
}

// Run executes a scenario against a fresh in-memory store, checks that the
// event log replays to the same geometries, and evaluates its assertions.
// An error means the run itself failed; assertion failures are reported in
// Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	lines := make([]geom.Line, len(scenario.Lines))
	for i, ls := range scenario.Lines {
		lines[i] = ls.Line()
	}

	clock := testutil.NewStepClock()
	res, err := engine.Resolve(ctx, lines, scenario.Config(),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRunIDGenerator(testutil.NewFixedRunID(scenario.RunID)),
		engine.WithNow(clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := &Result{
		Pass:       true,
		Resolution: res,
		lines:      make(map[int64]geom.Line, len(res.Geometries)),
		status:     make(map[int64]snapstate.Fields, len(res.Lines)),
	}
	for _, l := range res.Geometries {
		result.lines[l.ID] = l
	}
	for _, c := range res.Lines {
		result.status[c.LineID] = c.Fields
	}

	replayed, err := engine.Replay(lines, res.Events)
	switch {
	case err != nil:
		result.AddError(fmt.Sprintf("replay: %v", err))
	case !sameLines(replayed, res.Geometries):
		result.AddError("replay: event log does not reproduce the resolved geometries")
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func sameLines(a, b []geom.Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
