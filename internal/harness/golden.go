package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/sebdah/goldie/v2"

	"github.com/roach88/roadsnap/internal/engine"
)

// Snapshot renders a result as stable text for golden comparison: the run
// counters, the ordered event log and every surviving line with its status.
func Snapshot(name string, r *Result) []byte {
	res := r.Resolution
	var buf strings.Builder

	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "run: %s\n", res.RunID)
	fmt.Fprintf(&buf, "summary: deleted=%d multipart=%d snapped=%d neighborhoods=%d unresolved=%d\n",
		res.Deleted, res.MultipartWarnings, res.SnappedPairs, res.Neighborhoods, res.UnresolvedNeighborhoods)

	buf.WriteString("events:\n")
	if len(res.Events) == 0 {
		buf.WriteString("  (none)\n")
	}
	for _, ev := range res.Events {
		fmt.Fprintf(&buf, "  %s\n", formatEvent(ev))
	}

	buf.WriteString("lines:\n")
	for _, l := range res.Geometries {
		st := r.Status(l.ID)
		fmt.Fprintf(&buf, "  line %d: start=%q end=%q finished=%t %s\n",
			l.ID, st.SnapStart, st.SnapEnd, st.Finished, formatParts(l.Parts))
	}
	return []byte(buf.String())
}

func formatEvent(ev engine.Event) string {
	switch ev.Kind {
	case engine.EventDeleted:
		return fmt.Sprintf("[%d] deleted line %d (length %g)", ev.Seq, ev.LineID, ev.Length)
	case engine.EventTruncated:
		return fmt.Sprintf("[%d] truncated line %d (%d parts)", ev.Seq, ev.LineID, ev.Parts)
	case engine.EventSnapped:
		return fmt.Sprintf("[%d] snapped line %d %s -> line %d %s (case %d, d=%g)",
			ev.Seq, ev.LineID, ev.Role, ev.AnchorID, ev.AnchorRole, ev.Case, ev.Distance)
	default:
		return fmt.Sprintf("[%d] %s line %d", ev.Seq, ev.Kind, ev.LineID)
	}
}

func formatParts(parts []orb.LineString) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		pts := make([]string, len(p))
		for j, pt := range p {
			pts[j] = fmt.Sprintf("%g %g", pt[0], pt[1])
		}
		out[i] = "(" + strings.Join(pts, ", ") + ")"
	}
	return strings.Join(out, " ")
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario.Name, result))
	return result, nil
}
