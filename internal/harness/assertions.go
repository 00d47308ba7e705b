package harness

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"github.com/roach88/roadsnap/internal/geom"
)

// statusUnresolved is the scenario spelling of an endpoint no snap reached.
const statusUnresolved = "unresolved"

// EvaluateAssertions checks every assertion against a result and returns one
// message per failure.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertSummary:
			err = assertSummary(r, a)
		case AssertEndpoint:
			err = assertEndpoint(r, a)
		case AssertDeleted:
			err = assertDeleted(r, a)
		case AssertCoincident:
			err = assertCoincident(r, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func counters(r *Result) map[string]int {
	res := r.Resolution
	return map[string]int{
		"deleted":                  res.Deleted,
		"multipart_warnings":       res.MultipartWarnings,
		"snapped_pairs":            res.SnappedPairs,
		"neighborhoods":            res.Neighborhoods,
		"unresolved_neighborhoods": res.UnresolvedNeighborhoods,
		"lines":                    len(res.Geometries),
	}
}

func assertSummary(r *Result, a Assertion) error {
	got := counters(r)
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if got[k] != a.Expect[k] {
			return fmt.Errorf("%s: expected %d, got %d", k, a.Expect[k], got[k])
		}
	}
	return nil
}

func endpoint(r *Result, id int64, role geom.Role) (orb.Point, error) {
	l, ok := r.Line(id)
	if !ok {
		return orb.Point{}, fmt.Errorf("line %d not found", id)
	}
	return l.Terminal(role), nil
}

func assertEndpoint(r *Result, a Assertion) error {
	role, err := parseRole(a.Role)
	if err != nil {
		return err
	}
	p, err := endpoint(r, a.Line, role)
	if err != nil {
		return err
	}

	if a.Point != nil {
		want := orb.Point{a.Point[0], a.Point[1]}
		if p != want {
			return fmt.Errorf("line %d %s: expected %v, got %v", a.Line, role, want, p)
		}
	}

	if a.Status != "" {
		fields := r.Status(a.Line)
		got := fields.SnapStart
		if role == geom.End {
			got = fields.SnapEnd
		}
		if got == "" {
			got = statusUnresolved
		}
		if got != a.Status {
			return fmt.Errorf("line %d %s: expected status %q, got %q", a.Line, role, a.Status, got)
		}
	}
	return nil
}

func assertDeleted(r *Result, a Assertion) error {
	if _, ok := r.Line(a.Line); ok {
		return fmt.Errorf("line %d survived the run", a.Line)
	}
	return nil
}

func assertCoincident(r *Result, a Assertion) error {
	role, err := parseRole(a.Role)
	if err != nil {
		return err
	}
	otherID, otherRole, err := parseEndpointRef(a.With)
	if err != nil {
		return err
	}

	p, err := endpoint(r, a.Line, role)
	if err != nil {
		return err
	}
	q, err := endpoint(r, otherID, otherRole)
	if err != nil {
		return err
	}
	if p != q {
		return fmt.Errorf("line %d %s at %v, line %d %s at %v", a.Line, role, p, otherID, otherRole, q)
	}
	return nil
}
