package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/roach88/roadsnap/internal/geom"
)

// Scenario describes one snapping run and what it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID fixes the run id. Empty uses testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Engine parameters; nil keeps the engine default.
	Radius       *float64 `yaml:"radius,omitempty"`
	MinLength    *float64 `yaml:"min_length,omitempty"`
	MaxNeighbors *int     `yaml:"max_neighbors,omitempty"`

	// Lines is the input network.
	Lines []LineSpec `yaml:"lines"`

	// Assertions validate the run outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// LineSpec is one input line. Exactly one of Coords or Parts is set.
type LineSpec struct {
	ID     int64          `yaml:"id"`
	Coords [][2]float64   `yaml:"coords,omitempty"`
	Parts  [][][2]float64 `yaml:"parts,omitempty"`
}

// Line converts the entry to a geometry.
func (s LineSpec) Line() geom.Line {
	if len(s.Coords) > 0 {
		return geom.NewLine(s.ID, toLineString(s.Coords))
	}
	l := geom.Line{ID: s.ID, Parts: make([]orb.LineString, len(s.Parts))}
	for i, p := range s.Parts {
		l.Parts[i] = toLineString(p)
	}
	return l
}

func toLineString(coords [][2]float64) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c[0], c[1]}
	}
	return ls
}

// Assertion validates the run outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Expect holds counter values (summary).
	Expect map[string]int `yaml:"expect,omitempty"`

	// Line and Role select an endpoint (endpoint, deleted, coincident).
	Line int64  `yaml:"line,omitempty"`
	Role string `yaml:"role,omitempty"`

	// Point is the expected coordinate (endpoint).
	Point []float64 `yaml:"point,omitempty"`

	// Status is the expected persisted status text (endpoint).
	// Use "unresolved" for an endpoint no snap reached.
	Status string `yaml:"status,omitempty"`

	// With names the second endpoint as "<line> <role>" (coincident).
	With string `yaml:"with,omitempty"`
}

// Assertion type constants.
const (
	AssertSummary    = "summary"
	AssertEndpoint   = "endpoint"
	AssertDeleted    = "deleted"
	AssertCoincident = "coincident"
)

// summaryKeys lists the counters a summary assertion may name.
var summaryKeys = map[string]bool{
	"deleted":                  true,
	"multipart_warnings":       true,
	"snapped_pairs":            true,
	"neighborhoods":            true,
	"unresolved_neighborhoods": true,
	"lines":                    true,
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, ordered by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if len(s.Lines) == 0 {
		return errors.New("at least one line is required")
	}

	ids := make(map[int64]bool, len(s.Lines))
	for i, l := range s.Lines {
		if l.ID <= 0 {
			return fmt.Errorf("line %d: id must be positive", i)
		}
		if ids[l.ID] {
			return fmt.Errorf("line %d: duplicate id %d", i, l.ID)
		}
		ids[l.ID] = true

		switch {
		case len(l.Coords) > 0 && len(l.Parts) > 0:
			return fmt.Errorf("line %d: coords and parts are exclusive", l.ID)
		case len(l.Coords) > 0:
			if len(l.Coords) < 2 {
				return fmt.Errorf("line %d: needs at least 2 coordinates", l.ID)
			}
		case len(l.Parts) > 0:
			for j, p := range l.Parts {
				if len(p) < 2 {
					return fmt.Errorf("line %d part %d: needs at least 2 coordinates", l.ID, j)
				}
			}
		default:
			return fmt.Errorf("line %d: coords or parts is required", l.ID)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertSummary:
		if len(a.Expect) == 0 {
			return errors.New("expect is required")
		}
		for k := range a.Expect {
			if !summaryKeys[k] {
				return fmt.Errorf("unknown counter %q", k)
			}
		}
	case AssertEndpoint:
		if a.Line == 0 {
			return errors.New("line is required")
		}
		if _, err := parseRole(a.Role); err != nil {
			return err
		}
		if a.Point == nil && a.Status == "" {
			return errors.New("point or status is required")
		}
		if a.Point != nil && len(a.Point) != 2 {
			return errors.New("point must have 2 values")
		}
	case AssertDeleted:
		if a.Line == 0 {
			return errors.New("line is required")
		}
	case AssertCoincident:
		if _, err := parseRole(a.Role); err != nil {
			return err
		}
		if _, _, err := parseEndpointRef(a.With); err != nil {
			return err
		}
	default:
		return errors.New("unknown assertion type")
	}
	return nil
}

func parseRole(s string) (geom.Role, error) {
	switch s {
	case "start":
		return geom.Start, nil
	case "end":
		return geom.End, nil
	default:
		return 0, fmt.Errorf("role must be start or end, got %q", s)
	}
}

// parseEndpointRef parses "<line> <role>", e.g. "2 start".
func parseEndpointRef(s string) (int64, geom.Role, error) {
	var id int64
	var role string
	if _, err := fmt.Sscanf(s, "%d %s", &id, &role); err != nil {
		return 0, 0, fmt.Errorf("endpoint ref %q: want \"<line> <role>\"", s)
	}
	r, err := parseRole(role)
	if err != nil {
		return 0, 0, err
	}
	return id, r, nil
}
