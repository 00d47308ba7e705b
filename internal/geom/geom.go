package geom

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Role identifies which terminal vertex of a line an endpoint is.
type Role int

const (
	// Start is the first vertex of the first part.
	Start Role = 0
	// End is the last vertex of the first part.
	End Role = 1
)

// String returns "start" or "end".
func (r Role) String() string {
	switch r {
	case Start:
		return "start"
	case End:
		return "end"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Roles lists both roles in canonical order.
var Roles = [2]Role{Start, End}

// Line is a road centerline.
//
// Parts holds the geometric parts in input order. A well-formed network line
// has exactly one part; extra parts are tolerated on input and dropped by
// TruncateToFirstPart before snapping.
type Line struct {
	ID    int64
	Parts []orb.LineString
	Attrs map[string]any
}

// NewLine builds a single-part line. The coordinate slice is copied.
func NewLine(id int64, coords orb.LineString) Line {
	return Line{ID: id, Parts: []orb.LineString{coords.Clone()}}
}

// Length is the planar length summed over all parts.
func (l Line) Length() float64 {
	var total float64
	for _, p := range l.Parts {
		total += planar.Length(p)
	}
	return total
}

// PartCount returns the number of geometric parts.
func (l Line) PartCount() int {
	return len(l.Parts)
}

// Valid reports whether the line has a first part with at least two vertices.
func (l Line) Valid() bool {
	return len(l.Parts) > 0 && len(l.Parts[0]) >= 2
}

// Terminal returns the coordinate of the start or end vertex of the first part.
// The line must be Valid.
func (l Line) Terminal(r Role) orb.Point {
	part := l.Parts[0]
	if r == Start {
		return part[0]
	}
	return part[len(part)-1]
}

// Geometry returns the line as an orb geometry: a LineString for single-part
// lines and a MultiLineString otherwise.
func (l Line) Geometry() orb.Geometry {
	if len(l.Parts) == 1 {
		return l.Parts[0]
	}
	mls := make(orb.MultiLineString, len(l.Parts))
	copy(mls, l.Parts)
	return mls
}

// Clone returns a deep copy of the line, attributes included.
func (l Line) Clone() Line {
	out := Line{ID: l.ID}
	if l.Parts != nil {
		out.Parts = make([]orb.LineString, len(l.Parts))
		for i, p := range l.Parts {
			out.Parts[i] = p.Clone()
		}
	}
	if l.Attrs != nil {
		out.Attrs = make(map[string]any, len(l.Attrs))
		for k, v := range l.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// FromGeometry converts an orb geometry into line parts.
// Only LineString and MultiLineString are accepted.
func FromGeometry(id int64, g orb.Geometry) (Line, error) {
	switch v := g.(type) {
	case orb.LineString:
		return NewLine(id, v), nil
	case orb.MultiLineString:
		parts := make([]orb.LineString, len(v))
		for i, p := range v {
			parts[i] = p.Clone()
		}
		return Line{ID: id, Parts: parts}, nil
	default:
		return Line{}, fmt.Errorf("line %d: unsupported geometry type %T", id, g)
	}
}

// Endpoint is one terminal vertex of a line, tagged with its owner.
// Endpoints are derived values; they are discarded after the proximity query.
type Endpoint struct {
	ID     int64
	LineID int64
	Role   Role
	Coord  orb.Point
}

// Point implements orb.Pointer so endpoints can be stored in a quadtree.
func (e Endpoint) Point() orb.Point {
	return e.Coord
}

// EndpointID returns the stable identifier of a line's endpoint.
// Ids sort in line order, start before end.
func EndpointID(lineID int64, r Role) int64 {
	return lineID*2 + int64(r)
}

// SplitEndpointID is the inverse of EndpointID.
func SplitEndpointID(id int64) (lineID int64, r Role) {
	return id / 2, Role(id % 2)
}

// Endpoints returns the start and end endpoints of a valid line.
func (l Line) Endpoints() [2]Endpoint {
	var out [2]Endpoint
	for i, r := range Roles {
		out[i] = Endpoint{
			ID:     EndpointID(l.ID, r),
			LineID: l.ID,
			Role:   r,
			Coord:  l.Terminal(r),
		}
	}
	return out
}

// Distance is the planar Euclidean distance between two coordinates.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}
