package geom

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// ErrNoFirstPart is returned when a mutation is requested on a line that has
// no usable first part.
var ErrNoFirstPart = errors.New("geom: line has no first part with two or more vertices")

// ReplaceTerminal returns a copy of line whose only part is the first part
// with the start or end vertex replaced by c.
//
// Interior vertices are copied verbatim. Extra parts are dropped. The input
// line is not modified and the result shares no coordinate memory with it.
func ReplaceTerminal(line Line, r Role, c orb.Point) (Line, error) {
	if !line.Valid() {
		return Line{}, fmt.Errorf("replace %s of line %d: %w", r, line.ID, ErrNoFirstPart)
	}

	pts := line.Parts[0].Clone()
	switch r {
	case Start:
		pts[0] = c
	case End:
		pts[len(pts)-1] = c
	default:
		return Line{}, fmt.Errorf("replace terminal of line %d: unknown role %d", line.ID, int(r))
	}

	out := Line{ID: line.ID, Parts: []orb.LineString{pts}}
	if line.Attrs != nil {
		out.Attrs = make(map[string]any, len(line.Attrs))
		for k, v := range line.Attrs {
			out.Attrs[k] = v
		}
	}
	return out, nil
}

// TruncateToFirstPart returns a copy of line keeping only its first part and
// reports whether any parts were dropped.
func TruncateToFirstPart(line Line) (Line, bool) {
	if len(line.Parts) <= 1 {
		return line, false
	}
	out := line.Clone()
	out.Parts = out.Parts[:1]
	return out, true
}
