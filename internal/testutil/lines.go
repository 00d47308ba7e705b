package testutil

import (
	"github.com/paulmach/orb"

	"github.com/roach88/roadsnap/internal/geom"
)

// Polyline builds a single-part line from flat x, y pairs:
//
//	Polyline(1, 0, 0, 10, 0) // (0,0) -> (10,0)
//
// It panics on an odd number of coordinates.
func Polyline(id int64, xy ...float64) geom.Line {
	return geom.NewLine(id, lineString(xy))
}

// Multipart builds a line with one part per coordinate list.
func Multipart(id int64, parts ...[]float64) geom.Line {
	l := geom.Line{ID: id, Parts: make([]orb.LineString, len(parts))}
	for i, xy := range parts {
		l.Parts[i] = lineString(xy)
	}
	return l
}

func lineString(xy []float64) orb.LineString {
	if len(xy)%2 != 0 {
		panic("testutil: odd coordinate count")
	}
	ls := make(orb.LineString, 0, len(xy)/2)
	for i := 0; i < len(xy); i += 2 {
		ls = append(ls, orb.Point{xy[i], xy[i+1]})
	}
	return ls
}
