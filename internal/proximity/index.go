package proximity

import (
	"context"
	"errors"
	"sort"

	"github.com/roach88/roadsnap/internal/geom"
)

// DefaultMaxNeighbors caps the neighbors reported per point.
const DefaultMaxNeighbors = 6

// ErrNegativeRadius is returned for a radius below zero.
var ErrNegativeRadius = errors.New("proximity: radius must be >= 0")

// Candidate is one near-table row.
type Candidate struct {
	Point    int64
	Neighbor int64
	Distance float64
}

// Index answers near-table queries.
type Index interface {
	Query(ctx context.Context, points []geom.Endpoint, radius float64) ([]Candidate, error)
}

// Less is the canonical candidate order.
func Less(a, b Candidate) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if a.Point != b.Point {
		return a.Point < b.Point
	}
	return a.Neighbor < b.Neighbor
}

// SortCandidates sorts in place by distance, point id, neighbor id.
func SortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool { return Less(c[i], c[j]) })
}
