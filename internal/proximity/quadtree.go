package proximity

import (
	"context"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/roach88/roadsnap/internal/geom"
)

// QuadtreeIndex is an in-process Index built on orb/quadtree.
// The zero value uses DefaultMaxNeighbors.
type QuadtreeIndex struct {
	// MaxNeighbors limits how many of the closest neighbors are reported per
	// point. Zero means DefaultMaxNeighbors; negative means unlimited.
	MaxNeighbors int
}

// NewQuadtreeIndex returns an index reporting at most maxNeighbors per point.
func NewQuadtreeIndex(maxNeighbors int) *QuadtreeIndex {
	return &QuadtreeIndex{MaxNeighbors: maxNeighbors}
}

// Query implements Index. A point is never reported as its own neighbor, but
// distinct points at the same location are reported with distance 0.
func (q *QuadtreeIndex) Query(ctx context.Context, points []geom.Endpoint, radius float64) ([]Candidate, error) {
	if radius < 0 {
		return nil, ErrNegativeRadius
	}
	if len(points) == 0 {
		return nil, nil
	}

	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Coord
	}
	tree := quadtree.New(mp.Bound().Pad(radius + 1))
	for _, p := range points {
		if err := tree.Add(p); err != nil {
			return nil, fmt.Errorf("proximity: add point %d: %w", p.ID, err)
		}
	}

	// the box is widened slightly so float rounding never excludes a point at
	// exactly the radius; the distance check below is authoritative
	search := radius * (1 + 1e-9)

	limit := q.MaxNeighbors
	if limit == 0 {
		limit = DefaultMaxNeighbors
	}

	var (
		out  []Candidate
		buf  []orb.Pointer
		near []Candidate
	)
	for i, p := range points {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		buf = tree.InBound(buf[:0], p.Coord.Bound().Pad(search))
		near = near[:0]
		for _, ptr := range buf {
			other := ptr.(geom.Endpoint)
			if other.ID == p.ID {
				continue
			}
			d := geom.Distance(p.Coord, other.Coord)
			if d > radius {
				continue
			}
			near = append(near, Candidate{Point: p.ID, Neighbor: other.ID, Distance: d})
		}
		sort.Slice(near, func(i, j int) bool { return Less(near[i], near[j]) })
		if limit > 0 && len(near) > limit {
			near = near[:limit]
		}
		out = append(out, near...)
	}

	SortCandidates(out)
	return out, nil
}
