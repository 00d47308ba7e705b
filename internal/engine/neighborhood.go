package engine

import (
	"sort"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/proximity"
)

// Neighborhood is the group of lines resolved together around one query point.
type Neighborhood struct {
	// Center is the near-table row that opened the neighborhood. Its Point is
	// the query point.
	Center proximity.Candidate

	// Lines are member line ids in resolution order. Lines[0] is the anchor.
	Lines []int64
}

// Plan is the outcome of neighborhood derivation.
type Plan struct {
	// NearDist holds, for every participating line, the smallest non-zero
	// distance between one of its endpoints and an endpoint of another line.
	NearDist map[int64]float64

	// Neighborhoods in processing order.
	Neighborhoods []Neighborhood
}

// Participants returns participating line ids in ascending order.
func (p Plan) Participants() []int64 {
	ids := make([]int64, 0, len(p.NearDist))
	for id := range p.NearDist {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type endpointPair struct {
	lo, hi int64
}

// BuildNeighborhoods derives neighborhoods from a near table.
//
// Pairs between endpoints of the same line are ignored. Zero-distance pairs
// (already connected endpoints) never open a neighborhood and never set a
// near distance, but the lines behind them still join a neighborhood opened
// by another pair at the same query point. Each unordered endpoint pair opens
// at most one neighborhood, the first in candidate order.
//
// cands is re-sorted in place with proximity.SortCandidates.
func BuildNeighborhoods(cands []proximity.Candidate) Plan {
	proximity.SortCandidates(cands)

	plan := Plan{NearDist: make(map[int64]float64)}
	neighbors := make(map[int64][]int64)
	var centers []proximity.Candidate
	seen := make(map[endpointPair]bool)

	for _, c := range cands {
		pLine, _ := geom.SplitEndpointID(c.Point)
		nLine, _ := geom.SplitEndpointID(c.Neighbor)
		if pLine == nLine {
			continue
		}
		neighbors[c.Point] = append(neighbors[c.Point], c.Neighbor)
		if c.Distance <= 0 {
			continue
		}

		for _, id := range [2]int64{pLine, nLine} {
			if _, ok := plan.NearDist[id]; !ok {
				plan.NearDist[id] = c.Distance
			}
		}

		key := endpointPair{lo: c.Point, hi: c.Neighbor}
		if key.lo > key.hi {
			key.lo, key.hi = key.hi, key.lo
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		centers = append(centers, c)
	}

	for _, c := range centers {
		centerLine, _ := geom.SplitEndpointID(c.Point)
		members := []int64{centerLine}
		in := map[int64]bool{centerLine: true}
		for _, n := range neighbors[c.Point] {
			line, _ := geom.SplitEndpointID(n)
			if in[line] {
				continue
			}
			if _, ok := plan.NearDist[line]; !ok {
				continue
			}
			in[line] = true
			members = append(members, line)
		}
		sortMembers(members, plan.NearDist)
		plan.Neighborhoods = append(plan.Neighborhoods, Neighborhood{Center: c, Lines: members})
	}

	return plan
}

// sortMembers orders lines by near distance, then id.
func sortMembers(lines []int64, nearDist map[int64]float64) {
	sort.SliceStable(lines, func(i, j int) bool {
		di, dj := nearDist[lines[i]], nearDist[lines[j]]
		if di != dj {
			return di < dj
		}
		return lines[i] < lines[j]
	})
}
