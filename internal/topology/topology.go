// Package topology measures how well a road network hangs together. Line
// endpoints that share an exact coordinate form one node and every line is an
// edge between its two end nodes; snapping closes gaps, so a successful run
// lowers the component and dangle counts.
package topology

import (
	"context"
	"fmt"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/paulmach/orb"

	"github.com/roach88/roadsnap/internal/geom"
)

// Summary describes the endpoint graph of a set of lines.
type Summary struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
	// Components counts connected groups of nodes.
	Components int `json:"components"`
	// Dangles counts nodes touched by exactly one line end.
	Dangles int `json:"dangles"`
}

// Graph builds the undirected endpoint graph of lines. Lines without a usable
// first part are skipped. Closed lines become self-loops and lines sharing
// both ends become parallel edges.
func Graph(lines []geom.Line) (*core.Graph, error) {
	g := core.NewGraph(core.WithLoops(), core.WithMultiEdges())
	for _, l := range lines {
		if !l.Valid() {
			continue
		}
		from, to := nodeKey(l.Terminal(geom.Start)), nodeKey(l.Terminal(geom.End))
		if _, err := g.AddEdge(from, to, 0); err != nil {
			return nil, fmt.Errorf("add line %d: %w", l.ID, err)
		}
	}
	return g, nil
}

// Analyze summarizes the endpoint graph of lines.
func Analyze(ctx context.Context, lines []geom.Line) (Summary, error) {
	g, err := Graph(lines)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Nodes: g.VertexCount(), Edges: g.EdgeCount()}
	seen := make(map[string]bool, sum.Nodes)
	for _, id := range g.Vertices() {
		edges, err := g.Neighbors(id)
		if err != nil {
			return Summary{}, fmt.Errorf("neighbors of %s: %w", id, err)
		}
		if len(edges) == 1 && edges[0].From != edges[0].To {
			sum.Dangles++
		}

		if seen[id] {
			continue
		}
		res, err := bfs.BFS(g, id, bfs.WithContext(ctx))
		if err != nil {
			return Summary{}, fmt.Errorf("walk from %s: %w", id, err)
		}
		for _, v := range res.Order {
			seen[v] = true
		}
		sum.Components++
	}
	return sum, nil
}

// nodeKey identifies a coordinate exactly. Negative zero folds into zero so
// both spellings name the same node.
func nodeKey(p orb.Point) string {
	x, y := p[0], p[1]
	if x == 0 {
		x = 0
	}
	if y == 0 {
		y = 0
	}
	return strconv.FormatFloat(x, 'g', -1, 64) + " " + strconv.FormatFloat(y, 'g', -1, 64)
}
