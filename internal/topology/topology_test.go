package topology

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roadsnap/internal/geom"
)

func line(id int64, pts ...orb.Point) geom.Line {
	return geom.NewLine(id, orb.LineString(pts))
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		lines []geom.Line
		want  Summary
	}{
		{
			name: "empty",
			want: Summary{},
		},
		{
			name: "chain and island",
			lines: []geom.Line{
				line(1, orb.Point{0, 0}, orb.Point{10, 0}),
				line(2, orb.Point{10, 0}, orb.Point{20, 0}),
				line(3, orb.Point{50, 50}, orb.Point{60, 50}),
			},
			want: Summary{Nodes: 5, Edges: 3, Components: 2, Dangles: 4},
		},
		{
			name: "closed line is a loop without dangles",
			lines: []geom.Line{
				line(1, orb.Point{100, 0}, orb.Point{110, 0}, orb.Point{110, 10}, orb.Point{100, 0}),
			},
			want: Summary{Nodes: 1, Edges: 1, Components: 1},
		},
		{
			name: "parallel lines share both nodes",
			lines: []geom.Line{
				line(1, orb.Point{0, 0}, orb.Point{10, 0}),
				line(2, orb.Point{0, 0}, orb.Point{5, 5}, orb.Point{10, 0}),
			},
			want: Summary{Nodes: 2, Edges: 2, Components: 1},
		},
		{
			name: "invalid geometry is skipped",
			lines: []geom.Line{
				line(1, orb.Point{0, 0}, orb.Point{10, 0}),
				{ID: 2, Parts: []orb.LineString{{{3, 3}}}},
			},
			want: Summary{Nodes: 2, Edges: 1, Components: 1, Dangles: 2},
		},
		{
			name: "negative zero is the same node",
			lines: []geom.Line{
				line(1, orb.Point{math.Copysign(0, -1), 0}, orb.Point{10, 0}),
				line(2, orb.Point{0, 0}, orb.Point{0, 10}),
			},
			want: Summary{Nodes: 3, Edges: 2, Components: 1, Dangles: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Analyze(context.Background(), tt.lines)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyze_ClosingAGapJoinsComponents(t *testing.T) {
	ctx := context.Background()
	open := []geom.Line{
		line(1, orb.Point{0, 0}, orb.Point{10, 0}),
		line(2, orb.Point{12, 0}, orb.Point{20, 0}),
	}
	before, err := Analyze(ctx, open)
	require.NoError(t, err)
	assert.Equal(t, 2, before.Components)
	assert.Equal(t, 4, before.Dangles)

	snapped, err := geom.ReplaceTerminal(open[1], geom.Start, orb.Point{10, 0})
	require.NoError(t, err)
	after, err := Analyze(ctx, []geom.Line{open[0], snapped})
	require.NoError(t, err)
	assert.Equal(t, Summary{Nodes: 3, Edges: 2, Components: 1, Dangles: 2}, after)
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Analyze(ctx, []geom.Line{line(1, orb.Point{0, 0}, orb.Point{10, 0})})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGraph_NodesAreExactCoordinates(t *testing.T) {
	g, err := Graph([]geom.Line{
		line(1, orb.Point{0, 0}, orb.Point{10, 0}),
		line(2, orb.Point{10.000001, 0}, orb.Point{20, 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, g.VertexCount())
	assert.True(t, g.HasEdge("0 0", "10 0"))
	assert.True(t, g.HasEdge("10 0", "0 0"), "edges are undirected")
}
