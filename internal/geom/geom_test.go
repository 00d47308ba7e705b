package geom

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine_Length(t *testing.T) {
	l := NewLine(1, orb.LineString{{0, 0}, {3, 0}, {3, 4}})
	assert.Equal(t, 7.0, l.Length())

	multi := Line{ID: 2, Parts: []orb.LineString{
		{{0, 0}, {1, 0}},
		{{5, 5}, {5, 7}},
	}}
	assert.Equal(t, 3.0, multi.Length())
}

func TestLine_Valid(t *testing.T) {
	assert.True(t, NewLine(1, orb.LineString{{0, 0}, {1, 1}}).Valid())
	assert.False(t, NewLine(1, orb.LineString{{0, 0}}).Valid())
	assert.False(t, Line{ID: 1}.Valid())
}

func TestLine_Endpoints(t *testing.T) {
	l := NewLine(7, orb.LineString{{0, 0}, {5, 5}, {10, 0}})

	eps := l.Endpoints()
	assert.Equal(t, Endpoint{ID: 14, LineID: 7, Role: Start, Coord: orb.Point{0, 0}}, eps[0])
	assert.Equal(t, Endpoint{ID: 15, LineID: 7, Role: End, Coord: orb.Point{10, 0}}, eps[1])
}

func TestEndpointID_RoundTrip(t *testing.T) {
	for _, id := range []int64{0, 1, 42, 1 << 40} {
		for _, r := range Roles {
			lineID, role := SplitEndpointID(EndpointID(id, r))
			assert.Equal(t, id, lineID)
			assert.Equal(t, r, role)
		}
	}
}

func TestNewLine_CopiesCoordinates(t *testing.T) {
	coords := orb.LineString{{0, 0}, {1, 1}}
	l := NewLine(1, coords)
	coords[0] = orb.Point{9, 9}

	assert.Equal(t, orb.Point{0, 0}, l.Terminal(Start))
}

func TestFromGeometry(t *testing.T) {
	l, err := FromGeometry(3, orb.LineString{{0, 0}, {1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 1, l.PartCount())

	l, err = FromGeometry(4, orb.MultiLineString{{{0, 0}, {1, 0}}, {{2, 0}, {3, 0}}})
	require.NoError(t, err)
	assert.Equal(t, 2, l.PartCount())

	_, err = FromGeometry(5, orb.Point{1, 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported geometry type")
}

func TestLine_Geometry(t *testing.T) {
	single := NewLine(1, orb.LineString{{0, 0}, {1, 0}})
	_, ok := single.Geometry().(orb.LineString)
	assert.True(t, ok)

	multi := Line{ID: 2, Parts: []orb.LineString{{{0, 0}, {1, 0}}, {{2, 0}, {3, 0}}}}
	mls, ok := multi.Geometry().(orb.MultiLineString)
	require.True(t, ok)
	assert.Len(t, mls, 2)
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "start", Start.String())
	assert.Equal(t, "end", End.String())
	assert.Equal(t, "role(5)", Role(5).String())
}
