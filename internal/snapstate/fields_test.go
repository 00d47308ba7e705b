package snapstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roadsnap/internal/geom"
)

func TestTracker_Commit(t *testing.T) {
	tr := New()
	tr.Ensure(3)
	require.NoError(t, tr.Set(1, geom.End, SnappedDone))
	require.NoError(t, tr.Set(2, geom.Start, StaticDone))
	require.NoError(t, tr.Set(2, geom.End, SnappedDone))

	got := tr.Commit()

	assert.Equal(t, []Committed{
		{LineID: 1, Fields: Fields{SnapStart: "", SnapEnd: "snapped - done"}},
		{LineID: 2, Fields: Fields{SnapStart: "static - done", SnapEnd: "snapped - done", Finished: true}},
		{LineID: 3, Fields: Fields{}},
	}, got)
}

func TestFields_StatusText(t *testing.T) {
	assert.Equal(t, "finished", Fields{Finished: true}.StatusText())
	assert.Equal(t, "", Fields{}.StatusText())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"", Unresolved},
		{"snapped - done", SnappedDone},
		{"static - done", StaticDone},
		{" static - done ", StaticDone},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseStatus("done-ish")
	require.Error(t, err)
}

func TestFromFields(t *testing.T) {
	tr, err := FromFields(map[int64]Fields{
		1: {SnapStart: "snapped - done", SnapEnd: ""},
		2: {SnapStart: "static - done", SnapEnd: "static - done", Finished: true},
	})
	require.NoError(t, err)

	assert.Equal(t, SnappedDone, tr.Get(1, geom.Start))
	assert.Equal(t, Unresolved, tr.Get(1, geom.End))
	assert.Equal(t, []int64{1, 2}, tr.Lines())

	// reloaded final statuses stay final
	require.Error(t, tr.Set(2, geom.End, SnappedDone))
	require.NoError(t, tr.Set(1, geom.End, StaticDone))
}

func TestFromFields_BadText(t *testing.T) {
	_, err := FromFields(map[int64]Fields{7: {SnapEnd: "bogus"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 7 end")
}
