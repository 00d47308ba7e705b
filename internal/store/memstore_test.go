package store

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/snapstate"
	"github.com/roach88/roadsnap/internal/testutil"
)

func TestMemStore_CopiesOnWriteAndRead(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	in := line(1, orb.Point{0, 0}, orb.Point{10, 0})
	require.NoError(t, m.Write(ctx, in))
	in.Parts[0][0] = orb.Point{99, 99}

	out, err := m.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{0, 0}, out.Parts[0][0])

	out.Parts[0][1] = orb.Point{-1, -1}
	again, err := m.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{10, 0}, again.Parts[0][1])
}

func TestMemStore_CRUD(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, line(3, orb.Point{0, 0}, orb.Point{1, 0})))
	require.NoError(t, m.Write(ctx, line(1, orb.Point{0, 0}, orb.Point{10, 0})))
	require.NoError(t, m.Write(ctx, line(2, orb.Point{0, 0}, orb.Point{10, 0})))

	ids, err := m.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	short, err := m.List(ctx, func(l geom.Line) bool { return l.Length() < 4 })
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, short)

	require.NoError(t, m.Delete(ctx, 3))
	assert.ErrorIs(t, m.Delete(ctx, 3), ErrNotFound)
	_, err = m.Read(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_StatusSurvivesRewrite(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, line(1, orb.Point{0, 0}, orb.Point{10, 0})))
	assert.ErrorIs(t, m.WriteStatus(ctx, 2, snapstate.Fields{}), ErrNotFound)

	f := snapstate.Fields{SnapStart: snapstate.TextSnapped}
	require.NoError(t, m.WriteStatus(ctx, 1, f))
	require.NoError(t, m.Write(ctx, line(1, orb.Point{1, 0}, orb.Point{10, 0})))

	st, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Lines: 1, Edited: 1, Tracked: 1}, st)

	status, err := m.ReadStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]snapstate.Fields{1: f}, status)

	rows, err := m.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].HasStatus)
	assert.Equal(t, f, rows[0].Status)
}

func TestMemStore_RunsAndStats(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.RecordRun(ctx, testRun("a", at)))
	require.NoError(t, m.RecordRun(ctx, testRun("a", at)))
	require.NoError(t, m.RecordRun(ctx, testRun("b", at)))

	runs, err := m.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[1].ID)

	require.NoError(t, m.Write(ctx, line(1, orb.Point{0, 0}, orb.Point{10, 0})))
	require.NoError(t, m.Write(ctx, line(2, orb.Point{0, 1}, orb.Point{10, 1})))
	require.NoError(t, m.WriteStatus(ctx, 2, snapstate.Fields{Finished: true}))

	st, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Lines: 2, Tracked: 1, Finished: 1}, st)
}

func TestMemStore_MultipartKeptUntilRewritten(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, testutil.Multipart(4, []float64{0, 0, 10, 0}, []float64{50, 50, 60, 50})))
	got, err := m.Read(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, got.PartCount())

	require.NoError(t, m.Write(ctx, testutil.Polyline(4, 0, 0, 10, 0)))
	got, err = m.Read(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PartCount())
	assert.Equal(t, 10.0, got.Length())
}
