package engine

import (
	"context"

	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/snapstate"
	"github.com/roach88/roadsnap/internal/store"
)

// GeometryStore holds the lines of one network. Implemented by store.Store
// (SQLite) and store.MemStore.
//
// List must return ids in ascending order. A nil keep function selects every
// line.
type GeometryStore interface {
	Read(ctx context.Context, id int64) (geom.Line, error)
	Write(ctx context.Context, line geom.Line) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, keep func(geom.Line) bool) ([]int64, error)
	WriteStatus(ctx context.Context, id int64, f snapstate.Fields) error
	ReadStatus(ctx context.Context) (map[int64]snapstate.Fields, error)
}

// RunRecorder is implemented by stores that keep a run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec store.RunRecord) error
}
