package engine

import (
	"context"

	"github.com/roach88/roadsnap/internal/geom"
)

// ExtractEndpoints reads each line and returns its start and end endpoints,
// in the order of ids. Endpoints come from the first part only.
func ExtractEndpoints(ctx context.Context, st GeometryStore, ids []int64) ([]geom.Endpoint, error) {
	out := make([]geom.Endpoint, 0, 2*len(ids))
	for _, id := range ids {
		line, err := st.Read(ctx, id)
		if err != nil {
			return nil, NewExternalFailure("read line for endpoints", id, err)
		}
		if !line.Valid() {
			continue
		}
		eps := line.Endpoints()
		out = append(out, eps[0], eps[1])
	}
	return out, nil
}
