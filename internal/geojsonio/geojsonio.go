// Package geojsonio reads road lines from GeoJSON feature collections and
// writes snapped lines back out with their status properties.
package geojsonio

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/roach88/roadsnap/internal/attrs"
	"github.com/roach88/roadsnap/internal/geom"
	"github.com/roach88/roadsnap/internal/store"
)

// DefaultIDField is the property holding line ids in exported road layers.
const DefaultIDField = "OBJECTID"

// Status property names written by Export.
const (
	PropSnapStart  = "snap_start"
	PropSnapEnd    = "snap_end"
	PropSnapStatus = "snap_status"
)

// Options controls Read.
type Options struct {
	// IDField names the property used as line id. Empty means DefaultIDField.
	IDField string
	// Clean runs attrs.Clean over feature properties.
	Clean bool
}

// Collection is the outcome of Read.
type Collection struct {
	// Lines in feature order.
	Lines []geom.Line
	// Skipped counts features without line geometry.
	Skipped int
	// Cleaned is the attribute cleanup report, zero unless Options.Clean.
	Cleaned attrs.Report
}

// Read decodes a FeatureCollection. The id of each line comes from the
// IDField property, else the feature id, else the next free integer after
// the largest explicit id. Duplicate ids are an error.
func Read(r io.Reader, opts Options) (*Collection, error) {
	if opts.IDField == "" {
		opts.IDField = DefaultIDField
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	out := &Collection{}
	seen := make(map[int64]int)
	var (
		pending []int // indexes into out.Lines still needing an id
		maxID   int64
	)
	for i, f := range fc.Features {
		if !isLinear(f.Geometry) {
			out.Skipped++
			continue
		}

		id, ok, err := featureID(f, opts.IDField)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		line, err := geom.FromGeometry(id, f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		props := map[string]any(f.Properties)
		if opts.Clean {
			var rep attrs.Report
			props, rep = attrs.Clean(props, opts.IDField)
			out.Cleaned.Add(rep)
		} else if props != nil {
			props = map[string]any(f.Properties.Clone())
		}
		line.Attrs = props

		if ok {
			if prev, dup := seen[id]; dup {
				return nil, fmt.Errorf("feature %d: duplicate id %d (first used by feature %d)", i, id, prev)
			}
			seen[id] = i
			if id > maxID {
				maxID = id
			}
		} else {
			pending = append(pending, len(out.Lines))
		}
		out.Lines = append(out.Lines, line)
	}

	for _, idx := range pending {
		maxID++
		out.Lines[idx].ID = maxID
	}
	return out, nil
}

func isLinear(g orb.Geometry) bool {
	switch g.(type) {
	case orb.LineString, orb.MultiLineString:
		return true
	default:
		return false
	}
}

// featureID extracts an explicit id. ok is false when the feature has none.
func featureID(f *geojson.Feature, field string) (int64, bool, error) {
	if v, present := f.Properties[field]; present && v != nil {
		id, err := toID(v)
		if err != nil {
			return 0, false, fmt.Errorf("property %s: %w", field, err)
		}
		return id, true, nil
	}
	if f.ID != nil {
		id, err := toID(f.ID)
		if err != nil {
			return 0, false, fmt.Errorf("feature id: %w", err)
		}
		return id, true, nil
	}
	return 0, false, nil
}

func toID(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x <= 0 || x > math.MaxInt64/2 {
			return 0, fmt.Errorf("id %v is not a positive integer", x)
		}
		return int64(x), nil
	case int:
		return checkID(int64(x))
	case int64:
		return checkID(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("id %q: %w", x, err)
		}
		return checkID(n)
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("id %q is not an integer", x)
		}
		return checkID(n)
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}

// checkID keeps ids positive and small enough for endpoint ids.
func checkID(n int64) (int64, error) {
	if n <= 0 || n > math.MaxInt64/2 {
		return 0, fmt.Errorf("id %d out of range", n)
	}
	return n, nil
}

// Write encodes rows as a FeatureCollection. Every feature carries the line
// id as feature id plus snap_start, snap_end and snap_status properties;
// unresolved or never-tracked endpoints are null.
func Write(w io.Writer, rows []store.Row) error {
	fc := geojson.NewFeatureCollection()
	for _, row := range rows {
		f := geojson.NewFeature(row.Line.Geometry())
		f.ID = row.Line.ID
		for k, v := range row.Line.Attrs {
			f.Properties[k] = v
		}
		f.Properties[PropSnapStart] = nullable(row.Status.SnapStart)
		f.Properties[PropSnapEnd] = nullable(row.Status.SnapEnd)
		f.Properties[PropSnapStatus] = nullable(row.Status.StatusText())
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode feature collection: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
