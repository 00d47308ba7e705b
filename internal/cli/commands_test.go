package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roadsnap/internal/topology"
)

// Lines 1 and 2 leave a 2-unit gap at (10,0)-(12,0); line 3 is too short to keep.
const roadsFixture = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"OBJECTID": 1, "NAME": " Main St "},
     "geometry": {"type": "LineString", "coordinates": [[0,0],[10,0]]}},
    {"type": "Feature", "properties": {"OBJECTID": 2, "NAME": "Main St"},
     "geometry": {"type": "LineString", "coordinates": [[12,0],[22,0]]}},
    {"type": "Feature", "properties": {"OBJECTID": 3, "NAME": ""},
     "geometry": {"type": "LineString", "coordinates": [[100,100],[101,100]]}},
    {"type": "Feature", "properties": {"OBJECTID": 9},
     "geometry": {"type": "Point", "coordinates": [5,5]}}
  ]
}`

func writeFixture(t *testing.T) (dir, input string) {
	t.Helper()
	dir = t.TempDir()
	input = filepath.Join(dir, "roads.geojson")
	require.NoError(t, os.WriteFile(input, []byte(roadsFixture), 0o644))
	return dir, input
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestImportCommand_Text(t *testing.T) {
	dir, input := writeFixture(t)
	db := filepath.Join(dir, "roads.db")

	out, err := execute(t, "import", "--db", db, input)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Imported 3 line(s)")
	assert.Contains(t, out, "Skipped:  1 non-line feature(s)")
	assert.Contains(t, out, "Trimmed:  1 value(s)")
	assert.Contains(t, out, "Nulled:   1 blank value(s)")
}

func TestImportCommand_NoClean(t *testing.T) {
	dir, input := writeFixture(t)
	db := filepath.Join(dir, "roads.db")

	out, err := execute(t, "import", "--db", db, "--no-clean", "--format", "json", input)
	require.NoError(t, err)

	var res ImportResult
	decodeData(t, out, &res)
	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Trimmed)
	assert.Zero(t, res.Nulled)
}

func TestImportCommand_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "import", "--db", filepath.Join(dir, "roads.db"), filepath.Join(dir, "missing.geojson"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImportCommand_MissingDBFlag(t *testing.T) {
	_, input := writeFixture(t)
	_, err := execute(t, "import", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}

func TestSnapCommand_DatabaseNotFound(t *testing.T) {
	_, err := execute(t, "snap", "--db", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestSnapCommand_InvalidRadius(t *testing.T) {
	dir, input := writeFixture(t)
	db := filepath.Join(dir, "roads.db")
	_, err := execute(t, "import", "--db", db, input)
	require.NoError(t, err)

	_, err = execute(t, "snap", "--db", db, "--radius", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWorkflow_ImportSnapExportStatus(t *testing.T) {
	dir, input := writeFixture(t)
	db := filepath.Join(dir, "roads.db")
	prom := filepath.Join(dir, "roadsnap.prom")
	output := filepath.Join(dir, "snapped.geojson")

	_, err := execute(t, "import", "--db", db, input)
	require.NoError(t, err)

	out, err := execute(t, "snap", "--db", db, "--format", "json", "--metrics-file", prom)
	require.NoError(t, err)

	var sum SnapSummary
	decodeData(t, out, &sum)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 4.0, sum.Radius)
	assert.Equal(t, 1, sum.Deleted)
	assert.Equal(t, 1, sum.SnappedPairs)
	assert.Equal(t, 1, sum.Neighborhoods)
	assert.Zero(t, sum.UnresolvedNeighborhoods)
	assert.Equal(t, 2, sum.Lines)
	assert.Empty(t, sum.Events)
	assert.Equal(t, topology.Summary{Nodes: 6, Edges: 3, Components: 3, Dangles: 6}, sum.Network.Before)
	assert.Equal(t, topology.Summary{Nodes: 3, Edges: 2, Components: 1, Dangles: 2}, sum.Network.After)

	metricsText, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), "roadsnap_snapped_pairs_total 1")

	out, err = execute(t, "export", "--db", db, output)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Exported 2 line(s)")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	byID := map[int64]*geojson.Feature{}
	for _, f := range fc.Features {
		byID[int64(f.Properties.MustInt("OBJECTID"))] = f
	}
	require.Contains(t, byID, int64(2))
	moved := byID[2].Geometry.(orb.LineString)
	assert.Equal(t, orb.Point{10, 0}, moved[0])
	assert.Equal(t, "snapped - done", byID[2].Properties["snap_start"])
	assert.Equal(t, "static - done", byID[1].Properties["snap_end"])
	assert.Equal(t, "Main St", byID[1].Properties["NAME"])

	out, err = execute(t, "status", "--db", db, "--format", "json")
	require.NoError(t, err)
	var st StatusResult
	decodeData(t, out, &st)
	assert.Equal(t, 2, st.Stats.Lines)
	assert.Equal(t, 1, st.Stats.Edited)
	assert.Zero(t, st.Stats.Finished)
	assert.Equal(t, sum.Network.After, st.Network)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, sum.RunID, st.LastRun.ID)
	assert.Equal(t, 1, st.LastRun.SnappedPairs)
}

func TestSnapCommand_VerboseText(t *testing.T) {
	dir, input := writeFixture(t)
	db := filepath.Join(dir, "roads.db")
	_, err := execute(t, "import", "--db", db, input)
	require.NoError(t, err)

	out, err := execute(t, "snap", "--db", db, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Snap run")
	assert.Contains(t, out, "Snapped pairs:  1")
	assert.Contains(t, out, "Components:     3 -> 1")
	assert.Contains(t, out, "=== Events ===")
	assert.Contains(t, out, "DEL")
	assert.Contains(t, out, "SNAP")
}

func TestExportCommand_Stdout(t *testing.T) {
	dir, input := writeFixture(t)
	db := filepath.Join(dir, "roads.db")
	_, err := execute(t, "import", "--db", db, input)
	require.NoError(t, err)

	out, err := execute(t, "export", "--db", db, "-")
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
	for _, f := range fc.Features {
		assert.Nil(t, f.Properties["snap_status"])
	}
}

func TestStatusCommand_NoRuns(t *testing.T) {
	dir, input := writeFixture(t)
	db := filepath.Join(dir, "roads.db")
	_, err := execute(t, "import", "--db", db, input)
	require.NoError(t, err)

	out, err := execute(t, "status", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Lines ===")
	assert.Contains(t, out, "Total:     3")
	assert.Contains(t, out, "Edited:    0")
	assert.Contains(t, out, "=== Network ===")
	assert.Contains(t, out, "Components:  3")
	assert.Contains(t, out, "(no runs)")
}

func TestConfigFile_SetsRadius(t *testing.T) {
	dir, input := writeFixture(t)
	db := filepath.Join(dir, "roads.db")
	cfgPath := filepath.Join(dir, "roadsnap.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("snap:\n  radius: 1.5\n"), 0o644))

	_, err := execute(t, "import", "--db", db, input)
	require.NoError(t, err)

	out, err := execute(t, "snap", "--db", db, "--config", cfgPath, "--format", "json")
	require.NoError(t, err)

	var sum SnapSummary
	decodeData(t, out, &sum)
	assert.Equal(t, 1.5, sum.Radius)
	assert.Zero(t, sum.SnappedPairs)
}
