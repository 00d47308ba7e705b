package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		keep []string
		want map[string]any
		rep  Report
	}{
		{
			name: "nil map",
			in:   nil,
			want: nil,
		},
		{
			name: "trims and nulls",
			in: map[string]any{
				"NAME":   "  MAIN ST ",
				"PREDIR": " ",
				"SUFDIR": "",
				"TYPE":   "ST",
				"SPEED":  float64(25),
				"ONEWAY": nil,
			},
			want: map[string]any{
				"NAME":   "MAIN ST",
				"PREDIR": nil,
				"SUFDIR": nil,
				"TYPE":   "ST",
				"SPEED":  float64(25),
				"ONEWAY": nil,
			},
			rep: Report{Trimmed: 1, Nulled: 2},
		},
		{
			name: "kept keys untouched",
			in:   map[string]any{"OBJECTID": " 12 ", "NAME": " A "},
			keep: []string{"OBJECTID"},
			want: map[string]any{"OBJECTID": " 12 ", "NAME": "A"},
			rep:  Report{Trimmed: 1},
		},
		{
			name: "nfc normalization",
			in:   map[string]any{"NAME": "Jose\u0301"},
			want: map[string]any{"NAME": "Jos\u00e9"},
			rep:  Report{Trimmed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rep := Clean(tt.in, tt.keep...)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rep, rep)
		})
	}
}

func TestClean_DoesNotModifyInput(t *testing.T) {
	in := map[string]any{"NAME": " A "}
	Clean(in)
	assert.Equal(t, " A ", in["NAME"])
}

func TestReport_Add(t *testing.T) {
	var total Report
	total.Add(Report{Trimmed: 2, Nulled: 1})
	total.Add(Report{Trimmed: 1})
	assert.Equal(t, Report{Trimmed: 3, Nulled: 1}, total)
}
