// Package attrs cleans the descriptive attributes carried by road lines
// before they are stored: string values are trimmed and NFC-normalized, and
// blank strings become null so downstream tools see a missing value instead
// of whitespace.
package attrs

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Report counts the values Clean changed.
type Report struct {
	// Trimmed counts strings whose text changed (whitespace or normalization).
	Trimmed int `json:"trimmed"`
	// Nulled counts strings that were blank and became nil.
	Nulled int `json:"nulled"`
}

// Add accumulates another report.
func (r *Report) Add(o Report) {
	r.Trimmed += o.Trimmed
	r.Nulled += o.Nulled
}

// Clean returns a cleaned copy of attrs. Keys named in keep are copied
// verbatim. Non-string values are copied as is.
func Clean(attrs map[string]any, keep ...string) (map[string]any, Report) {
	var rep Report
	if attrs == nil {
		return nil, rep
	}

	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		s, ok := v.(string)
		if !ok || contains(keep, k) {
			out[k] = v
			continue
		}

		cleaned := norm.NFC.String(strings.TrimSpace(s))
		if cleaned == "" {
			out[k] = nil
			rep.Nulled++
			continue
		}
		if cleaned != s {
			rep.Trimmed++
		}
		out[k] = cleaned
	}
	return out, rep
}

func contains(keys []string, k string) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}
