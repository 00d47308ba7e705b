package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb/encoding/wkb"

	"github.com/roach88/roadsnap/internal/geom"
)

// encodeGeometry converts a line to WKB.
func encodeGeometry(l geom.Line) ([]byte, error) {
	if len(l.Parts) == 0 {
		return nil, fmt.Errorf("encode line %d: no parts", l.ID)
	}
	data, err := wkb.Marshal(l.Geometry())
	if err != nil {
		return nil, fmt.Errorf("encode line %d: %w", l.ID, err)
	}
	return data, nil
}

// decodeGeometry parses WKB back into a line.
func decodeGeometry(id int64, data []byte) (geom.Line, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return geom.Line{}, fmt.Errorf("decode line %d: %w", id, err)
	}
	return geom.FromGeometry(id, g)
}

// encodeAttrs converts attributes to JSON TEXT with sorted keys and no HTML
// escaping, so identical attributes always store identical text.
func encodeAttrs(attrs map[string]any) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(attrs); err != nil {
		return "", fmt.Errorf("encode attrs: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// decodeAttrs parses JSON TEXT. Empty objects decode to nil.
func decodeAttrs(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(data), &attrs); err != nil {
		return nil, fmt.Errorf("decode attrs: %w", err)
	}
	return attrs, nil
}
