package snapstate

import (
	"fmt"
	"strings"
)

// Fields is the persisted form of a Record: two free-text descriptions and
// the composite finished flag.
type Fields struct {
	SnapStart string `json:"snap_start"`
	SnapEnd   string `json:"snap_end"`
	Finished  bool   `json:"finished"`
}

// StatusText returns the legacy snap_status value: "finished" or "".
func (f Fields) StatusText() string {
	if f.Finished {
		return TextFinished
	}
	return ""
}

// Committed pairs a line id with its persisted fields.
type Committed struct {
	LineID int64
	Fields Fields
}

// ToFields converts a record to its persisted form.
func (r Record) ToFields() Fields {
	return Fields{
		SnapStart: r.Start.String(),
		SnapEnd:   r.End.String(),
		Finished:  r.Finished(),
	}
}

// Commit converts every tracked record to Fields, in ascending line order.
func (t *Tracker) Commit() []Committed {
	ids := t.Lines()
	out := make([]Committed, len(ids))
	for i, id := range ids {
		out[i] = Committed{LineID: id, Fields: t.records[id].ToFields()}
	}
	return out
}

// ParseStatus converts persisted text back to a Status.
// Unknown text is rejected.
func ParseStatus(text string) (Status, error) {
	switch strings.TrimSpace(text) {
	case TextUnresolved:
		return Unresolved, nil
	case TextSnapped:
		return SnappedDone, nil
	case TextStatic:
		return StaticDone, nil
	default:
		return Unresolved, fmt.Errorf("snapstate: unknown status text %q", text)
	}
}

// FromFields seeds a tracker from persisted fields, as when a run resumes
// over previously snapped output. Lines whose fields are both empty are still
// tracked so the commit pass rewrites them.
func FromFields(persisted map[int64]Fields) (*Tracker, error) {
	t := New()
	for id, f := range persisted {
		start, err := ParseStatus(f.SnapStart)
		if err != nil {
			return nil, fmt.Errorf("line %d start: %w", id, err)
		}
		end, err := ParseStatus(f.SnapEnd)
		if err != nil {
			return nil, fmt.Errorf("line %d end: %w", id, err)
		}
		t.records[id] = &Record{Start: start, End: end}
	}
	return t, nil
}
