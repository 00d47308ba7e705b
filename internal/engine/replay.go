package engine

import (
	"fmt"
	"sort"

	"github.com/roach88/roadsnap/internal/geom"
)

// Replay re-applies a run's event log to the network it started from and
// returns the resulting lines in ascending id order.
//
// Events are applied in Seq order against the current state, the same way
// the run made them: a snapped endpoint takes the anchor terminal as it stood
// at that point. Replaying the events of a completed run over its input
// yields exactly the geometries the run wrote. The input is not modified.
func Replay(lines []geom.Line, events []Event) ([]geom.Line, error) {
	state := make(map[int64]geom.Line, len(lines))
	for _, l := range lines {
		if _, dup := state[l.ID]; dup {
			return nil, fmt.Errorf("replay: duplicate line %d", l.ID)
		}
		state[l.ID] = l.Clone()
	}

	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	for _, ev := range ordered {
		line, ok := state[ev.LineID]
		if !ok {
			return nil, fmt.Errorf("replay: event %d: line %d not found", ev.Seq, ev.LineID)
		}

		switch ev.Kind {
		case EventDeleted:
			delete(state, ev.LineID)

		case EventTruncated:
			state[ev.LineID], _ = geom.TruncateToFirstPart(line)

		case EventSnapped:
			anchor, ok := state[ev.AnchorID]
			if !ok {
				return nil, fmt.Errorf("replay: event %d: anchor %d not found", ev.Seq, ev.AnchorID)
			}
			updated, err := geom.ReplaceTerminal(line, ev.Role, anchor.Terminal(ev.AnchorRole))
			if err != nil {
				return nil, fmt.Errorf("replay: event %d: %w", ev.Seq, err)
			}
			state[ev.LineID] = updated

		default:
			return nil, fmt.Errorf("replay: event %d: unknown kind %q", ev.Seq, ev.Kind)
		}
	}

	out := make([]geom.Line, 0, len(state))
	for _, l := range state {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
