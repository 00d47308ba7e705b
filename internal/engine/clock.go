package engine

import "sync/atomic"

// Clock is the logical clock that orders trace events within a run.
//
// Seq values start at 1 and increase by one per event. They are never derived
// from wall time, so two runs over the same input produce identical traces.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
