package testutil

// DefaultRunID is returned by a FixedRunID built with an empty id.
const DefaultRunID = "test-run-default"

// FixedRunID generates the same run id every time.
//
// Unlike engine.FixedGenerator, which hands out ids in sequence, this
// generator never changes, so the same scenario always records the same run
// and golden output stays byte-identical.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run id generator.
// If id is empty, Generate returns DefaultRunID.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunID) Generate() string {
	return g.id
}
