package testutil

// FixedIDGenerator returns the same statement ID every time.
//
// Statements built with it are byte-identical across runs, which keeps
// golden files stable.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator for id.
// If id is empty, Generate returns "test-statement".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-statement"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
