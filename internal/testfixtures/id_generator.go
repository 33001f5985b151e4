package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out predictable identifiers ("room-1", "room-2", ...) so
// assertions can name the entities a scenario creates. Safe for concurrent use.
type IDGenerator struct {
	prefix string
	issued atomic.Uint64
}

// NewIDGenerator returns a generator for prefix, or "id" when prefix is empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	n := g.issued.Add(1)
	return g.prefix + "-" + strconv.FormatUint(n, 10)
}

// NextFunc adapts the generator to the func() string hooks the services take.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued reports how many identifiers were handed out.
func (g *IDGenerator) Issued() uint64 {
	return g.issued.Load()
}

// Reset restarts the sequence at 1.
func (g *IDGenerator) Reset() {
	g.issued.Store(0)
}
