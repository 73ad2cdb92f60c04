package cache

import (
	"fmt"

	"github.com/ahmedtd/alignsum/membuf"
)

// MinScratchSize bounds the evictor's scratch buffer from below.
const MinScratchSize = 8 << 20

// sink keeps the evictor's reads observable.
var sink byte

// ScratchSize is twice the last-level cache, and at least MinScratchSize.
func ScratchSize(g Geometry) int {
	return max(2*g.LastLevel(), MinScratchSize)
}

// Evictor pushes a target buffer out of cache by writing and then reading one
// byte per line of a scratch buffer larger than the last-level cache.
type Evictor struct {
	scratch *membuf.Buffer
	line    int
}

func NewEvictor(alloc membuf.Allocator, size, line int) (*Evictor, error) {
	if line <= 0 {
		return nil, fmt.Errorf("invalid cache line size %d", line)
	}
	scratch, err := alloc.Alloc(size, line)
	if err != nil {
		return nil, fmt.Errorf("while allocating %d byte eviction buffer: %w", size, err)
	}
	return &Evictor{scratch: scratch, line: line}, nil
}

// Condition ignores its argument; capacity pressure evicts whatever was
// cached.
func (e *Evictor) Condition([]byte) {
	b := e.scratch.Bytes()
	for i := 0; i < len(b); i += e.line {
		b[i]++
	}
	var sum byte
	for i := 0; i < len(b); i += e.line {
		sum += b[i]
	}
	sink = sum
}

// Size returns the scratch buffer size in bytes.
func (e *Evictor) Size() int {
	return e.scratch.Len()
}

func (e *Evictor) Close() error {
	return e.scratch.Close()
}
