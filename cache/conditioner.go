package cache

import (
	"fmt"
	"log"
	"strings"

	"github.com/ahmedtd/alignsum/kernel"
	"github.com/ahmedtd/alignsum/membuf"
)

// Conditioner evicts a buffer from the cache hierarchy before it is read.
type Conditioner interface {
	Condition(b []byte)
	Close() error
}

type Strategy int

const (
	Flush Strategy = iota
	Evict
	Both
	None
)

func (s Strategy) String() string {
	switch s {
	case Flush:
		return "flush"
	case Evict:
		return "evict"
	case Both:
		return "both"
	case None:
		return "none"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "flush":
		return Flush, nil
	case "evict":
		return Evict, nil
	case "both":
		return Both, nil
	case "none":
		return None, nil
	default:
		return 0, fmt.Errorf("unknown cache strategy %q (want flush, evict, both or none)", s)
	}
}

// New builds the conditioner for strategy.  Flushing falls back to eviction
// when isa cannot flush cache lines.  The evictor's scratch buffer comes from
// alloc.
func New(strategy Strategy, isa kernel.ISA, alloc membuf.Allocator, g Geometry) (Conditioner, error) {
	if (strategy == Flush || strategy == Both) && !isa.CanFlush() {
		log.Printf("ISA %s cannot flush cache lines; evicting instead", isa.Name())
		strategy = Evict
	}

	switch strategy {
	case Flush:
		return NewFlusher(isa, g.LineSize), nil
	case Evict, Both:
		e, err := NewEvictor(alloc, ScratchSize(g), g.LineSize)
		if err != nil {
			return nil, err
		}
		if strategy == Evict {
			return e, nil
		}
		return chain{NewFlusher(isa, g.LineSize), e}, nil
	case None:
		return nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache strategy %v", strategy)
	}
}

// Flusher flushes each line of the target buffer with the ISA's flush
// instruction, fenced on both sides.
type Flusher struct {
	isa  kernel.ISA
	line int
}

func NewFlusher(isa kernel.ISA, line int) *Flusher {
	return &Flusher{isa: isa, line: line}
}

func (f *Flusher) Condition(b []byte) {
	f.isa.FlushLines(b, f.line)
}

func (f *Flusher) Close() error {
	return nil
}

type chain []Conditioner

func (c chain) Condition(b []byte) {
	for _, cond := range c {
		cond.Condition(b)
	}
}

func (c chain) Close() error {
	var first error
	for _, cond := range c {
		if err := cond.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type nop struct{}

func (nop) Condition([]byte) {}
func (nop) Close() error     { return nil }
