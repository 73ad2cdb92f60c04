// Package bench times aligned against unaligned vector summation over
// repeated cold-cache trials.
package bench

import (
	"errors"
	"fmt"

	"github.com/ahmedtd/alignsum/cache"
	"github.com/ahmedtd/alignsum/membuf"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Size is the number of float64 samples summed per call.
	Size int

	// Offset is the byte shift of the misaligned view.
	Offset int

	// Iterations is the number of timed calls per variant per trial.
	Iterations int

	Trials int

	// Alignment is the boundary the buffer base is allocated at.
	Alignment int

	Seed int64

	// Samples are drawn uniformly from [Low, High).
	Low, High float64

	Strategy  cache.Strategy
	Allocator membuf.Allocator
}

func DefaultConfig() Config {
	return Config{
		Size:       1000000,
		Offset:     3,
		Iterations: 1000,
		Trials:     5,
		Alignment:  32,
		Seed:       12345,
		Low:        -1000,
		High:       1000,
		Strategy:   cache.Flush,
		Allocator:  membuf.HeapAllocator{},
	}
}

// Validate checks everything except Offset; a bad offset surfaces as
// membuf.ErrOutOfBounds once the buffer exists.
func (c Config) Validate() error {
	switch {
	case c.Size < 0:
		return fmt.Errorf("%w: size %d is negative", ErrInvalidConfig, c.Size)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	case c.Trials <= 0:
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalidConfig, c.Trials)
	case c.Alignment < membuf.ElemSize || c.Alignment&(c.Alignment-1) != 0:
		return fmt.Errorf("%w: alignment %d is not a power of two >= %d", ErrInvalidConfig, c.Alignment, membuf.ElemSize)
	case !(c.Low < c.High):
		return fmt.Errorf("%w: empty sample range [%v, %v)", ErrInvalidConfig, c.Low, c.High)
	case c.Allocator == nil:
		return fmt.Errorf("%w: no allocator", ErrInvalidConfig)
	}
	return nil
}
