// Package cache puts a buffer into a cold-cache state before a timed read,
// either by flushing its lines or by evicting them through capacity pressure.
package cache

import (
	"github.com/klauspost/cpuid/v2"
)

const (
	// DefaultLineSize is used when the CPU does not report a line size.
	DefaultLineSize = 64

	// DefaultLastLevel is the assumed last-level cache size when the CPU
	// reports none.
	DefaultLastLevel = 32 << 20
)

// Geometry describes the data cache hierarchy.  Unknown sizes are <= 0.
type Geometry struct {
	LineSize int
	L1D      int
	L2       int
	L3       int
}

// DetectGeometry reads the cache hierarchy with cpuid.
func DetectGeometry() Geometry {
	g := Geometry{
		LineSize: cpuid.CPU.CacheLine,
		L1D:      cpuid.CPU.Cache.L1D,
		L2:       cpuid.CPU.Cache.L2,
		L3:       cpuid.CPU.Cache.L3,
	}
	if g.LineSize <= 0 || g.LineSize&(g.LineSize-1) != 0 {
		g.LineSize = DefaultLineSize
	}
	return g
}

// LastLevel returns the size of the largest known cache level.
func (g Geometry) LastLevel() int {
	switch {
	case g.L3 > 0:
		return g.L3
	case g.L2 > 0:
		return g.L2
	default:
		return DefaultLastLevel
	}
}
