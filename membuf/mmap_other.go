//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package membuf

import (
	"fmt"
	"runtime"
)

// MmapAllocator is only implemented on unix targets.
type MmapAllocator struct{}

var _ Allocator = MmapAllocator{}

func (MmapAllocator) Alloc(nbytes, alignment int) (*Buffer, error) {
	return nil, fmt.Errorf("%w: mmap allocator not supported on %s", ErrAllocation, runtime.GOOS)
}
