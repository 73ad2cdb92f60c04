//go:build linux || darwin || freebsd || netbsd || openbsd

package membuf

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapAllocator maps anonymous private pages for each arena.  Page alignment
// covers any boundary up to the page size.
type MmapAllocator struct{}

var _ Allocator = MmapAllocator{}

func (MmapAllocator) Alloc(nbytes, alignment int) (*Buffer, error) {
	if err := checkAlignment(alignment); err != nil {
		return nil, err
	}
	page := unix.Getpagesize()
	if alignment > page {
		return nil, fmt.Errorf("%w: %d exceeds page size %d", ErrBadAlignment, alignment, page)
	}
	if nbytes < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocation, nbytes)
	}

	length := (nbytes + GuardSize + page - 1) &^ (page - 1)
	mem, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: while mapping %d bytes: %v", ErrAllocation, length, err)
	}

	return newBuffer(mem, nbytes, alignment, func() error {
		if err := unix.Munmap(mem); err != nil {
			return fmt.Errorf("while unmapping arena: %w", err)
		}
		return nil
	}), nil
}
