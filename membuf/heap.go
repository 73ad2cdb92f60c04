package membuf

import (
	"fmt"
	"unsafe"
)

// HeapAllocator carves aligned arenas out of ordinary Go byte slices by
// over-allocating and rounding the base address up.
type HeapAllocator struct{}

var _ Allocator = HeapAllocator{}

func (HeapAllocator) Alloc(nbytes, alignment int) (buf *Buffer, err error) {
	if err := checkAlignment(alignment); err != nil {
		return nil, err
	}
	if nbytes < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocation, nbytes)
	}

	// make panics on lengths the runtime cannot satisfy.
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: %d bytes: %v", ErrAllocation, nbytes, r)
		}
	}()

	raw := make([]byte, nbytes+alignment-1+GuardSize)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	aligned := (addr + uintptr(alignment-1)) &^ uintptr(alignment-1)
	skew := int(aligned - addr)

	return newBuffer(raw[skew:], nbytes, alignment, nil), nil
}
