// Package membuf allocates byte arenas whose base address satisfies a declared
// alignment, and exposes float64 views into them at arbitrary byte offsets.
//
// Views never hold *float64 into the arena.  Elements are decoded from bytes,
// so a view may start at any byte offset without tripping checkptr.
package membuf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"unsafe"
)

// ElemSize is the size in bytes of one sample.
const ElemSize = 8

// GuardSize is the number of guard bytes placed after every arena.
const GuardSize = 64

const guardByte = 0xa5

var (
	ErrAllocation     = errors.New("allocation failed")
	ErrBadAlignment   = errors.New("alignment must be a power of two >= 8")
	ErrOutOfBounds    = errors.New("view exceeds buffer")
	ErrGuardCorrupted = errors.New("guard bytes overwritten")
)

// Allocator hands out arenas of nbytes whose first byte is aligned to
// alignment.
type Allocator interface {
	Alloc(nbytes, alignment int) (*Buffer, error)
}

// Buffer is an owned arena followed by GuardSize guard bytes.
type Buffer struct {
	arena     []byte
	guard     []byte
	alignment int

	release func() error
	closed  bool
}

// newBuffer takes mem holding at least nbytes+GuardSize bytes, with mem[0]
// already aligned.
func newBuffer(mem []byte, nbytes, alignment int, release func() error) *Buffer {
	b := &Buffer{
		arena:     mem[:nbytes:nbytes],
		guard:     mem[nbytes : nbytes+GuardSize],
		alignment: alignment,
		release:   release,
	}
	for i := range b.guard {
		b.guard[i] = guardByte
	}
	return b
}

// NewSampleBuffer allocates room for size float64 samples plus enough padding
// that a view shifted by offset bytes still holds size samples.
func NewSampleBuffer(alloc Allocator, size, offset, alignment int) (*Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocation, size)
	}
	total := size
	if offset > 0 {
		total += (offset + ElemSize - 1) / ElemSize
	}
	if total > math.MaxInt/ElemSize-GuardSize-alignment {
		return nil, fmt.Errorf("%w: %d elements overflows", ErrAllocation, total)
	}
	return alloc.Alloc(total*ElemSize, alignment)
}

func checkAlignment(alignment int) error {
	if alignment < ElemSize || alignment&(alignment-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrBadAlignment, alignment)
	}
	return nil
}

// IsAligned reports whether addr is a multiple of boundary, which must be a
// power of two.
func IsAligned(addr uintptr, boundary int) bool {
	return addr&uintptr(boundary-1) == 0
}

// Len returns the arena size in bytes, excluding guard bytes.
func (b *Buffer) Len() int {
	return len(b.arena)
}

// Bytes returns the whole arena.
func (b *Buffer) Bytes() []byte {
	return b.arena
}

// Addr returns the arena's base address.
func (b *Buffer) Addr() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b.arena)))
}

// Alignment returns the boundary the base address was allocated at.
func (b *Buffer) Alignment() int {
	return b.alignment
}

// View returns n samples starting offset bytes into the arena.
func (b *Buffer) View(offset, n int) (View, error) {
	if offset < 0 || offset > len(b.arena) || n < 0 || n > (len(b.arena)-offset)/ElemSize {
		return View{}, fmt.Errorf("%w: offset %d + %d samples, arena is %d bytes", ErrOutOfBounds, offset, n, len(b.arena))
	}
	return View{buf: b, offset: offset, n: n}, nil
}

// CheckGuard reports ErrGuardCorrupted if anything wrote past the arena.
func (b *Buffer) CheckGuard() error {
	for i, c := range b.guard {
		if c != guardByte {
			return fmt.Errorf("%w: byte %d past end is %#x", ErrGuardCorrupted, i, c)
		}
	}
	return nil
}

// Close releases the arena.  Only the first call has an effect.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.arena, b.guard = nil, nil
	if b.release != nil {
		return b.release()
	}
	return nil
}

// View is a non-owning window of float64 samples at a byte offset into a
// Buffer.
type View struct {
	buf    *Buffer
	offset int
	n      int
}

// Len returns the number of samples.
func (v View) Len() int {
	return v.n
}

// Offset returns the byte offset from the arena base.
func (v View) Offset() int {
	return v.offset
}

// Addr returns the address of the first sample.
func (v View) Addr() uintptr {
	return v.buf.Addr() + uintptr(v.offset)
}

// Bytes returns the bytes backing the view.
func (v View) Bytes() []byte {
	return v.buf.arena[v.offset : v.offset+v.n*ElemSize]
}

func (v View) At(i int) float64 {
	return math.Float64frombits(binary.NativeEndian.Uint64(v.Bytes()[i*ElemSize:]))
}

func (v View) Set(i int, x float64) {
	binary.NativeEndian.PutUint64(v.Bytes()[i*ElemSize:], math.Float64bits(x))
}

// Fill writes samples drawn uniformly from [lo, hi).
func (v View) Fill(r *rand.Rand, lo, hi float64) {
	p := v.Bytes()
	for i := 0; i < v.n; i++ {
		x := lo + r.Float64()*(hi-lo)
		binary.NativeEndian.PutUint64(p[i*ElemSize:], math.Float64bits(x))
	}
}

// FillConst writes x into every sample.
func (v View) FillConst(x float64) {
	bits := math.Float64bits(x)
	p := v.Bytes()
	for i := 0; i < v.n; i++ {
		binary.NativeEndian.PutUint64(p[i*ElemSize:], bits)
	}
}

// Values copies the samples out.
func (v View) Values() []float64 {
	out := make([]float64, v.n)
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}
