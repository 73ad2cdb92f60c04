package kernel

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"unsafe"
)

// genericISA is the portable fallback.  Its aligned path reads through a
// []float64 and so needs natural 8-byte alignment; its unaligned path decodes
// every sample from bytes.
type genericISA struct{}

func init() {
	register(genericISA{})
}

func (genericISA) Name() string   { return "generic" }
func (genericISA) Lanes() int     { return 1 }
func (genericISA) Alignment() int { return ElemSize }
func (genericISA) CanFlush() bool { return false }

func (genericISA) SumAligned(p []byte, n int) float64 {
	checkLen(p, n)
	if n == 0 {
		return 0
	}
	checkAligned(p, ElemSize)
	return sumFloat64s(unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(p))), n))
}

func (genericISA) SumUnaligned(p []byte, n int) float64 {
	checkLen(p, n)
	return sumBytes(p[:n*ElemSize])
}

func (g genericISA) FlushLines(p []byte, line int) {
	g.Fence()
}

var fenceWord uint64

func (genericISA) Fence() {
	atomic.AddUint64(&fenceWord, 0)
}

func sumFloat64s(x []float64) float64 {
	var l0, l1, l2, l3 float64
	for len(x) >= GroupWidth {
		l0 += x[0]
		l1 += x[1]
		l2 += x[2]
		l3 += x[3]
		x = x[GroupWidth:]
	}
	var tail float64
	for _, v := range x {
		tail += v
	}
	return ((l0 + l2) + (l1 + l3)) + tail
}

func sumBytes(p []byte) float64 {
	load := func(b []byte) float64 {
		return math.Float64frombits(binary.NativeEndian.Uint64(b))
	}

	var l0, l1, l2, l3 float64
	for len(p) >= GroupWidth*ElemSize {
		l0 += load(p[0:8])
		l1 += load(p[8:16])
		l2 += load(p[16:24])
		l3 += load(p[24:32])
		p = p[GroupWidth*ElemSize:]
	}
	var tail float64
	for len(p) >= ElemSize {
		tail += load(p[:ElemSize])
		p = p[ElemSize:]
	}
	return ((l0 + l2) + (l1 + l3)) + tail
}
