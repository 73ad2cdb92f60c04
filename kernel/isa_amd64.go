//go:build !purego

package kernel

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

func init() {
	if cpu.X86.HasAVX {
		register(avxISA{})
	}
	if cpu.X86.HasSSE2 {
		register(sse2ISA{})
	}
}

// x86Cache provides CLFLUSH and MFENCE, both part of the amd64 baseline.
type x86Cache struct{}

func (x86Cache) CanFlush() bool { return true }

func (x86Cache) FlushLines(p []byte, line int) {
	if line <= 0 || line&(line-1) != 0 {
		panic("cache line size must be a positive power of two")
	}
	if len(p) == 0 {
		mfence()
		return
	}
	flushLines(unsafe.SliceData(p), len(p), line)
}

func (x86Cache) Fence() {
	mfence()
}

// avxISA uses 256-bit VMOVAPD/VMOVUPD loads.
type avxISA struct{ x86Cache }

func (avxISA) Name() string   { return "avx" }
func (avxISA) Lanes() int     { return 4 }
func (avxISA) Alignment() int { return 32 }

func (a avxISA) SumAligned(p []byte, n int) float64 {
	checkLen(p, n)
	if n == 0 {
		return 0
	}
	checkAligned(p, a.Alignment())
	return sumAlignedAVX(unsafe.SliceData(p), n)
}

func (avxISA) SumUnaligned(p []byte, n int) float64 {
	checkLen(p, n)
	if n == 0 {
		return 0
	}
	return sumUnalignedAVX(unsafe.SliceData(p), n)
}

// sse2ISA uses 128-bit MOVAPD/MOVUPD loads, two registers per group.
type sse2ISA struct{ x86Cache }

func (sse2ISA) Name() string   { return "sse2" }
func (sse2ISA) Lanes() int     { return 2 }
func (sse2ISA) Alignment() int { return 16 }

func (s sse2ISA) SumAligned(p []byte, n int) float64 {
	checkLen(p, n)
	if n == 0 {
		return 0
	}
	checkAligned(p, s.Alignment())
	return sumAlignedSSE2(unsafe.SliceData(p), n)
}

func (sse2ISA) SumUnaligned(p []byte, n int) float64 {
	checkLen(p, n)
	if n == 0 {
		return 0
	}
	return sumUnalignedSSE2(unsafe.SliceData(p), n)
}
