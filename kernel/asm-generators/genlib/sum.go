// Package genlib holds the avo emitters shared by the kernel generators.
package genlib

import (
	. "github.com/mmcloughlin/avo/build"
	. "github.com/mmcloughlin/avo/operand"
	. "github.com/mmcloughlin/avo/reg"
)

// GenSum256 emits a float64 sum over n samples at p using one YMM accumulator.
// Each block of 4 samples is loaded with VMOVAPD when aligned is set and with
// VMOVUPD otherwise.  Trailing samples go into a scalar accumulator, added
// after the horizontal reduction.
func GenSum256(p, n Register, aligned bool) Register {
	acc := YMM()
	VXORPD(acc, acc, acc)
	tailAccumulator := XMM()
	VXORPD(tailAccumulator, tailAccumulator, tailAccumulator)

	Label("blockloop")
	CMPQ(n, U8(4))
	JL(LabelRef("tail"))

	x := YMM()
	if aligned {
		VMOVAPD(Mem{Base: p}, x)
	} else {
		VMOVUPD(Mem{Base: p}, x)
	}
	VADDPD(x, acc, acc)

	ADDQ(U32(32), p)
	SUBQ(U8(4), n)
	JMP(LabelRef("blockloop"))

	Label("tail")
	CMPQ(n, U8(0))
	JE(LabelRef("reduce"))

	tailElement := XMM()
	VMOVSD(Mem{Base: p}, tailElement)
	VADDSD(tailElement, tailAccumulator, tailAccumulator)

	ADDQ(U32(8), p)
	DECQ(n)
	JMP(LabelRef("tail"))

	// (l0+l2) and (l1+l3), then their sum.
	Label("reduce")
	top := XMM()
	VEXTRACTF128(U8(1), acc, top)
	result := acc.AsX()
	VADDPD(top, result, result)
	VHADDPD(result, result, result)
	VADDSD(tailAccumulator, result, result)
	VZEROUPPER()

	return result
}

// GenSum128 is GenSum256 for SSE2: two XMM accumulators cover the same 4-sample
// block, so the lane grouping matches the 256-bit kernel.
func GenSum128(p, n Register, aligned bool) Register {
	lo, hi := XMM(), XMM()
	XORPD(lo, lo)
	XORPD(hi, hi)
	tailAccumulator := XMM()
	XORPD(tailAccumulator, tailAccumulator)

	Label("blockloop")
	CMPQ(n, U8(4))
	JL(LabelRef("tail"))

	x0, x1 := XMM(), XMM()
	if aligned {
		MOVAPD(Mem{Base: p}, x0)
		MOVAPD(Mem{Base: p}.Offset(16), x1)
	} else {
		MOVUPD(Mem{Base: p}, x0)
		MOVUPD(Mem{Base: p}.Offset(16), x1)
	}
	ADDPD(x0, lo)
	ADDPD(x1, hi)

	ADDQ(U32(32), p)
	SUBQ(U8(4), n)
	JMP(LabelRef("blockloop"))

	Label("tail")
	CMPQ(n, U8(0))
	JE(LabelRef("reduce"))

	tailElement := XMM()
	MOVSD(Mem{Base: p}, tailElement)
	ADDSD(tailElement, tailAccumulator)

	ADDQ(U32(8), p)
	DECQ(n)
	JMP(LabelRef("tail"))

	Label("reduce")
	ADDPD(hi, lo)
	MOVAPD(lo, hi)
	UNPCKHPD(hi, hi)
	ADDSD(hi, lo)
	ADDSD(tailAccumulator, lo)

	return lo
}
