// Command flush generates the cache-line flush and fence routines.
package main

import (
	. "github.com/mmcloughlin/avo/build"
	. "github.com/mmcloughlin/avo/operand"
)

//go:generate go run main.go -out ../../flush_amd64.s -stubs ../../flush_amd64.go -pkg kernel

func main() {
	ConstraintExpr("!purego")

	TEXT("flushLines", NOSPLIT, "func(p *byte, n int, line int)")
	Doc("flushLines evicts every cache line overlapping [p, p+n), bracketed by MFENCE.")
	Pragma("noescape")

	p := Load(Param("p"), GP64())
	end := Load(Param("n"), GP64())
	line := Load(Param("line"), GP64())

	Comment("Round p down to its cache line; line is a power of two.")
	LEAQ(Mem{Base: p, Index: end, Scale: 1}, end)
	mask := GP64()
	MOVQ(line, mask)
	NEGQ(mask)
	ANDQ(mask, p)
	MFENCE()

	Label("lineloop")
	CMPQ(p, end)
	JAE(LabelRef("done"))
	CLFLUSH(Mem{Base: p})
	ADDQ(line, p)
	JMP(LabelRef("lineloop"))

	Label("done")
	MFENCE()
	RET()

	TEXT("mfence", NOSPLIT, "func()")
	Doc("mfence serializes all prior loads and stores.")
	MFENCE()
	RET()

	Generate()
}
