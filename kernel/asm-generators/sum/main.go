// Command sum generates the aligned and unaligned float64 sum kernels.
package main

import (
	"fmt"

	"github.com/ahmedtd/alignsum/kernel/asm-generators/genlib"
	. "github.com/mmcloughlin/avo/build"
	. "github.com/mmcloughlin/avo/reg"
)

//go:generate go run main.go -out ../../sum_amd64.s -stubs ../../sum_amd64.go -pkg kernel

func main() {
	ConstraintExpr("!purego")

	for _, k := range []struct {
		name    string
		width   int
		aligned bool
		gen     func(p, n Register, aligned bool) Register
	}{
		{"sumAlignedAVX", 256, true, genlib.GenSum256},
		{"sumUnalignedAVX", 256, false, genlib.GenSum256},
		{"sumAlignedSSE2", 128, true, genlib.GenSum128},
		{"sumUnalignedSSE2", 128, false, genlib.GenSum128},
	} {
		TEXT(k.name, NOSPLIT, "func(p *byte, n int) float64")
		if k.aligned {
			Doc(fmt.Sprintf("%s sums n float64 values starting at p using %d-byte aligned loads.", k.name, k.width/8))
		} else {
			Doc(fmt.Sprintf("%s sums n float64 values starting at p using unaligned %d-bit loads.", k.name, k.width))
		}

		p := Load(Param("p"), GP64())
		n := Load(Param("n"), GP64())
		result := k.gen(p, n, k.aligned)
		Store(result, ReturnIndex(0))

		RET()
	}

	Generate()
}
