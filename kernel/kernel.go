// Package kernel sums arrays of float64 with vector instructions, using either
// aligned or unaligned loads, and exposes the cache-line flush and fence
// primitives of the target.
//
// Every implementation accumulates groups of GroupWidth samples into
// GroupWidth lanes, sums the n%GroupWidth trailing samples sequentially into a
// scalar starting at zero, and returns ((l0+l2)+(l1+l3))+tail.  Aligned,
// unaligned and generic sums of the same data are therefore bit-identical.
package kernel

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"unsafe"
)

// GroupWidth is the number of samples consumed per loop iteration.
const GroupWidth = 4

// ElemSize is the size of one sample in bytes.
const ElemSize = 8

// EnvOverride names the environment variable that forces an ISA.
const EnvOverride = "ALIGNSUM_ISA"

var ErrUnknownISA = errors.New("unknown ISA")

// ISA is the hardware-coupled capability set the benchmark needs.
//
// p holds n samples as native-endian IEEE-754 bits.  SumAligned requires p to
// start on an Alignment() boundary; SumUnaligned accepts any address.
type ISA interface {
	Name() string

	// Lanes is the number of float64 values held by one vector register.
	Lanes() int

	// Alignment is the boundary in bytes required by SumAligned.
	Alignment() int

	SumAligned(p []byte, n int) float64
	SumUnaligned(p []byte, n int) float64

	// CanFlush reports whether FlushLines evicts lines from the cache
	// hierarchy.  When false, FlushLines only fences.
	CanFlush() bool

	// FlushLines fences, evicts every cache line of size line overlapping p,
	// then fences again.
	FlushLines(p []byte, line int)

	Fence()
}

var registry []ISA

func register(isa ISA) {
	registry = append(registry, isa)
}

// Available returns the ISAs usable on this CPU, widest first.
func Available() []ISA {
	out := slices.Clone(registry)
	slices.SortStableFunc(out, func(a, b ISA) int {
		return b.Lanes() - a.Lanes()
	})
	return out
}

// Lookup returns the available ISA with the given name.
func Lookup(name string) (ISA, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, isa := range registry {
		if isa.Name() == name {
			return isa, nil
		}
	}
	names := []string{}
	for _, isa := range Available() {
		names = append(names, isa.Name())
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownISA, name, strings.Join(names, ", "))
}

// Detect returns the ISA named by EnvOverride if it is available, otherwise
// the widest available one.
func Detect() ISA {
	if name := os.Getenv(EnvOverride); name != "" {
		isa, err := Lookup(name)
		if err == nil {
			return isa
		}
		log.Printf("Ignoring %s: %v", EnvOverride, err)
	}
	return Available()[0]
}

func checkLen(p []byte, n int) {
	if n < 0 {
		panic(fmt.Sprintf("negative sample count %d", n))
	}
	if len(p)/ElemSize < n {
		panic(fmt.Sprintf("%d bytes cannot hold %d samples", len(p), n))
	}
}

func checkAligned(p []byte, alignment int) {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	if addr&uintptr(alignment-1) != 0 {
		panic(fmt.Sprintf("aligned load from %#x, which is not %d-byte aligned", addr, alignment))
	}
}
