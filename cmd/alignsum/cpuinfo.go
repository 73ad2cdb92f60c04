package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"

	"github.com/ahmedtd/alignsum/cache"
	"github.com/ahmedtd/alignsum/kernel"
	"github.com/google/subcommands"
	"golang.org/x/sys/cpu"
)

type CPUInfoCommand struct {
	out io.Writer
}

var _ subcommands.Command = (*CPUInfoCommand)(nil)

func (*CPUInfoCommand) Name() string {
	return "cpuinfo"
}

func (*CPUInfoCommand) Synopsis() string {
	return "Print the detected kernels and cache geometry"
}

func (*CPUInfoCommand) Usage() string {
	return ``
}

func (*CPUInfoCommand) SetFlags(f *flag.FlagSet) {}

func (c *CPUInfoCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	w := c.out
	fmt.Fprintf(w, "GOOS: %s\n", runtime.GOOS)
	fmt.Fprintf(w, "GOARCH: %s\n", runtime.GOARCH)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Selected ISA: %s\n", kernel.Detect().Name())
	for _, isa := range kernel.Available() {
		fmt.Fprintf(w, "  %-8s lanes=%d alignment=%dB flush=%v\n", isa.Name(), isa.Lanes(), isa.Alignment(), isa.CanFlush())
	}
	fmt.Fprintln(w)

	switch runtime.GOARCH {
	case "amd64":
		fmt.Fprintln(w, "=== golang.org/x/sys/cpu.X86 ===")
		fmt.Fprintf(w, "  HasSSE2:    %v\n", cpu.X86.HasSSE2)
		fmt.Fprintf(w, "  HasAVX:     %v\n", cpu.X86.HasAVX)
		fmt.Fprintf(w, "  HasAVX2:    %v\n", cpu.X86.HasAVX2)
		fmt.Fprintf(w, "  HasAVX512F: %v\n", cpu.X86.HasAVX512F)
	case "arm64":
		fmt.Fprintln(w, "=== golang.org/x/sys/cpu.ARM64 ===")
		fmt.Fprintf(w, "  HasASIMD: %v\n", cpu.ARM64.HasASIMD)
		fmt.Fprintf(w, "  HasSVE:   %v\n", cpu.ARM64.HasSVE)
	}
	fmt.Fprintln(w)

	g := cache.DetectGeometry()
	fmt.Fprintf(w, "Cache line: %d bytes\n", g.LineSize)
	fmt.Fprintf(w, "L1D: %d  L2: %d  L3: %d bytes\n", g.L1D, g.L2, g.L3)
	fmt.Fprintf(w, "Eviction scratch: %d bytes\n", cache.ScratchSize(g))

	return subcommands.ExitSuccess
}
