package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"

	"github.com/ahmedtd/alignsum/bench"
	"github.com/ahmedtd/alignsum/cache"
	"github.com/ahmedtd/alignsum/kernel"
	"github.com/ahmedtd/alignsum/membuf"
	"github.com/google/subcommands"
)

// exitBoundsViolation is returned when the misaligned view would read past
// the end of the sample buffer.
const exitBoundsViolation subcommands.ExitStatus = 3

type RunCommand struct {
	out io.Writer

	size       int
	offset     int
	iterations int
	trials     int
	alignment  int
	seed       int64

	cacheStrategy string
	allocator     string
	isa           string
	unit          string

	npzFile        string
	cpuProfileFile string
}

var _ subcommands.Command = (*RunCommand)(nil)

func (*RunCommand) Name() string {
	return "run"
}

func (*RunCommand) Synopsis() string {
	return "Time aligned against misaligned vectorized sums"
}

func (*RunCommand) Usage() string {
	return `run [flags]:
  Sum --size float64 samples with aligned loads from an aligned base, then with
  unaligned loads from a base shifted by --offset bytes, --iterations times per
  trial, and report per-call timings averaged over --trials trials.
`
}

func (c *RunCommand) SetFlags(f *flag.FlagSet) {
	def := bench.DefaultConfig()
	f.IntVar(&c.size, "size", def.Size, "Number of float64 samples to sum")
	f.IntVar(&c.offset, "offset", def.Offset, "Byte offset of the misaligned view")
	f.IntVar(&c.iterations, "iterations", def.Iterations, "Timed calls per variant per trial")
	f.IntVar(&c.trials, "trials", def.Trials, "Number of trials to average")
	f.IntVar(&c.alignment, "alignment", def.Alignment, "Base alignment of the sample buffer in bytes")
	f.Int64Var(&c.seed, "seed", def.Seed, "Seed for the sample generator")

	f.StringVar(&c.cacheStrategy, "cache", def.Strategy.String(), "Cache conditioning before each timed phase: flush, evict, both or none")
	f.StringVar(&c.allocator, "alloc", "heap", "Sample buffer allocator: heap or mmap")
	f.StringVar(&c.isa, "isa", "", "Kernel ISA (default: $"+kernel.EnvOverride+" or the widest available)")
	f.StringVar(&c.unit, "unit", string(bench.Nanoseconds), "Time unit for the report: ns, us or ms")

	f.StringVar(&c.npzFile, "npz", "", "Also save the per-trial measurements to this .npz file")
	f.StringVar(&c.cpuProfileFile, "cpu-profile", "", "Write a CPU profile")
}

func (c *RunCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return exitStatus(err)
	}
	return subcommands.ExitSuccess
}

func exitStatus(err error) subcommands.ExitStatus {
	switch {
	case errors.Is(err, membuf.ErrOutOfBounds):
		return exitBoundsViolation
	case errors.Is(err, bench.ErrInvalidConfig), errors.Is(err, errUsage):
		return subcommands.ExitUsageError
	default:
		return subcommands.ExitFailure
	}
}

var errUsage = errors.New("usage")

func (c *RunCommand) config() (bench.Config, error) {
	cfg := bench.DefaultConfig()
	cfg.Size = c.size
	cfg.Offset = c.offset
	cfg.Iterations = c.iterations
	cfg.Trials = c.trials
	cfg.Alignment = c.alignment
	cfg.Seed = c.seed

	strategy, err := cache.ParseStrategy(c.cacheStrategy)
	if err != nil {
		return bench.Config{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	cfg.Strategy = strategy

	alloc, err := membuf.LookupAllocator(c.allocator)
	if err != nil {
		return bench.Config{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	cfg.Allocator = alloc

	return cfg, cfg.Validate()
}

func (c *RunCommand) executeErr(ctx context.Context) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	unit, err := bench.ParseUnit(c.unit)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	isa := kernel.Detect()
	if c.isa != "" {
		isa, err = kernel.Lookup(c.isa)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
	}

	if c.cpuProfileFile != "" {
		f, err := os.Create(c.cpuProfileFile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	geometry := cache.DetectGeometry()
	cond, err := cache.New(cfg.Strategy, isa, cfg.Allocator, geometry)
	if err != nil {
		return fmt.Errorf("while setting up cache conditioning: %w", err)
	}
	defer cond.Close()

	log.Printf("Running isa=%s cache=%s line=%d llc=%d alloc=%s", isa.Name(), cfg.Strategy, geometry.LineSize, geometry.LastLevel(), c.allocator)

	report, err := bench.Run(ctx, cfg, isa, cond)
	if err != nil {
		return fmt.Errorf("while benchmarking: %w", err)
	}

	if err := bench.WriteText(c.out, report, unit); err != nil {
		return fmt.Errorf("while writing report: %w", err)
	}

	if c.npzFile != "" {
		if err := bench.WriteNPZ(c.npzFile, report); err != nil {
			return fmt.Errorf("while saving measurements: %w", err)
		}
		log.Printf("Saved measurements to %s", c.npzFile)
	}

	return nil
}
