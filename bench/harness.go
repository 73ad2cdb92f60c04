package bench

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/ahmedtd/alignsum/cache"
	"github.com/ahmedtd/alignsum/kernel"
	"github.com/ahmedtd/alignsum/membuf"
)

// SumTolerance is the relative error allowed between the two variants' sums.
const SumTolerance = 1e-9

// sink keeps timed sums observable so the calls are not elided.
var sink float64

// Run executes cfg.Trials trials.  Each trial allocates a fresh sample buffer,
// then for the aligned and the misaligned view in turn: fills it from a
// generator seeded with cfg.Seed+trial, conditions the cache, and times
// cfg.Iterations calls.
func Run(ctx context.Context, cfg Config, isa kernel.ISA, cond cache.Conditioner) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Alignment < isa.Alignment() {
		return nil, fmt.Errorf("%w: alignment %d is below the %d bytes %s aligned loads need",
			ErrInvalidConfig, cfg.Alignment, isa.Alignment(), isa.Name())
	}
	if cfg.Offset > 0 && membuf.IsAligned(uintptr(cfg.Offset), isa.Alignment()) {
		log.Printf("Offset %d is a multiple of %d; the misaligned view will be aligned", cfg.Offset, isa.Alignment())
	}

	report := &Report{Config: cfg, ISA: isa.Name(), ISAAlignment: isa.Alignment()}
	for t := 0; t < cfg.Trials; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		trial, err := runTrial(cfg, isa, cond, t)
		if err != nil {
			return nil, fmt.Errorf("while running trial %d: %w", t, err)
		}
		if !SumsAgree(trial.AlignedSum, trial.UnalignedSum, SumTolerance) {
			log.Printf("Trial %d: aligned sum %v and unaligned sum %v disagree", t, trial.AlignedSum, trial.UnalignedSum)
		}
		report.Trials = append(report.Trials, trial)
	}

	return report, nil
}

func runTrial(cfg Config, isa kernel.ISA, cond cache.Conditioner, t int) (trial Trial, err error) {
	buf, err := membuf.NewSampleBuffer(cfg.Allocator, cfg.Size, cfg.Offset, cfg.Alignment)
	if err != nil {
		return Trial{}, fmt.Errorf("while allocating sample buffer: %w", err)
	}
	defer func() {
		if cerr := buf.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("while releasing sample buffer: %w", cerr)
		}
	}()

	aligned, err := buf.View(0, cfg.Size)
	if err != nil {
		return Trial{}, fmt.Errorf("while taking aligned view: %w", err)
	}
	misaligned, err := buf.View(cfg.Offset, cfg.Size)
	if err != nil {
		return Trial{}, fmt.Errorf("while taking misaligned view: %w", err)
	}
	if !membuf.IsAligned(aligned.Addr(), isa.Alignment()) {
		return Trial{}, fmt.Errorf("%w: allocator returned base %#x, not %d-byte aligned",
			membuf.ErrBadAlignment, aligned.Addr(), isa.Alignment())
	}

	seed := cfg.Seed + int64(t)

	aligned.Fill(rand.New(rand.NewSource(seed)), cfg.Low, cfg.High)
	trial.AlignedSum, trial.AlignedNs = timeSum(isa.SumAligned, aligned, cfg.Iterations, cond)

	misaligned.Fill(rand.New(rand.NewSource(seed)), cfg.Low, cfg.High)
	trial.UnalignedSum, trial.UnalignedNs = timeSum(isa.SumUnaligned, misaligned, cfg.Iterations, cond)

	if err := buf.CheckGuard(); err != nil {
		return Trial{}, err
	}
	return trial, nil
}

// timeSum returns the sum of v and the mean wall-clock nanoseconds per call
// over iterations calls, starting from a conditioned cache.
func timeSum(sum func(p []byte, n int) float64, v membuf.View, iterations int, cond cache.Conditioner) (float64, float64) {
	p, n := v.Bytes(), v.Len()

	cond.Condition(p)

	var last, acc float64
	start := time.Now()
	for i := 0; i < iterations; i++ {
		last = sum(p, n)
		acc += last
	}
	elapsed := time.Since(start)

	sink = acc
	return last, float64(elapsed.Nanoseconds()) / float64(iterations)
}
