package bench

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Trial holds one trial's sums and mean per-call times in nanoseconds.
type Trial struct {
	AlignedSum   float64
	UnalignedSum float64
	AlignedNs    float64
	UnalignedNs  float64
}

type Report struct {
	Config       Config
	ISA          string
	// ISAAlignment is the boundary the ISA's aligned loads require.
	ISAAlignment int
	Trials       []Trial
}

// OffsetAligned reports whether the misaligned view landed on an ISAAlignment
// boundary, in which case both variants measured aligned loads of aligned data.
func (r *Report) OffsetAligned() bool {
	return r.Config.Offset > 0 && r.ISAAlignment > 0 && r.Config.Offset%r.ISAAlignment == 0
}

// Summary aggregates per-call times across trials.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
}

func summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{Mean: math.NaN(), StdDev: math.NaN(), Min: math.NaN()}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return Summary{Mean: mean, StdDev: std, Min: floats.Min(xs)}
}

func (r *Report) column(f func(Trial) float64) []float64 {
	out := make([]float64, len(r.Trials))
	for i, t := range r.Trials {
		out[i] = f(t)
	}
	return out
}

func (r *Report) Aligned() Summary {
	return summarize(r.column(func(t Trial) float64 { return t.AlignedNs }))
}

func (r *Report) Unaligned() Summary {
	return summarize(r.column(func(t Trial) float64 { return t.UnalignedNs }))
}

// SpeedupPercent is how much faster the aligned variant is, as a percentage
// of the unaligned mean.  A zero unaligned mean yields ±Inf or NaN.
func (r *Report) SpeedupPercent() float64 {
	a, u := r.Aligned().Mean, r.Unaligned().Mean
	return (u - a) / u * 100
}

// Ratio is the aligned mean over the unaligned mean.
func (r *Report) Ratio() float64 {
	return r.Aligned().Mean / r.Unaligned().Mean
}

// SumsAgree reports whether a and b are within relative tolerance tol of
// each other.
func SumsAgree(a, b, tol float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= tol*math.Max(scale, 1)
}

// Unit scales nanosecond timings for display.
type Unit string

const (
	Nanoseconds  Unit = "ns"
	Microseconds Unit = "us"
	Milliseconds Unit = "ms"
)

func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case Nanoseconds, Microseconds, Milliseconds:
		return u, nil
	default:
		return "", fmt.Errorf("unknown time unit %q (want ns, us or ms)", s)
	}
}

func (u Unit) fromNs(ns float64) float64 {
	switch u {
	case Microseconds:
		return ns / 1e3
	case Milliseconds:
		return ns / 1e6
	default:
		return ns
	}
}

// WriteText prints one line per trial, then the aggregate table.
func WriteText(w io.Writer, r *Report, unit Unit) error {
	cfg := r.Config
	offset := fmt.Sprint(cfg.Offset)
	if r.OffsetAligned() {
		offset += " (aligned)"
	}
	if _, err := fmt.Fprintf(w, "isa=%s size=%d offset=%s iterations=%d trials=%d alignment=%d\n",
		r.ISA, cfg.Size, offset, cfg.Iterations, cfg.Trials, cfg.Alignment); err != nil {
		return err
	}
	for i, t := range r.Trials {
		if _, err := fmt.Fprintf(w, "trial %d: aligned sum=%.6f unaligned sum=%.6f aligned=%.3f%s unaligned=%.3f%s\n",
			i, t.AlignedSum, t.UnalignedSum, unit.fromNs(t.AlignedNs), unit, unit.fromNs(t.UnalignedNs), unit); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', tabwriter.AlignRight|tabwriter.Debug)
	row := func(name string, s Summary) {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%s\t\n", name, unit.fromNs(s.Mean), unit.fromNs(s.StdDev), unit.fromNs(s.Min), unit)
	}
	fmt.Fprintf(tw, "variant\tmean\tstddev\tmin\tunit\t\n")
	row("aligned data SIMD", r.Aligned())
	row(fmt.Sprintf("misaligned data SIMD (+%dB)", cfg.Offset), r.Unaligned())
	fmt.Fprintf(tw, "speedup\t%.2f\t\t\t%%\t\n", r.SpeedupPercent())
	fmt.Fprintf(tw, "ratio aligned/unaligned\t%.4f\t\t\t\t\n", r.Ratio())
	return tw.Flush()
}
