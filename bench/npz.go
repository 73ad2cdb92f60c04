package bench

import (
	"errors"
	"fmt"
	"os"

	"github.com/sbinet/npyio/npz"
)

// WriteNPZ saves the per-trial measurements and the run parameters as a
// NumPy .npz archive.
func WriteNPZ(path string, r *Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
			err = fmt.Errorf("while closing %s: %w", path, cerr)
		}
	}()

	w := npz.NewWriter(f)

	cfg := r.Config
	arrays := []struct {
		name string
		v    any
	}{
		{"aligned_ns.npy", r.column(func(t Trial) float64 { return t.AlignedNs })},
		{"unaligned_ns.npy", r.column(func(t Trial) float64 { return t.UnalignedNs })},
		{"aligned_sum.npy", r.column(func(t Trial) float64 { return t.AlignedSum })},
		{"unaligned_sum.npy", r.column(func(t Trial) float64 { return t.UnalignedSum })},
		{"config.npy", []int64{int64(cfg.Size), int64(cfg.Offset), int64(cfg.Iterations), int64(cfg.Trials), int64(cfg.Alignment), cfg.Seed, int64(r.ISAAlignment)}},
		{"isa.npy", []uint8(r.ISA)},
	}
	for _, a := range arrays {
		if err := w.Write(a.name, a.v); err != nil {
			return fmt.Errorf("while writing %s: %w", a.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("while finishing archive: %w", err)
	}
	return nil
}

// ReadNPZ loads a report saved by WriteNPZ.  Only the numeric configuration
// survives the round trip.
func ReadNPZ(path string) (*Report, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening %s: %w", path, err)
	}
	defer r.Close()

	var cfg []int64
	if err := r.Read("config.npy", &cfg); err != nil {
		return nil, fmt.Errorf("while reading config.npy: %w", err)
	}
	if len(cfg) != 7 {
		return nil, fmt.Errorf("config.npy has %d entries, want 7", len(cfg))
	}

	var isa []uint8
	if err := r.Read("isa.npy", &isa); err != nil {
		return nil, fmt.Errorf("while reading isa.npy: %w", err)
	}

	columns := map[string]*[]float64{}
	var alignedNs, unalignedNs, alignedSum, unalignedSum []float64
	columns["aligned_ns.npy"] = &alignedNs
	columns["unaligned_ns.npy"] = &unalignedNs
	columns["aligned_sum.npy"] = &alignedSum
	columns["unaligned_sum.npy"] = &unalignedSum
	for name, dst := range columns {
		if err := r.Read(name, dst); err != nil {
			return nil, fmt.Errorf("while reading %s: %w", name, err)
		}
		if len(*dst) != int(cfg[3]) {
			return nil, fmt.Errorf("%s has %d trials, config says %d", name, len(*dst), cfg[3])
		}
	}

	report := &Report{
		Config: Config{
			Size:       int(cfg[0]),
			Offset:     int(cfg[1]),
			Iterations: int(cfg[2]),
			Trials:     int(cfg[3]),
			Alignment:  int(cfg[4]),
			Seed:       cfg[5],
		},
		ISA:          string(isa),
		ISAAlignment: int(cfg[6]),
	}
	for i := range alignedNs {
		report.Trials = append(report.Trials, Trial{
			AlignedSum:   alignedSum[i],
			UnalignedSum: unalignedSum[i],
			AlignedNs:    alignedNs[i],
			UnalignedNs:  unalignedNs[i],
		})
	}
	return report, nil
}
