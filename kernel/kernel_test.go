package kernel

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/ahmedtd/alignsum/membuf"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// sampleViews returns an aligned view of n samples and a view of n samples
// shifted by offset bytes, over the same buffer.
func sampleViews(t testing.TB, n, offset, alignment int) (aligned, shifted membuf.View) {
	t.Helper()
	buf, err := membuf.NewSampleBuffer(membuf.HeapAllocator{}, n, offset, alignment)
	if err != nil {
		t.Fatalf("while allocating: %v", err)
	}
	t.Cleanup(func() { buf.Close() })

	aligned, err = buf.View(0, n)
	if err != nil {
		t.Fatalf("while taking aligned view: %v", err)
	}
	shifted, err = buf.View(offset, n)
	if err != nil {
		t.Fatalf("while taking shifted view: %v", err)
	}
	return aligned, shifted
}

func TestAvailable(t *testing.T) {
	isas := Available()
	if len(isas) == 0 {
		t.Fatalf("no ISA available")
	}
	if got := isas[len(isas)-1].Name(); got != "generic" {
		t.Errorf("narrowest ISA is %q, want generic", got)
	}
	for i := 1; i < len(isas); i++ {
		if isas[i-1].Lanes() < isas[i].Lanes() {
			t.Errorf("%s (%d lanes) sorted before %s (%d lanes)", isas[i-1].Name(), isas[i-1].Lanes(), isas[i].Name(), isas[i].Lanes())
		}
	}
	for _, isa := range isas {
		if isa.Alignment() < isa.Lanes()*ElemSize {
			t.Errorf("%s alignment %d is narrower than its register", isa.Name(), isa.Alignment())
		}
	}
}

func TestSumEmpty(t *testing.T) {
	for _, isa := range Available() {
		aligned, shifted := sampleViews(t, 0, 3, 32)
		if got := isa.SumAligned(aligned.Bytes(), 0); got != 0 {
			t.Errorf("%s: SumAligned of nothing = %v", isa.Name(), got)
		}
		if got := isa.SumUnaligned(shifted.Bytes(), 0); got != 0 {
			t.Errorf("%s: SumUnaligned of nothing = %v", isa.Name(), got)
		}
		if got := isa.SumUnaligned(nil, 0); got != 0 {
			t.Errorf("%s: SumUnaligned(nil) = %v", isa.Name(), got)
		}
	}
}

func TestSumConstant(t *testing.T) {
	const v = 1.25
	for _, isa := range Available() {
		for _, size := range []int{0, 1, 3, 4, 5, 8, 1000} {
			t.Run(isa.Name()+"/size="+strconv.Itoa(size), func(t *testing.T) {
				aligned, shifted := sampleViews(t, size, 7, 32)
				aligned.FillConst(v)
				gotAligned := isa.SumAligned(aligned.Bytes(), size)
				shifted.FillConst(v)
				gotUnaligned := isa.SumUnaligned(shifted.Bytes(), size)

				want := v * float64(size)
				opt := cmpopts.EquateApprox(1e-12, 0)
				if diff := cmp.Diff(gotAligned, want, opt); diff != "" {
					t.Errorf("Wrong aligned sum; diff (-got +want)\n%s", diff)
				}
				if diff := cmp.Diff(gotUnaligned, want, opt); diff != "" {
					t.Errorf("Wrong unaligned sum; diff (-got +want)\n%s", diff)
				}
			})
		}
	}
}

// kahan is an accurate reference sum.
func kahan(xs []float64) (sum, abs float64) {
	var c float64
	for _, x := range xs {
		y := x - c
		s := sum + y
		c = (s - sum) - y
		sum = s
		abs += math.Abs(x)
	}
	return sum, abs
}

func TestAlignedMatchesUnaligned(t *testing.T) {
	sizes := []int{1, 2, 3, 4, 5, 7, 8, 9, 15, 16, 17, 1000, 1001, 1003}
	for _, isa := range Available() {
		for _, size := range sizes {
			for _, offset := range []int{1, 3, 7, 9, 17, 31, 46} {
				// The views overlap, so each is filled right before it is read.
				aligned, shifted := sampleViews(t, size, offset, 32)
				aligned.Fill(rand.New(rand.NewSource(int64(size))), -1000, 1000)
				values := aligned.Values()
				a := isa.SumAligned(aligned.Bytes(), size)

				shifted.Fill(rand.New(rand.NewSource(int64(size))), -1000, 1000)
				u := isa.SumUnaligned(shifted.Bytes(), size)

				// Same grouping everywhere, so exact equality holds.
				if a != u {
					t.Errorf("%s size=%d offset=%d: aligned %v != unaligned %v", isa.Name(), size, offset, a, u)
				}
				if g := sumFloat64s(values); a != g {
					t.Errorf("%s size=%d: sum %v differs from generic %v", isa.Name(), size, a, g)
				}

				ref, abs := kahan(values)
				if math.Abs(a-ref) > 1e-9*abs {
					t.Errorf("%s size=%d: sum %v too far from reference %v", isa.Name(), size, a, ref)
				}
			}
		}
	}
}

func TestSumIgnoresTrailingBytes(t *testing.T) {
	for _, isa := range Available() {
		aligned, _ := sampleViews(t, 9, 0, 32)
		aligned.FillConst(2)
		if got := isa.SumAligned(aligned.Bytes(), 6); got != 12 {
			t.Errorf("%s: sum of first 6 samples = %v, want 12", isa.Name(), got)
		}
		if got := isa.SumUnaligned(aligned.Bytes()[8:], 5); got != 10 {
			t.Errorf("%s: sum of samples 1..5 = %v, want 10", isa.Name(), got)
		}
	}
}

func TestSumAlignedPanicsOnMisalignedAddress(t *testing.T) {
	for _, isa := range Available() {
		_, shifted := sampleViews(t, 16, 1, 32)
		require.Panics(t, func() {
			isa.SumAligned(shifted.Bytes(), 16)
		}, isa.Name())

		// The same address is fine for the unaligned path.
		require.NotPanics(t, func() {
			isa.SumUnaligned(shifted.Bytes(), 16)
		}, isa.Name())
	}
}

func TestSumPanicsOnShortInput(t *testing.T) {
	for _, isa := range Available() {
		aligned, _ := sampleViews(t, 4, 0, 32)
		require.Panics(t, func() { isa.SumAligned(aligned.Bytes(), 5) }, isa.Name())
		require.Panics(t, func() { isa.SumUnaligned(aligned.Bytes(), 5) }, isa.Name())
		require.Panics(t, func() { isa.SumUnaligned(aligned.Bytes(), -1) }, isa.Name())
	}
}

func TestFlushLinesPreservesData(t *testing.T) {
	for _, isa := range Available() {
		for _, offset := range []int{0, 1, 7, 63} {
			aligned, shifted := sampleViews(t, 4099, offset, 64)
			shifted.Fill(rand.New(rand.NewSource(99)), -1000, 1000)
			want := shifted.Values()

			isa.FlushLines(shifted.Bytes(), 64)
			isa.FlushLines(aligned.Bytes()[:1], 64)
			isa.FlushLines(nil, 64)
			isa.Fence()

			if diff := cmp.Diff(shifted.Values(), want); diff != "" {
				t.Fatalf("%s: flush changed data; diff (-got +want)\n%s", isa.Name(), diff)
			}
		}
	}
}

func TestLookup(t *testing.T) {
	for _, isa := range Available() {
		got, err := Lookup(" " + isa.Name() + " ")
		require.NoError(t, err)
		require.Equal(t, isa.Name(), got.Name())
	}

	_, err := Lookup("sve9")
	if !errors.Is(err, ErrUnknownISA) {
		t.Fatalf("Lookup(sve9) error = %v, want ErrUnknownISA", err)
	}
}

func TestDetectOverride(t *testing.T) {
	t.Setenv(EnvOverride, "generic")
	require.Equal(t, "generic", Detect().Name())

	t.Setenv(EnvOverride, "not-an-isa")
	require.Equal(t, Available()[0].Name(), Detect().Name())
}

func BenchmarkSum(b *testing.B) {
	for _, isa := range Available() {
		for _, size := range []int{1 << 10, 1 << 16, 1 << 20} {
			for _, load := range []string{"aligned", "unaligned"} {
				b.Run("isa="+isa.Name()+"/size="+strconv.Itoa(size)+"/load="+load, func(b *testing.B) {
					aligned, shifted := sampleViews(b, size, 3, 32)
					v, sum := aligned, isa.SumAligned
					if load == "unaligned" {
						v, sum = shifted, isa.SumUnaligned
					}
					v.Fill(rand.New(rand.NewSource(12345)), -1000, 1000)
					p := v.Bytes()

					b.SetBytes(int64(size * ElemSize))
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						_ = sum(p, size)
					}
				})
			}
		}
	}
}
