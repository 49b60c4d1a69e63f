package bits

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/bits"
	"math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// TestFastRangeMonotonicity verifies that for a fixed n,
// h1 < h2 implies FastRange(h1,n) <= FastRange(h2,n).
func TestFastRangeMonotonicity(t *testing.T) {
	rng := newTestRNG(t)
	const iterations = 10000

	for i := 0; i < iterations; i++ {
		n := rng.Uint64N(math.MaxUint64) + 1
		h1 := rng.Uint64()
		h2 := rng.Uint64()
		if h1 > h2 {
			h1, h2 = h2, h1
		}

		r1 := FastRange(h1, n)
		r2 := FastRange(h2, n)
		if r1 > r2 {
			t.Fatalf("iter %d: monotonicity violated: FastRange(0x%X, %d)=%d > FastRange(0x%X, %d)=%d",
				i, h1, n, r1, h2, n, r2)
		}
	}
}

func TestFastRangeRange(t *testing.T) {
	rng := newTestRNG(t)

	for i := 0; i < 10000; i++ {
		n := rng.Uint64N(1<<40) + 1
		h := rng.Uint64()
		if got := FastRange(h, n); got >= n {
			t.Fatalf("iter %d: FastRange(0x%X, %d)=%d >= %d", i, h, n, got, n)
		}
	}
}

func TestFastRangeEdgeCases(t *testing.T) {
	for _, h := range []uint64{0, 1, math.MaxUint64, 0xDEADBEEF} {
		if got := FastRange(h, 0); got != 0 {
			t.Errorf("FastRange(0x%X, 0) = %d, want 0", h, got)
		}
		if got := FastRange(h, 1); got != 0 {
			t.Errorf("FastRange(0x%X, 1) = %d, want 0", h, got)
		}
	}

	// h=MaxUint64 maps to n-1 for any n >= 2
	for n := uint64(2); n <= 100; n++ {
		if got := FastRange(math.MaxUint64, n); got != n-1 {
			t.Errorf("FastRange(MaxUint64, %d) = %d, want %d", n, got, n-1)
		}
	}
}

func TestWordsFor(t *testing.T) {
	tests := []struct {
		n    uint64
		want uint64
	}{
		{0, 0}, {1, 1}, {63, 1}, {64, 1}, {65, 2}, {128, 2}, {129, 3},
	}
	for _, tt := range tests {
		if got := WordsFor(tt.n); got != tt.want {
			t.Errorf("WordsFor(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestLowMask(t *testing.T) {
	if LowMask(0) != 0 {
		t.Errorf("LowMask(0) = %x", LowMask(0))
	}
	if LowMask(64) != math.MaxUint64 {
		t.Errorf("LowMask(64) = %x", LowMask(64))
	}
	if LowMask(5) != 0x1F {
		t.Errorf("LowMask(5) = %x", LowMask(5))
	}
}

// TestSelectInWord compares against a naive bit scan on random words.
func TestSelectInWord(t *testing.T) {
	rng := newTestRNG(t)

	for i := 0; i < 2000; i++ {
		w := rng.Uint64()
		k := 0
		for pos := 0; pos < 64; pos++ {
			if w&(1<<pos) == 0 {
				continue
			}
			if got := SelectInWord(w, k); got != pos {
				t.Fatalf("SelectInWord(0x%X, %d) = %d, want %d", w, k, got, pos)
			}
			k++
		}
		if k != bits.OnesCount64(w) {
			t.Fatalf("visited %d ones, popcount %d", k, bits.OnesCount64(w))
		}
	}
}

func TestLog2Floor(t *testing.T) {
	tests := []struct {
		x    uint64
		want int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 1}, {64, 6}, {65, 6}, {127, 6}, {128, 7}, {math.MaxUint64, 63},
	}
	for _, tt := range tests {
		if got := Log2Floor(tt.x); got != tt.want {
			t.Errorf("Log2Floor(%d) = %d, want %d", tt.x, got, tt.want)
		}
	}
}
