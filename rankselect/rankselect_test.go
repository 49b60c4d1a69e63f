package rankselect

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	"github.com/nlptr/succinct/bitvec"
)

const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(testSeed1^binary.LittleEndian.Uint64(sum[:8]), testSeed2^binary.LittleEndian.Uint64(sum[8:])))
}

func fromPattern(pattern string) *bitvec.Vector {
	b := bitvec.NewBuilder(uint64(len(pattern)))
	for _, c := range pattern {
		b.Append(c == '1')
	}
	return b.Freeze()
}

func randomVector(rng *rand.Rand, n int, p float64) *bitvec.Vector {
	b := bitvec.NewBuilder(uint64(n))
	for range n {
		b.Append(rng.Float64() < p)
	}
	return b.Freeze()
}

// onePositions returns the positions of set bits by a left-to-right scan.
func onePositions(v *bitvec.Vector) []int64 {
	var out []int64
	for i := uint64(0); i < v.Len(); i++ {
		if v.Bit(i) {
			out = append(out, int64(i))
		}
	}
	return out
}

func checkSelect(t *testing.T, v *bitvec.Vector) {
	t.Helper()
	s := NewSelector(v)
	want := onePositions(v)
	if s.Ones() != uint64(len(want)) {
		t.Fatalf("Ones() = %d, want %d", s.Ones(), len(want))
	}
	for k, pos := range want {
		if got := s.Select1(uint64(k + 1)); got != pos {
			t.Fatalf("Select1(%d) = %d, want %d (len=%d ones=%d)", k+1, got, pos, v.Len(), len(want))
		}
	}
	if got := s.Select1(0); got != -1 {
		t.Fatalf("Select1(0) = %d, want -1", got)
	}
	if got := s.Select1(uint64(len(want)) + 1); got != -1 {
		t.Fatalf("Select1(m+1) = %d, want -1", got)
	}
}

// TestSelectScenarioPattern walks select1(1..m) over a fixed pattern and
// compares with a left-to-right scan.
func TestSelectScenarioPattern(t *testing.T) {
	v := fromPattern("1011001000111010010101110001011110000101101001110110101001110111010")
	if v.Len() < 60 {
		t.Fatalf("pattern too short: %d", v.Len())
	}
	s := NewSelector(v)
	prev := int64(-1)
	want := onePositions(v)
	for k := uint64(1); k <= s.Ones(); k++ {
		pos := s.Select1(k)
		if pos <= prev {
			t.Fatalf("Select1(%d) = %d not increasing after %d", k, pos, prev)
		}
		if pos != want[k-1] {
			t.Fatalf("Select1(%d) = %d, want %d", k, pos, want[k-1])
		}
		prev = pos
	}
}

func TestSelectDensities(t *testing.T) {
	rng := newTestRNG(t)
	tests := []struct {
		name string
		n    int
		p    float64
	}{
		{"tiny", 10, 0.5},
		{"single word", 64, 0.5},
		{"fallback boundary", 200, 0.3},
		{"dense", 20000, 0.9},
		{"half", 50000, 0.5},
		{"sparse", 100000, 0.01},
		{"very sparse", 200000, 0.0005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkSelect(t, randomVector(rng, tt.n, tt.p))
		})
	}
}

func TestSelectEdgeVectors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		checkSelect(t, bitvec.NewBuilder(0).Freeze())
	})
	t.Run("all zeros", func(t *testing.T) {
		b := bitvec.NewBuilder(0)
		b.AppendN(1000, false)
		checkSelect(t, b.Freeze())
	})
	t.Run("all ones", func(t *testing.T) {
		b := bitvec.NewBuilder(0)
		b.AppendN(5000, true)
		checkSelect(t, b.Freeze())
	})
	t.Run("exactly 64 ones", func(t *testing.T) {
		b := bitvec.NewBuilder(0)
		b.AppendN(64, true)
		b.AppendN(100, false)
		checkSelect(t, b.Freeze())
	})
	t.Run("65 ones spread", func(t *testing.T) {
		b := bitvec.NewBuilder(0)
		for range 65 {
			b.AppendN(37, false)
			b.Append(true)
		}
		checkSelect(t, b.Freeze())
	})
	t.Run("ones multiple of big segment", func(t *testing.T) {
		// 4176 ones: L=12, big=144, small=12, and 4176 = 29*144.
		b := bitvec.NewBuilder(0)
		for range 4176 {
			b.Append(true)
			b.Append(false)
		}
		checkSelect(t, b.Freeze())
	})
}

func TestRank1(t *testing.T) {
	rng := newTestRNG(t)
	for _, n := range []int{0, 1, 63, 64, 65, 511, 512, 513, 10000} {
		v := randomVector(rng, n, 0.37)
		r := NewRanker(v)
		var want uint64
		for i := uint64(0); i <= v.Len(); i++ {
			if got := r.Rank1(i); got != want {
				t.Fatalf("n=%d: Rank1(%d) = %d, want %d", n, i, got, want)
			}
			if i < v.Len() && v.Bit(i) {
				want++
			}
		}
		if got := r.Rank1(v.Len() + 100); got != v.Ones() {
			t.Fatalf("n=%d: Rank1 past end = %d, want %d", n, got, v.Ones())
		}
	}
}

// TestRankSelectDuality checks Rank1(Select1(k)) == k-1.
func TestRankSelectDuality(t *testing.T) {
	rng := newTestRNG(t)
	v := randomVector(rng, 30000, 0.2)
	s := NewSelector(v)
	r := NewRanker(v)
	for k := uint64(1); k <= s.Ones(); k++ {
		pos := s.Select1(k)
		if got := r.Rank1(uint64(pos)); got != k-1 {
			t.Fatalf("Rank1(Select1(%d)=%d) = %d, want %d", k, pos, got, k-1)
		}
		if !v.Bit(uint64(pos)) {
			t.Fatalf("Select1(%d)=%d is not a set bit", k, pos)
		}
	}
}

func BenchmarkSelect1(b *testing.B) {
	rng := newTestRNG(b)
	v := randomVector(rng, 1<<22, 0.5)
	s := NewSelector(v)
	m := s.Ones()
	b.ResetTimer()
	var sink int64
	for i := 0; i < b.N; i++ {
		sink = s.Select1(uint64(i)%m + 1)
	}
	_ = sink
}

func BenchmarkRank1(b *testing.B) {
	rng := newTestRNG(b)
	v := randomVector(rng, 1<<22, 0.5)
	r := NewRanker(v)
	mask := v.Len() - 1
	b.ResetTimer()
	var sink uint64
	for i := 0; i < b.N; i++ {
		sink = r.Rank1(uint64(i) & mask)
	}
	_ = sink
}
