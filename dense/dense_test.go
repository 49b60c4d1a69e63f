package dense

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/nlptr/succinct/bitvec"
	serrors "github.com/nlptr/succinct/errors"
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

func checkRoundTrip(t *testing.T, s *Sequence, want []int32) {
	t.Helper()
	if s.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(want))
	}
	for i, w := range want {
		got, err := s.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got != w {
			t.Fatalf("Get(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestScenarioMixedValues(t *testing.T) {
	values := []int32{0, 1, 7, 232, 655, -2323, math.MaxInt32, math.MinInt32, 0, 2, 5}
	checkRoundTrip(t, New(values), values)
}

func TestRoundTripRandom(t *testing.T) {
	rng := newTestRNG(t)
	tests := []struct {
		name string
		gen  func() int32
	}{
		{"small", func() int32 { return int32(rng.IntN(4)) }},
		{"medium", func() int32 { return int32(rng.IntN(100000)) }},
		{"full range", func() int32 { return int32(rng.Uint32()) }},
		{"signed small", func() int32 { return int32(rng.IntN(200)) - 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]int32, 20000)
			for i := range values {
				values[i] = tt.gen()
			}
			checkRoundTrip(t, New(values), values)
		})
	}
}

func TestExtremes(t *testing.T) {
	values := []int32{math.MinInt32, math.MaxInt32, -1, 0, 1, math.MinInt32 + 1, math.MaxInt32 - 1, 2, 3, -2}
	checkRoundTrip(t, New(values), values)
}

func TestCodewordLengths(t *testing.T) {
	tests := []struct {
		value int32
		bits  uint64
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 2}, {7, 3}, {8, 4}, {232, 8}, {-1, 32}, {math.MinInt32, 32},
	}
	for _, tt := range tests {
		s := New([]int32{tt.value})
		if s.code.Len() != tt.bits || s.marker.Len() != tt.bits {
			t.Errorf("value %d: code %d bits, marker %d bits, want %d", tt.value, s.code.Len(), s.marker.Len(), tt.bits)
		}
		if s.marker.Ones() != 1 || !s.marker.Bit(0) {
			t.Errorf("value %d: marker should have a single leading one", tt.value)
		}
	}
}

func TestGetOutOfRange(t *testing.T) {
	s := New([]int32{4, 5, 6})
	for _, i := range []int{-1, 3, 100} {
		if _, err := s.Get(i); !errors.Is(err, serrors.ErrOutOfRange) {
			t.Errorf("Get(%d) error = %v, want ErrOutOfRange", i, err)
		}
	}

	empty := New(nil)
	if empty.Len() != 0 {
		t.Fatalf("empty Len() = %d", empty.Len())
	}
	if _, err := empty.Get(0); !errors.Is(err, serrors.ErrOutOfRange) {
		t.Errorf("empty Get(0) error = %v, want ErrOutOfRange", err)
	}
}

func TestAllMatchesGet(t *testing.T) {
	rng := newTestRNG(t)
	values := make([]int32, 5000)
	for i := range values {
		values[i] = int32(rng.Uint32() >> rng.UintN(32))
	}
	s := New(values)
	got := s.Values()
	if len(got) != len(values) {
		t.Fatalf("Values() returned %d values, want %d", len(got), len(values))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("Values()[%d] = %d, want %d", i, got[i], values[i])
		}
	}

	// Early termination.
	count := 0
	for range s.All() {
		count++
		if count == 10 {
			break
		}
	}
	if count != 10 {
		t.Fatalf("iteration stopped at %d", count)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	rng := newTestRNG(t)
	values := make([]int32, 3000)
	for i := range values {
		values[i] = int32(rng.Uint32() >> rng.UintN(32))
	}
	values = append(values, math.MinInt32, math.MaxInt32, 0, 1)
	s := New(values)

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("WriteTo reported %d bytes, buffer has %d", n, buf.Len())
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); got != uint32(len(values)) {
		t.Fatalf("element count field = %d, want %d", got, len(values))
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	checkRoundTrip(t, got, values)
}

func TestReadMalformed(t *testing.T) {
	s := New([]int32{1, 2, 3, 400})
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	t.Run("count mismatch", func(t *testing.T) {
		bad := bytes.Clone(data)
		binary.LittleEndian.PutUint32(bad[:4], 5)
		if _, err := Read(bytes.NewReader(bad)); !errors.Is(err, serrors.ErrFormat) {
			t.Fatalf("error = %v, want ErrFormat", err)
		}
	})
	t.Run("truncated", func(t *testing.T) {
		if _, err := Read(bytes.NewReader(data[:len(data)-3])); !errors.Is(err, serrors.ErrTruncated) {
			t.Fatalf("error = %v, want ErrTruncated", err)
		}
	})
	t.Run("length mismatch", func(t *testing.T) {
		// Re-encode with a shorter marker vector.
		var bad bytes.Buffer
		binary.Write(&bad, binary.LittleEndian, uint32(1))
		s.code.WriteTo(&bad)
		New([]int32{0}).marker.WriteTo(&bad)
		if _, err := Read(&bad); !errors.Is(err, serrors.ErrFormat) {
			t.Fatalf("error = %v, want ErrFormat", err)
		}
	})

	codewordTests := []struct {
		name   string
		code   string
		marker string
	}{
		{"codeword over 32 bits", strings.Repeat("1", 40), "1" + strings.Repeat("0", 39)},
		{"33-bit codeword", "1" + strings.Repeat("1", 33), "1" + "1" + strings.Repeat("0", 32)},
		{"leading zero", "01", "10"},
		{"leading zero after valid codeword", "1" + "0110", "1" + "1000"},
	}
	for _, tt := range codewordTests {
		t.Run(tt.name, func(t *testing.T) {
			var bad bytes.Buffer
			binary.Write(&bad, binary.LittleEndian, uint32(strings.Count(tt.marker, "1")))
			fromPattern(tt.code).WriteTo(&bad)
			fromPattern(tt.marker).WriteTo(&bad)
			if _, err := Read(&bad); !errors.Is(err, serrors.ErrFormat) {
				t.Fatalf("error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestReadAcceptsLongestCodeword(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(2))
	fromPattern("0" + strings.Repeat("1", 32)).WriteTo(&buf)
	fromPattern("1" + "1" + strings.Repeat("0", 31)).WriteTo(&buf)
	s, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	checkRoundTrip(t, s, []int32{0, -1})
}

func fromPattern(pattern string) *bitvec.Vector {
	b := bitvec.NewBuilder(uint64(len(pattern)))
	for _, c := range pattern {
		b.Append(c == '1')
	}
	return b.Freeze()
}

func TestCompressesSmallValues(t *testing.T) {
	values := make([]int32, 100000)
	for i := range values {
		values[i] = int32(i % 16)
	}
	s := New(values)
	// Plain storage takes 4 bytes per value.
	if s.MemoryBytes() >= int64(len(values))*4 {
		t.Fatalf("MemoryBytes() = %d, not smaller than %d", s.MemoryBytes(), len(values)*4)
	}
}

func BenchmarkGet(b *testing.B) {
	rng := newTestRNG(b)
	values := make([]int32, 1<<20)
	for i := range values {
		values[i] = int32(rng.IntN(1 << 16))
	}
	s := New(values)
	mask := len(values) - 1
	b.ResetTimer()
	var sink int32
	for i := 0; i < b.N; i++ {
		sink, _ = s.Get(i & mask)
	}
	_ = sink
}
