package lossy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/nlptr/succinct/errors"
	"github.com/nlptr/succinct/mphf"
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

func numberedKeys(prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return keys
}

func TestScenarioWordCounts(t *testing.T) {
	l, err := GenerateIntMap(map[string]int32{"ev": 5, "okul": 12, "kitap": 7})
	require.NoError(t, err)

	assert.Equal(t, int32(5), l.Get("ev"))
	assert.Equal(t, int32(12), l.Get("okul"))
	assert.Equal(t, int32(7), l.Get("kitap"))
	assert.Equal(t, int32(0), l.Get("araba"))
	assert.Equal(t, 3, l.Len())

	v, ok := l.Lookup("okul")
	assert.True(t, ok)
	assert.Equal(t, int32(12), v)
	_, ok = l.Lookup("araba")
	assert.False(t, ok)
}

func TestMembersReturnExactValues(t *testing.T) {
	rng := newTestRNG(t)
	keys := numberedKeys("kelime-", 50000)
	values := make([]int32, len(keys))
	for i := range values {
		values[i] = int32(rng.Uint32())
	}

	l, err := GenerateInt(keys, values, mphf.WithWorkers(4))
	require.NoError(t, err)
	for i, k := range keys {
		if got := l.Get(k); got != values[i] {
			t.Fatalf("Get(%q) = %d, want %d", k, got, values[i])
		}
	}
}

func TestNonMemberFalsePositiveRate(t *testing.T) {
	keys := numberedKeys("uye-", 20000)
	values := make([]int32, len(keys))
	for i := range values {
		values[i] = int32(i + 1)
	}
	l, err := GenerateInt(keys, values)
	require.NoError(t, err)

	hits := 0
	for i := range 100000 {
		if _, ok := l.Lookup(fmt.Sprintf("yabanci-%d", i)); ok {
			hits++
		}
	}
	// Expected rate is 2^-31 per lookup.
	assert.LessOrEqual(t, hits, 2)
}

func TestScenarioFruitFloats(t *testing.T) {
	l, err := GenerateFloatMap(map[string]float32{"elma": 1.0, "armut": 2.0})
	require.NoError(t, err)

	assert.Equal(t, float32(1.0), l.Get("elma"))
	assert.Equal(t, float32(2.0), l.Get("armut"))
	assert.Equal(t, float32(0), l.Get("ayva"))
	assert.Equal(t, 2, l.Len())

	_, ok := l.Lookup("ayva")
	assert.False(t, ok)
}

func TestKeyCountLimit(t *testing.T) {
	require.NoError(t, checkKeyCount(maxKeys))

	err := checkKeyCount(maxKeys + 1)
	assert.ErrorIs(t, err, serrors.ErrTooManyKeys)
	assert.ErrorIs(t, err, serrors.ErrConstruction)
}

func TestFloatLookup(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}
	values := []float32{-2.5, 0, float32(math.Inf(-1)), math.SmallestNonzeroFloat32, -0.0001}
	l, err := GenerateFloat(keys, values)
	require.NoError(t, err)
	for i, k := range keys {
		assert.Equal(t, math.Float32bits(values[i]), math.Float32bits(l.Get(k)), "key %q", k)
	}
	assert.Equal(t, float32(0), l.Get("z"))

	m, err := GenerateFloatMap(map[string]float32{"x": 1.5, "y": -3})
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), m.Get("x"))
	assert.Equal(t, float32(-3), m.Get("y"))
}

func TestGenerateErrors(t *testing.T) {
	_, err := GenerateInt([]string{"a", "b"}, []int32{1})
	assert.ErrorIs(t, err, serrors.ErrLengthMismatch)
	assert.ErrorIs(t, err, serrors.ErrConstruction)

	_, err = GenerateFloat([]string{"a"}, nil)
	assert.ErrorIs(t, err, serrors.ErrLengthMismatch)

	_, err = GenerateInt(nil, nil)
	assert.ErrorIs(t, err, serrors.ErrEmptyKeySet)

	_, err = GenerateIntMap(map[string]int32{})
	assert.ErrorIs(t, err, serrors.ErrEmptyKeySet)

	_, err = GenerateInt([]string{"a", "b", "a"}, []int32{1, 2, 3})
	assert.ErrorIs(t, err, serrors.ErrDuplicateKey)
}

func TestMapSourceIsDeterministic(t *testing.T) {
	src := make(map[string]int32)
	for i, k := range numberedKeys("k", 3000) {
		src[k] = int32(i)
	}
	a, err := GenerateIntMap(src)
	require.NoError(t, err)
	b, err := GenerateIntMap(src)
	require.NoError(t, err)

	var bufA, bufB bytes.Buffer
	_, err = a.WriteTo(&bufA)
	require.NoError(t, err)
	_, err = b.WriteTo(&bufB)
	require.NoError(t, err)
	assert.Equal(t, bufA.Bytes(), bufB.Bytes())
}

func TestIntSerializationRoundTrip(t *testing.T) {
	keys := numberedKeys("n-", 5000)
	values := make([]int32, len(keys))
	for i := range values {
		values[i] = int32(i*7 - 100)
	}
	l, err := GenerateInt(keys, values)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := l.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	got, err := ReadInt(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, l.Len(), got.Len())
	assert.Equal(t, l.MemoryBytes(), got.MemoryBytes())
	for i, k := range keys {
		require.Equal(t, values[i], got.Get(k), "key %q", k)
	}
	assert.Equal(t, int32(0), got.Get("missing"))
}

func TestFloatSerializationRoundTrip(t *testing.T) {
	keys := numberedKeys("f-", 1000)
	values := make([]float32, len(keys))
	for i := range values {
		values[i] = -float32(i) / 10
	}
	l, err := GenerateFloat(keys, values)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = l.WriteTo(&buf)
	require.NoError(t, err)
	got, err := ReadFloat(&buf)
	require.NoError(t, err)
	for i, k := range keys {
		require.Equal(t, values[i], got.Get(k), "key %q", k)
	}
}

func TestReadMalformed(t *testing.T) {
	l, err := GenerateIntMap(map[string]int32{"bir": 1, "iki": 2, "uc": 3})
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = l.WriteTo(&buf)
	require.NoError(t, err)
	valid := buf.Bytes()

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadInt(bytes.NewReader(valid[:len(valid)-1]))
		assert.ErrorIs(t, err, serrors.ErrTruncated)
	})
	t.Run("odd data length", func(t *testing.T) {
		b := bytes.Clone(valid)
		binary.LittleEndian.PutUint32(b, 5)
		_, err := ReadInt(bytes.NewReader(b))
		assert.ErrorIs(t, err, serrors.ErrFormat)
	})
	t.Run("data length disagrees with key count", func(t *testing.T) {
		// Four pairs of data followed by the three-key function.
		var b bytes.Buffer
		require.NoError(t, binary.Write(&b, binary.LittleEndian, uint32(8)))
		require.NoError(t, binary.Write(&b, binary.LittleEndian, make([]int32, 8)))
		_, err := l.MPHF().WriteTo(&b)
		require.NoError(t, err)
		_, err = ReadInt(&b)
		assert.ErrorIs(t, err, serrors.ErrFormat)
	})
}

func TestFingerprintIs31Bits(t *testing.T) {
	for _, k := range numberedKeys("fp-", 10000) {
		fp := Fingerprint(k)
		if fp < 0 {
			t.Fatalf("Fingerprint(%q) = %d, want non-negative", k, fp)
		}
	}
	assert.Equal(t, Fingerprint("istanbul"), Fingerprint("istanbul"))
	assert.NotEqual(t, Fingerprint("istanbul"), Fingerprint("ankara"))
}

func BenchmarkIntLookupGet(b *testing.B) {
	keys := numberedKeys("b-", 100000)
	values := make([]int32, len(keys))
	l, err := GenerateInt(keys, values)
	require.NoError(b, err)
	i := 0
	for b.Loop() {
		_ = l.Get(keys[i%len(keys)])
		i++
	}
}
