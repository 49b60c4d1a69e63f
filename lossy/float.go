package lossy

import (
	"io"
	"math"

	"github.com/nlptr/succinct/internal/encoding"
	"github.com/nlptr/succinct/mphf"
)

// FloatLookup maps keys to float32 payloads, such as log probabilities. The
// payload is stored as its IEEE 754 bit pattern, so values round-trip exactly.
type FloatLookup struct {
	t *table
}

func floatBits(v float32) int32 { return int32(math.Float32bits(v)) }

// GenerateFloat builds a lookup where keys[i] maps to values[i].
func GenerateFloat(keys []string, values []float32, opts ...mphf.Option) (*FloatLookup, error) {
	if err := checkLengths(len(keys), len(values)); err != nil {
		return nil, err
	}
	t, err := buildTable(keys, func(i int) int32 { return floatBits(values[i]) }, opts)
	if err != nil {
		return nil, err
	}
	return &FloatLookup{t: t}, nil
}

// GenerateFloatMap builds a lookup from a map.
func GenerateFloatMap(src map[string]float32, opts ...mphf.Option) (*FloatLookup, error) {
	keys := sortedKeys(src)
	t, err := buildTable(keys, func(i int) int32 { return floatBits(src[keys[i]]) }, opts)
	if err != nil {
		return nil, err
	}
	return &FloatLookup{t: t}, nil
}

// Get returns the payload of key, or 0 when the fingerprint does not match.
func (l *FloatLookup) Get(key string) float32 {
	v, _ := l.Lookup(key)
	return v
}

// Lookup is Get that also reports whether the fingerprint matched.
func (l *FloatLookup) Lookup(key string) (float32, bool) {
	bits, ok := l.t.lookup(key)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(uint32(bits)), true
}

func (l *FloatLookup) Len() int {
	return int(l.t.mphf.Len())
}

func (l *FloatLookup) MPHF() *mphf.MPHF {
	return l.t.mphf
}

func (l *FloatLookup) MemoryBytes() int64 {
	return l.t.memoryBytes()
}

// WriteTo uses the same layout as (*IntLookup).WriteTo with float bit
// patterns as payloads.
func (l *FloatLookup) WriteTo(w io.Writer) (int64, error) {
	return l.t.writeTo(w)
}

// ReadFloat deserializes a lookup written by (*FloatLookup).WriteTo.
func ReadFloat(r io.Reader) (*FloatLookup, error) {
	return DecodeFloat(encoding.NewReader(r))
}

// DecodeFloat deserializes a float lookup from a shared encoding.Reader.
func DecodeFloat(er *encoding.Reader) (*FloatLookup, error) {
	t, err := decodeTable(er)
	if err != nil {
		return nil, err
	}
	return &FloatLookup{t: t}, nil
}
