package lossy

import (
	"io"

	"github.com/nlptr/succinct/internal/encoding"
	"github.com/nlptr/succinct/mphf"
)

// IntLookup maps keys to int32 payloads.
type IntLookup struct {
	t *table
}

// GenerateInt builds a lookup where keys[i] maps to values[i]. Keys must be
// distinct.
func GenerateInt(keys []string, values []int32, opts ...mphf.Option) (*IntLookup, error) {
	if err := checkLengths(len(keys), len(values)); err != nil {
		return nil, err
	}
	t, err := buildTable(keys, func(i int) int32 { return values[i] }, opts)
	if err != nil {
		return nil, err
	}
	return &IntLookup{t: t}, nil
}

// GenerateIntMap builds a lookup from a map.
func GenerateIntMap(src map[string]int32, opts ...mphf.Option) (*IntLookup, error) {
	keys := sortedKeys(src)
	t, err := buildTable(keys, func(i int) int32 { return src[keys[i]] }, opts)
	if err != nil {
		return nil, err
	}
	return &IntLookup{t: t}, nil
}

// Get returns the payload of key, or 0 when the fingerprint does not match.
func (l *IntLookup) Get(key string) int32 {
	v, _ := l.t.lookup(key)
	return v
}

// Lookup is Get that also reports whether the fingerprint matched.
func (l *IntLookup) Lookup(key string) (int32, bool) {
	return l.t.lookup(key)
}

// Len returns the number of keys.
func (l *IntLookup) Len() int {
	return int(l.t.mphf.Len())
}

// MPHF returns the underlying hash function.
func (l *IntLookup) MPHF() *mphf.MPHF {
	return l.t.mphf
}

// MemoryBytes returns the in-memory footprint.
func (l *IntLookup) MemoryBytes() int64 {
	return l.t.memoryBytes()
}

// WriteTo serializes the lookup as
//
//	dataLength  uint32
//	data        dataLength × int32
//	mphf        hash function stream
func (l *IntLookup) WriteTo(w io.Writer) (int64, error) {
	return l.t.writeTo(w)
}

// ReadInt deserializes a lookup written by (*IntLookup).WriteTo.
func ReadInt(r io.Reader) (*IntLookup, error) {
	return DecodeInt(encoding.NewReader(r))
}

// DecodeInt deserializes an int lookup from a shared encoding.Reader.
func DecodeInt(er *encoding.Reader) (*IntLookup, error) {
	t, err := decodeTable(er)
	if err != nil {
		return nil, err
	}
	return &IntLookup{t: t}, nil
}
