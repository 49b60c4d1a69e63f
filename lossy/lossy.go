// Package lossy maps string keys to 32-bit payloads through a minimal perfect
// hash function, with a 31-bit fingerprint per key to reject most non-members.
//
// A key from the construction set always returns its exact payload. Any other
// key returns the zero value, except for a false positive rate of about 2^-31
// per lookup where it returns some member's payload instead.
package lossy

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"

	"github.com/spaolacci/murmur3"

	serrors "github.com/nlptr/succinct/errors"
	"github.com/nlptr/succinct/internal/encoding"
	"github.com/nlptr/succinct/mphf"
)

const (
	fingerprintSeed = 0xcafebeef
	fingerprintMask = 0x7fffffff

	// maxKeys keeps the 2*N data length within its uint32 length field.
	maxKeys = math.MaxUint32 / 2
)

// Fingerprint returns the 31-bit fingerprint stored for key. It is independent
// of the hash used by the minimal perfect hash function.
func Fingerprint(key string) int32 {
	return int32(murmur3.Sum32WithSeed([]byte(key), fingerprintSeed) & fingerprintMask)
}

// table holds (fingerprint, payload) pairs at 2*idx and 2*idx+1.
type table struct {
	mphf *mphf.MPHF
	data []int32
}

func buildTable(keys []string, payload func(i int) int32, opts []mphf.Option) (*table, error) {
	if err := checkKeyCount(uint64(len(keys))); err != nil {
		return nil, err
	}
	m, err := mphf.Build(mphf.StringKeys(keys), opts...)
	if err != nil {
		return nil, err
	}
	t := &table{mphf: m, data: make([]int32, 2*len(keys))}
	for i, k := range keys {
		idx := m.GetString(k)
		t.data[2*idx] = Fingerprint(k)
		t.data[2*idx+1] = payload(i)
	}
	return t, nil
}

func (t *table) lookup(key string) (int32, bool) {
	idx := t.mphf.GetString(key)
	if t.data[2*idx] != Fingerprint(key) {
		return 0, false
	}
	return t.data[2*idx+1], true
}

func (t *table) memoryBytes() int64 {
	return int64(len(t.data))*4 + t.mphf.MemoryBytes()
}

func (t *table) writeTo(w io.Writer) (int64, error) {
	ew := encoding.NewWriter(w)
	ew.Uint32(uint32(len(t.data)))
	ew.Int32s(t.data)
	if ew.Err() != nil {
		return ew.Count(), ew.Err()
	}
	_, err := t.mphf.WriteTo(ew)
	return ew.Count(), err
}

func decodeTable(er *encoding.Reader) (*table, error) {
	length := er.Uint32()
	if er.Err() != nil {
		return nil, er.Err()
	}
	if length == 0 || length%2 != 0 {
		return nil, fmt.Errorf("%w: lookup data length %d", serrors.ErrFormat, length)
	}
	data := er.Int32s(uint64(length))
	if er.Err() != nil {
		return nil, er.Err()
	}
	m, err := mphf.Decode(er)
	if err != nil {
		return nil, err
	}
	if uint64(length) != 2*m.Len() {
		return nil, fmt.Errorf("%w: lookup data length %d for %d keys", serrors.ErrFormat, length, m.Len())
	}
	return &table{mphf: m, data: data}, nil
}

func checkKeyCount(n uint64) error {
	if n > maxKeys {
		return fmt.Errorf("%w: %d keys, lookup holds at most %d", serrors.ErrTooManyKeys, n, uint64(maxKeys))
	}
	return nil
}

func checkLengths(keys, values int) error {
	if keys != values {
		return fmt.Errorf("%w: %d keys, %d values", serrors.ErrLengthMismatch, keys, values)
	}
	return nil
}

// sortedKeys returns the keys of src in a fixed order so that map sources
// build the same structure every time.
func sortedKeys[V any](src map[string]V) []string {
	return slices.Sorted(maps.Keys(src))
}
