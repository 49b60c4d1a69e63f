package mphf

import (
	"fmt"
	"io"

	"github.com/nlptr/succinct/bitvec"
	serrors "github.com/nlptr/succinct/errors"
	"github.com/nlptr/succinct/internal/encoding"
	"github.com/nlptr/succinct/rankselect"
)

// maxLevels rejects absurd level counts from corrupted streams. Each level
// resolves at least one key and in practice a constant fraction of them.
const maxLevels = 1 << 12

// WriteTo serializes the function as
//
//	keyCount    uint64
//	levelCount  uint32
//	per level:
//	  seed      uint64
//	  bitmap    bit vector stream
//
// Rank directories and level offsets are rebuilt on read.
func (m *MPHF) WriteTo(w io.Writer) (int64, error) {
	ew := encoding.NewWriter(w)
	ew.Uint64(m.n)
	ew.Uint32(uint32(len(m.levels)))
	for _, lv := range m.levels {
		ew.Uint64(lv.seed)
		if _, err := lv.bitmap.WriteTo(ew); err != nil {
			return ew.Count(), err
		}
	}
	return ew.Count(), ew.Err()
}

// Read deserializes a function written by WriteTo.
func Read(r io.Reader) (*MPHF, error) {
	return Decode(encoding.NewReader(r))
}

// Decode deserializes a function from a shared encoding.Reader.
func Decode(er *encoding.Reader) (*MPHF, error) {
	n := er.Uint64()
	count := er.Uint32()
	if er.Err() != nil {
		return nil, er.Err()
	}
	if n == 0 || count == 0 || count > maxLevels {
		return nil, fmt.Errorf("%w: mphf header claims %d keys in %d levels", serrors.ErrFormat, n, count)
	}

	m := &MPHF{n: n, levels: make([]level, 0, count)}
	var resolved uint64
	for i := range count {
		seed := er.Uint64()
		bitmap, err := bitvec.Decode(er)
		if err != nil {
			return nil, fmt.Errorf("decode level %d: %w", i, err)
		}
		if bitmap.Len() == 0 || bitmap.Ones() == 0 {
			return nil, fmt.Errorf("%w: level %d resolves no keys", serrors.ErrFormat, i)
		}
		m.levels = append(m.levels, level{
			seed:   seed,
			bitmap: bitmap,
			rank:   rankselect.NewRanker(bitmap),
			offset: resolved,
		})
		resolved += bitmap.Ones()
	}
	if resolved != n {
		return nil, fmt.Errorf("%w: levels resolve %d keys, header claims %d", serrors.ErrFormat, resolved, n)
	}
	return m, nil
}
