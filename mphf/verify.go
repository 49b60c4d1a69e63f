package mphf

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	serrors "github.com/nlptr/succinct/errors"
)

// Verify checks that m maps keys bijectively onto [0, m.Len()). It is a
// diagnostic for freshly built or freshly loaded functions; it costs one Get
// per key.
func Verify(m *MPHF, keys KeyProvider) error {
	if uint64(keys.Len()) != m.Len() {
		return fmt.Errorf("%w: %d keys for a function over %d", serrors.ErrNotBijective, keys.Len(), m.Len())
	}
	seen := roaring.New()
	for i := range keys.Len() {
		idx := m.Get(keys.Key(i))
		if idx >= m.Len() {
			return fmt.Errorf("%w: key %d maps to %d, outside [0, %d)", serrors.ErrNotBijective, i, idx, m.Len())
		}
		if !seen.CheckedAdd(uint32(idx)) {
			return fmt.Errorf("%w: key %d repeats index %d", serrors.ErrNotBijective, i, idx)
		}
	}
	if seen.GetCardinality() != m.Len() {
		return fmt.Errorf("%w: %d of %d indexes covered", serrors.ErrNotBijective, seen.GetCardinality(), m.Len())
	}
	return nil
}
