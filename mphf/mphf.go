// Package mphf implements a multi-level minimal perfect hash function.
//
// Construction is iterative elimination. At each level the keys still
// unresolved are hashed with a level seed into a table about as large as their
// count. A key alone in its slot is resolved there and the slot is marked in
// the level's occupancy bitmap; keys sharing a slot move on, unchanged, to the
// next level with a fresh seed and a smaller table. The global index of a key
// is the number of keys resolved by earlier levels plus the rank of its slot in
// the bitmap of the level that resolved it.
//
// The function is a bijection onto [0, N) for exactly the N construction keys.
// Any other key maps to some value in [0, N); callers needing membership must
// check a fingerprint (see package lossy).
package mphf

import (
	"bytes"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/nlptr/succinct/bitvec"
	serrors "github.com/nlptr/succinct/errors"
	intbits "github.com/nlptr/succinct/internal/bits"
	"github.com/nlptr/succinct/rankselect"
)

const (
	// minParallelKeys is the smallest level worth splitting across workers.
	minParallelKeys = 1 << 14

	seedMixer     = 0x9E3779B97F4A7C15
	fallbackMixer = 0x517cc1b727220a95

	// levelOverheadBytes accounts for the per-level seed and header fields.
	levelOverheadBytes = 24
)

type level struct {
	seed   uint64
	bitmap *bitvec.Vector
	rank   *rankselect.Ranker
	offset uint64 // keys resolved by earlier levels
}

// MPHF is an immutable minimal perfect hash function. It is safe for
// concurrent use.
type MPHF struct {
	n      uint64
	levels []level
}

// Build constructs a minimal perfect hash function over keys.
//
// Keys must be distinct. Duplicates are reported as ErrDuplicateKey when they
// are the only keys left to resolve, which is where they inevitably end up.
func Build(keys KeyProvider, opts ...Option) (*MPHF, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	n := keys.Len()
	if n == 0 {
		return nil, serrors.ErrEmptyKeySet
	}
	if uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d keys", serrors.ErrTooManyKeys, n)
	}

	remaining := make([]uint32, n)
	for i := range remaining {
		remaining[i] = uint32(i)
	}
	slots := make([]uint64, n)

	var (
		levels   []level
		resolved uint64
		attempt  uint64
		stalls   int
	)
	for len(remaining) > 0 {
		size := max(uint64(math.Ceil(cfg.gamma*float64(len(remaining)))), 1)
		seed := levelSeed(cfg.seed, len(levels), attempt)
		levelSlots := slots[:len(remaining)]
		if err := hashLevel(keys, remaining, levelSlots, seed, size, cfg.workers); err != nil {
			return nil, err
		}

		words := make([]uint64, intbits.WordsFor(size))
		collide := make([]uint64, len(words))
		for _, s := range levelSlots {
			w, b := s>>6, uint64(1)<<(s&63)
			if words[w]&b != 0 {
				collide[w] |= b
			} else {
				words[w] |= b
			}
		}
		for i := range words {
			words[i] &^= collide[i]
		}
		bitmap, err := bitvec.FromWords(words, size)
		if err != nil {
			return nil, err
		}

		if bitmap.Ones() == 0 {
			stalls++
			if dup, ok := findDuplicate(keys, remaining); ok {
				return nil, fmt.Errorf("%w: key %d (%q)", serrors.ErrDuplicateKey, dup, keys.Key(int(dup)))
			}
			if stalls >= maxStallRetries {
				return nil, fmt.Errorf("%w: no progress after %d seeds with %d keys left", serrors.ErrConstruction, stalls, len(remaining))
			}
			attempt++
			continue
		}
		stalls = 0

		// Keep the colliding keys. Writes never overtake reads, so filtering
		// in place is safe.
		next := remaining[:0]
		for i, s := range levelSlots {
			if collide[s>>6]&(1<<(s&63)) != 0 {
				next = append(next, remaining[i])
			}
		}

		cfg.logger.Debug("mphf level built",
			"level", len(levels),
			"keys", len(remaining),
			"slots", size,
			"resolved", bitmap.Ones(),
			"deferred", len(next))

		levels = append(levels, level{
			seed:   seed,
			bitmap: bitmap,
			rank:   rankselect.NewRanker(bitmap),
			offset: resolved,
		})
		resolved += bitmap.Ones()
		remaining = next
	}

	m := &MPHF{n: uint64(n), levels: levels}
	cfg.logger.Debug("mphf built", "keys", n, "levels", len(levels), "bits_per_key", m.BitsPerKey())
	return m, nil
}

func levelSeed(global uint64, levelIdx int, attempt uint64) uint64 {
	return intbits.Wymix(global^uint64(levelIdx+1), seedMixer+attempt)
}

func slotOf(key []byte, seed, size uint64) uint64 {
	return intbits.FastRange(xxh3.HashSeed(key, seed), size)
}

// hashLevel fills slots[i] with the slot of key idx[i] for this level.
func hashLevel(keys KeyProvider, idx []uint32, slots []uint64, seed, size uint64, workers int) error {
	if workers <= 1 || len(idx) < minParallelKeys {
		for i, k := range idx {
			slots[i] = slotOf(keys.Key(int(k)), seed, size)
		}
		return nil
	}

	var g errgroup.Group
	chunk := (len(idx) + workers - 1) / workers
	for start := 0; start < len(idx); start += chunk {
		end := min(start+chunk, len(idx))
		g.Go(func() error {
			for i := start; i < end; i++ {
				slots[i] = slotOf(keys.Key(int(idx[i])), seed, size)
			}
			return nil
		})
	}
	return g.Wait()
}

// findDuplicate reports a key among idx whose bytes repeat an earlier one.
func findDuplicate(keys KeyProvider, idx []uint32) (uint32, bool) {
	seen := make(map[xxh3.Uint128][]uint32, len(idx))
	for _, k := range idx {
		key := keys.Key(int(k))
		h := xxh3.Hash128(key)
		for _, other := range seen[h] {
			if bytes.Equal(keys.Key(int(other)), key) {
				return k, true
			}
		}
		seen[h] = append(seen[h], k)
	}
	return 0, false
}

// Get returns the index of key in [0, Len()). For keys outside the
// construction set the result is an arbitrary value in the same range.
func (m *MPHF) Get(key []byte) uint64 {
	for i := range m.levels {
		lv := &m.levels[i]
		slot := slotOf(key, lv.seed, lv.bitmap.Len())
		if lv.bitmap.Bit(slot) {
			return lv.offset + lv.rank.Rank1(slot)
		}
	}
	return intbits.FastRange(xxh3.HashSeed(key, m.levels[0].seed^fallbackMixer), m.n)
}

// GetString is Get for a string key rendered by StringKeys.
func (m *MPHF) GetString(key string) uint64 {
	return m.Get(stringBytes(key))
}

// GetInts is Get for an integer tuple key rendered by IntTupleKeys.
func (m *MPHF) GetInts(tuple []int32) uint64 {
	var buf [64]byte
	return m.Get(AppendIntTuple(buf[:0], tuple))
}

// Len returns the number of keys.
func (m *MPHF) Len() uint64 {
	return m.n
}

// LevelCount returns the number of levels.
func (m *MPHF) LevelCount() int {
	return len(m.levels)
}

// MemoryBytes returns the in-memory footprint of bitmaps, rank directories and
// per-level fields.
func (m *MPHF) MemoryBytes() int64 {
	total := int64(0)
	for _, lv := range m.levels {
		total += lv.bitmap.MemoryBytes() + lv.rank.MemoryBytes() + levelOverheadBytes
	}
	return total
}

// BitsPerKey returns MemoryBytes expressed in bits per key.
func (m *MPHF) BitsPerKey() float64 {
	if m.n == 0 {
		return 0
	}
	return float64(m.MemoryBytes()*8) / float64(m.n)
}
