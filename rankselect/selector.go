// Package rankselect answers rank and select queries over frozen bit vectors.
//
// Selector implements select1 with a two-level directory: ones are grouped
// into small segments of L ones and big segments of L² ones, where L is
// floor(log2(m)) for m set bits. The big directory stores the absolute position
// of the last one of each big segment; the small directory stores, for each
// small segment, the position of its last one relative to the start of its big
// segment. A query jumps through both directories and scans forward over at
// most L-1 further ones. The directories occupy O(m / log m) words.
//
// Ranker implements rank1 with cumulative counts per 512-bit block.
package rankselect

import (
	"math/bits"

	"github.com/nlptr/succinct/bitvec"
	intbits "github.com/nlptr/succinct/internal/bits"
)

const (
	fallbackBigSegment   = 64
	fallbackSmallSegment = 1
)

// Selector answers select1 queries over a frozen vector.
type Selector struct {
	v         *bitvec.Vector
	ones      uint64
	bigSize   uint64
	smallSize uint64
	perBig    uint64   // small segments per big segment
	big       []uint64 // absolute position of the last one of each big segment
	small     []uint64 // last one of each small segment, relative to its big segment start
}

// NewSelector builds the select1 directory for v. v must not change afterwards,
// which bitvec.Vector guarantees.
func NewSelector(v *bitvec.Vector) *Selector {
	m := v.Ones()
	s := &Selector{v: v, ones: m}

	if m <= 64 {
		s.bigSize, s.smallSize = fallbackBigSegment, fallbackSmallSegment
	} else {
		l := uint64(intbits.Log2Floor(m))
		s.bigSize, s.smallSize = l*l, l
	}
	// Align the big segment to a whole number of small segments.
	for k := s.bigSize; k >= s.smallSize; k-- {
		if k%s.smallSize == 0 {
			s.bigSize = k
			break
		}
	}
	s.perBig = s.bigSize / s.smallSize
	if m == 0 {
		return s
	}

	numBig := (m + s.bigSize - 1) / s.bigSize
	s.big = make([]uint64, numBig)
	s.small = make([]uint64, numBig*s.perBig)

	var seen, bigStart uint64
	words := v.Words()
	for wi, w := range words {
		for w != 0 {
			pos := uint64(wi)*64 + uint64(bits.TrailingZeros64(w))
			w &= w - 1
			seen++

			k := (seen - 1) / s.bigSize
			if seen%s.smallSize == 0 || seen == m {
				inBig := (seen - 1) % s.bigSize / s.smallSize
				s.small[k*s.perBig+inBig] = pos - bigStart
			}
			if seen%s.bigSize == 0 || seen == m {
				s.big[k] = pos
				bigStart = pos + 1
			}
		}
	}
	return s
}

// Select1 returns the position of the k-th set bit, counting k from 1.
// It returns -1 when k is 0 or greater than the number of set bits.
func (s *Selector) Select1(k uint64) int64 {
	if k == 0 || k > s.ones {
		return -1
	}
	bi := k / s.bigSize
	inBig := k % s.bigSize
	si := inBig / s.smallSize
	remaining := inBig % s.smallSize

	var start uint64
	if bi > 0 {
		start = s.big[bi-1] + 1
	}
	if si > 0 {
		start += s.small[bi*s.perBig+si-1] + 1
	}
	if remaining == 0 {
		return int64(start) - 1
	}
	return int64(s.scan(start, remaining))
}

// scan returns the position of the r-th one (r >= 1) at or after start.
func (s *Selector) scan(start, r uint64) uint64 {
	words := s.v.Words()
	wi := start >> 6
	w := words[wi] &^ intbits.LowMask(uint(start&63))
	for {
		c := uint64(bits.OnesCount64(w))
		if c >= r {
			return wi*64 + uint64(intbits.SelectInWord(w, int(r-1)))
		}
		r -= c
		wi++
		w = words[wi]
	}
}

// Ones returns the number of set bits in the underlying vector.
func (s *Selector) Ones() uint64 {
	return s.ones
}

// Vector returns the underlying vector.
func (s *Selector) Vector() *bitvec.Vector {
	return s.v
}

// MemoryBytes returns the size of the two directories.
func (s *Selector) MemoryBytes() int64 {
	return int64(len(s.big)+len(s.small)) * 8
}
