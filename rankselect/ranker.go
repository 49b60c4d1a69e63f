package rankselect

import (
	"math/bits"

	"github.com/nlptr/succinct/bitvec"
)

// wordsPerBlock is the number of words covered by one rank directory entry
// (512 bits, one cache line).
const wordsPerBlock = 8

// Ranker answers rank1 queries over a frozen vector.
type Ranker struct {
	v      *bitvec.Vector
	blocks []uint64 // ones strictly before each block
}

// NewRanker builds the rank directory for v.
func NewRanker(v *bitvec.Vector) *Ranker {
	words := v.Words()
	r := &Ranker{
		v:      v,
		blocks: make([]uint64, (len(words)+wordsPerBlock-1)/wordsPerBlock+1),
	}
	var total uint64
	for i, w := range words {
		if i%wordsPerBlock == 0 {
			r.blocks[i/wordsPerBlock] = total
		}
		total += uint64(bits.OnesCount64(w))
	}
	r.blocks[len(r.blocks)-1] = total
	return r
}

// Rank1 returns the number of set bits in [0, i). Positions at or past the
// vector length return the total number of set bits.
func (r *Ranker) Rank1(i uint64) uint64 {
	if i >= r.v.Len() {
		return r.v.Ones()
	}
	words := r.v.Words()
	wi := i >> 6
	block := wi / wordsPerBlock
	rank := r.blocks[block]
	for j := block * wordsPerBlock; j < wi; j++ {
		rank += uint64(bits.OnesCount64(words[j]))
	}
	if off := i & 63; off != 0 {
		rank += uint64(bits.OnesCount64(words[wi] << (64 - off)))
	}
	return rank
}

// Vector returns the underlying vector.
func (r *Ranker) Vector() *bitvec.Vector {
	return r.v
}

// MemoryBytes returns the size of the rank directory.
func (r *Ranker) MemoryBytes() int64 {
	return int64(len(r.blocks)) * 8
}
