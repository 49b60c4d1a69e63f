// Package bitvec implements an append-only bit vector builder and the
// immutable, randomly accessible vector it freezes into.
//
// The two states are separate types: a Builder grows by appending bits, and
// Freeze hands its storage to a Vector and resets the builder. A frozen Vector
// is never mutated again, so it is safe for concurrent readers.
//
// Bit i lives in word i/64 at bit position i%64 (least significant first).
package bitvec

import (
	"fmt"
	"io"
	"math/bits"

	serrors "github.com/nlptr/succinct/errors"
	intbits "github.com/nlptr/succinct/internal/bits"
	"github.com/nlptr/succinct/internal/encoding"
)

// Builder accumulates bits. The zero value is an empty builder.
type Builder struct {
	words []uint64
	n     uint64
}

// NewBuilder returns a builder with room for capacityBits bits.
func NewBuilder(capacityBits uint64) *Builder {
	return &Builder{words: make([]uint64, intbits.WordsFor(capacityBits))}
}

// EnsureCapacity grows the backing storage so that extraBits more bits can be
// appended with AppendFast. Growth is geometric, so appends are amortized O(1).
func (b *Builder) EnsureCapacity(extraBits uint64) {
	need := intbits.WordsFor(b.n + extraBits)
	if need <= uint64(len(b.words)) {
		return
	}
	newLen := max(need, uint64(len(b.words))*2, 1)
	words := make([]uint64, newLen)
	copy(words, b.words)
	b.words = words
}

// AppendFast appends one bit without checking capacity. The caller must have
// called EnsureCapacity first; otherwise it panics with an index error.
func (b *Builder) AppendFast(bit bool) {
	if bit {
		b.words[b.n>>6] |= 1 << (b.n & 63)
	}
	b.n++
}

// Append appends one bit, growing storage when needed.
func (b *Builder) Append(bit bool) {
	if b.n>>6 >= uint64(len(b.words)) {
		b.EnsureCapacity(1)
	}
	b.AppendFast(bit)
}

// AppendN appends a run of n copies of bit.
func (b *Builder) AppendN(n uint64, bit bool) {
	b.EnsureCapacity(n)
	if !bit {
		// Storage beyond b.n is always zero.
		b.n += n
		return
	}
	for n > 0 {
		off := b.n & 63
		take := min(n, 64-off)
		b.words[b.n>>6] |= intbits.LowMask(uint(take)) << off
		b.n += take
		n -= take
	}
}

// AppendBits appends the low n bits of v, most significant bit first.
// n must be in [0, 64].
func (b *Builder) AppendBits(v uint64, n int) {
	b.EnsureCapacity(uint64(n))
	for i := n - 1; i >= 0; i-- {
		b.AppendFast(v>>uint(i)&1 == 1)
	}
}

// Len returns the number of bits appended so far.
func (b *Builder) Len() uint64 {
	return b.n
}

// Get returns bit i. It panics when i >= Len().
func (b *Builder) Get(i uint64) bool {
	if i >= b.n {
		panic(fmt.Sprintf("bitvec: builder index %d out of range [0, %d)", i, b.n))
	}
	return b.words[i>>6]&(1<<(i&63)) != 0
}

// Freeze trims the storage to exactly the appended bits and returns it as an
// immutable Vector. The builder is reset to empty and may be reused; it no
// longer shares storage with the returned vector.
func (b *Builder) Freeze() *Vector {
	nw := intbits.WordsFor(b.n)
	words := b.words[:nw:nw]
	if uint64(cap(b.words)) > nw {
		words = make([]uint64, nw)
		copy(words, b.words)
	}
	v := newVector(words, b.n)
	b.words = nil
	b.n = 0
	return v
}

// Vector is a frozen bit vector.
type Vector struct {
	words []uint64
	n     uint64
	ones  uint64
}

func newVector(words []uint64, n uint64) *Vector {
	if rem := n & 63; rem != 0 {
		words[len(words)-1] &= intbits.LowMask(uint(rem))
	}
	var ones uint64
	for _, w := range words {
		ones += uint64(bits.OnesCount64(w))
	}
	return &Vector{words: words, n: n, ones: ones}
}

// FromWords builds a vector of n bits over words. The vector takes ownership
// of words; bits past n in the last word are cleared.
func FromWords(words []uint64, n uint64) (*Vector, error) {
	if uint64(len(words)) != intbits.WordsFor(n) {
		return nil, fmt.Errorf("%w: %d words cannot hold exactly %d bits", serrors.ErrFormat, len(words), n)
	}
	return newVector(words, n), nil
}

// Len returns the number of bits.
func (v *Vector) Len() uint64 {
	return v.n
}

// Get returns bit i, or ErrOutOfRange when i >= Len().
func (v *Vector) Get(i uint64) (bool, error) {
	if i >= v.n {
		return false, fmt.Errorf("%w: bit %d of %d", serrors.ErrOutOfRange, i, v.n)
	}
	return v.Bit(i), nil
}

// Bit returns bit i without a range check against Len. Positions inside the
// last word but past Len read as zero.
func (v *Vector) Bit(i uint64) bool {
	return v.words[i>>6]&(1<<(i&63)) != 0
}

// Ones returns the number of set bits.
func (v *Vector) Ones() uint64 {
	return v.ones
}

// Zeros returns the number of clear bits.
func (v *Vector) Zeros() uint64 {
	return v.n - v.ones
}

// LastIndexOf returns the highest index whose bit equals bit, or -1.
func (v *Vector) LastIndexOf(bit bool) int64 {
	for wi := len(v.words) - 1; wi >= 0; wi-- {
		w := v.words[wi]
		valid := uint(64)
		if wi == len(v.words)-1 && v.n&63 != 0 {
			valid = uint(v.n & 63)
		}
		if !bit {
			w = ^w & intbits.LowMask(valid)
		}
		if w != 0 {
			return int64(wi)*64 + int64(63-bits.LeadingZeros64(w))
		}
	}
	return -1
}

// Words returns the backing words. Callers must not modify them.
func (v *Vector) Words() []uint64 {
	return v.words
}

// MemoryBytes returns the size of the backing storage.
func (v *Vector) MemoryBytes() int64 {
	return int64(len(v.words)) * 8
}

// WriteTo serializes the vector as
//
//	bitLength  uint64
//	wordCount  uint32
//	words      wordCount × uint64
//
// all little-endian.
func (v *Vector) WriteTo(w io.Writer) (int64, error) {
	ew := encoding.NewWriter(w)
	ew.Uint64(v.n)
	ew.Uint32(uint32(len(v.words)))
	ew.Words(v.words)
	return ew.Count(), ew.Err()
}

// Read deserializes a vector written by WriteTo.
func Read(r io.Reader) (*Vector, error) {
	return Decode(encoding.NewReader(r))
}

// Decode deserializes a vector from an encoding.Reader. It lets composite
// structures share one reader (and its sticky error) across nested fields.
func Decode(er *encoding.Reader) (*Vector, error) {
	n := er.Uint64()
	count := er.Uint32()
	if er.Err() != nil {
		return nil, er.Err()
	}
	if uint64(count) != intbits.WordsFor(n) {
		return nil, fmt.Errorf("%w: bit vector header claims %d bits in %d words", serrors.ErrFormat, n, count)
	}
	words := er.Words(uint64(count))
	if er.Err() != nil {
		return nil, er.Err()
	}
	return newVector(words, n), nil
}
