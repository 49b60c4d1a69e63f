// Package dense stores a sequence of 32-bit integers as a compact,
// self-delimiting bit code with random access.
//
// Each value is written as its 32-bit pattern with leading zeros dropped
// (values 0 and 1 take a single bit). A parallel marker vector has a one at the
// first bit of every codeword, so a select1 over the markers jumps straight to
// the i-th codeword. Negative values are stored as their two's complement
// pattern and therefore take the full 32 bits.
package dense

import (
	"fmt"
	"io"
	"iter"
	"math/bits"

	"github.com/nlptr/succinct/bitvec"
	serrors "github.com/nlptr/succinct/errors"
	"github.com/nlptr/succinct/internal/encoding"
	"github.com/nlptr/succinct/rankselect"
)

// maxCodewordBits is the longest codeword, used to reserve builder capacity.
const maxCodewordBits = 32

// Sequence is an immutable compressed integer sequence.
type Sequence struct {
	code   *bitvec.Vector
	marker *bitvec.Vector
	sel    *rankselect.Selector
	n      int
}

// New encodes values.
func New(values []int32) *Sequence {
	code := bitvec.NewBuilder(uint64(len(values)) * 2)
	marker := bitvec.NewBuilder(uint64(len(values)) * 2)
	for _, v := range values {
		code.EnsureCapacity(maxCodewordBits)
		marker.EnsureCapacity(maxCodewordBits)

		u := uint32(v)
		if u < 2 {
			code.AppendFast(u == 1)
			marker.AppendFast(true)
			continue
		}
		msbPos := maxCodewordBits - bits.LeadingZeros32(u)
		code.AppendBits(uint64(u), msbPos)
		marker.AppendFast(true)
		marker.AppendN(uint64(msbPos-1), false)
	}
	return newSequence(code.Freeze(), marker.Freeze(), len(values))
}

func newSequence(code, marker *bitvec.Vector, n int) *Sequence {
	return &Sequence{
		code:   code,
		marker: marker,
		sel:    rankselect.NewSelector(marker),
		n:      n,
	}
}

// Len returns the number of values.
func (s *Sequence) Len() int {
	return s.n
}

// Get returns the i-th value, or ErrOutOfRange when i is outside [0, Len()).
func (s *Sequence) Get(i int) (int32, error) {
	if i < 0 || i >= s.n {
		return 0, fmt.Errorf("%w: sequence index %d, length %d", serrors.ErrOutOfRange, i, s.n)
	}
	p := uint64(s.sel.Select1(uint64(i) + 1))
	return s.decodeAt(p), nil
}

// decodeAt decodes the codeword starting at bit p.
func (s *Sequence) decodeAt(p uint64) int32 {
	if !s.code.Bit(p) {
		return 0
	}
	result := uint32(1)
	end := s.marker.Len()
	for p++; p < end && !s.marker.Bit(p); p++ {
		result <<= 1
		if s.code.Bit(p) {
			result |= 1
		}
	}
	return int32(result)
}

// All yields every (index, value) pair in order with a single forward pass,
// without select queries.
func (s *Sequence) All() iter.Seq2[int, int32] {
	return func(yield func(int, int32) bool) {
		end := s.marker.Len()
		i := 0
		for p := uint64(0); p < end; p++ {
			if !s.marker.Bit(p) {
				continue
			}
			if !yield(i, s.decodeAt(p)) {
				return
			}
			i++
		}
	}
}

// Values decodes the whole sequence.
func (s *Sequence) Values() []int32 {
	out := make([]int32, 0, s.n)
	for _, v := range s.All() {
		out = append(out, v)
	}
	return out
}

// MemoryBytes returns the size of both vectors and the selector directory.
func (s *Sequence) MemoryBytes() int64 {
	return s.code.MemoryBytes() + s.marker.MemoryBytes() + s.sel.MemoryBytes()
}

// WriteTo serializes the sequence as
//
//	elementCount  uint32
//	code          bit vector stream
//	marker        bit vector stream
func (s *Sequence) WriteTo(w io.Writer) (int64, error) {
	ew := encoding.NewWriter(w)
	ew.Uint32(uint32(s.n))
	if _, err := s.code.WriteTo(ew); err != nil {
		return ew.Count(), err
	}
	if _, err := s.marker.WriteTo(ew); err != nil {
		return ew.Count(), err
	}
	return ew.Count(), ew.Err()
}

// Read deserializes a sequence written by WriteTo.
func Read(r io.Reader) (*Sequence, error) {
	return Decode(encoding.NewReader(r))
}

// Decode deserializes a sequence from a shared encoding.Reader.
func Decode(er *encoding.Reader) (*Sequence, error) {
	n := er.Uint32()
	if er.Err() != nil {
		return nil, er.Err()
	}
	code, err := bitvec.Decode(er)
	if err != nil {
		return nil, fmt.Errorf("decode code vector: %w", err)
	}
	marker, err := bitvec.Decode(er)
	if err != nil {
		return nil, fmt.Errorf("decode marker vector: %w", err)
	}
	if code.Len() != marker.Len() {
		return nil, fmt.Errorf("%w: code has %d bits, marker has %d", serrors.ErrFormat, code.Len(), marker.Len())
	}
	if marker.Ones() != uint64(n) {
		return nil, fmt.Errorf("%w: %d codewords marked for %d elements", serrors.ErrFormat, marker.Ones(), n)
	}
	if n > 0 && !marker.Bit(0) {
		return nil, fmt.Errorf("%w: marker does not start with a codeword", serrors.ErrFormat)
	}
	if err := checkCodewords(code, marker); err != nil {
		return nil, err
	}
	return newSequence(code, marker, int(n)), nil
}

// checkCodewords rejects codewords that New cannot produce: longer than 32
// bits, or longer than one bit without a leading one.
func checkCodewords(code, marker *bitvec.Vector) error {
	end := marker.Len()
	start := uint64(0)
	for p := uint64(1); p <= end; p++ {
		if p < end && !marker.Bit(p) {
			continue
		}
		length := p - start
		if length > maxCodewordBits {
			return fmt.Errorf("%w: %d-bit codeword at bit %d", serrors.ErrFormat, length, start)
		}
		if length > 1 && !code.Bit(start) {
			return fmt.Errorf("%w: codeword at bit %d has a leading zero", serrors.ErrFormat, start)
		}
		start = p
	}
	return nil
}
