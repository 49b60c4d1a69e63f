package succinct

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/nlptr/succinct/bitvec"
	"github.com/nlptr/succinct/dense"
	serrors "github.com/nlptr/succinct/errors"
	"github.com/nlptr/succinct/internal/encoding"
	"github.com/nlptr/succinct/lossy"
	"github.com/nlptr/succinct/mphf"
)

// Kind identifies the structure stored in a model file.
type Kind uint16

const (
	KindBitVector     Kind = 1
	KindDenseSequence Kind = 2
	KindMPHF          Kind = 3
	KindLossyInt      Kind = 4
	KindLossyFloat    Kind = 5
)

func (k Kind) valid() bool {
	return k >= KindBitVector && k <= KindLossyFloat
}

func (k Kind) String() string {
	switch k {
	case KindBitVector:
		return "bitvector"
	case KindDenseSequence:
		return "dense"
	case KindMPHF:
		return "mphf"
	case KindLossyInt:
		return "lossy-int"
	case KindLossyFloat:
		return "lossy-float"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

var errIncompressible = errors.New("incompressible stream")

// Model is a structure loaded from a model file. Its accessors return the
// structure when the file holds that kind and ErrWrongKind otherwise.
type Model struct {
	kind  Kind
	value any
	stats Stats
}

// Stats describes a model file and the structure it holds.
type Stats struct {
	Kind        Kind
	Compression Compression
	Items       uint64  // bits, elements or keys depending on Kind
	RawBytes    int64   // structure stream size
	StoredBytes int64   // payload size in the file
	FileBytes   int64   // header, payload and footer
	MemoryBytes int64   // in-memory footprint of the loaded structure
	BitsPerItem float64 // file bits per item
}

// Kind returns the kind of structure held.
func (m *Model) Kind() Kind { return m.kind }

// Stats returns file and structure statistics.
func (m *Model) Stats() Stats { return m.stats }

// BitVector returns the held bit vector.
func (m *Model) BitVector() (*bitvec.Vector, error) {
	return as[*bitvec.Vector](m, KindBitVector)
}

// Dense returns the held dense integer sequence.
func (m *Model) Dense() (*dense.Sequence, error) {
	return as[*dense.Sequence](m, KindDenseSequence)
}

// MPHF returns the held minimal perfect hash function.
func (m *Model) MPHF() (*mphf.MPHF, error) {
	return as[*mphf.MPHF](m, KindMPHF)
}

// LossyInt returns the held int lookup.
func (m *Model) LossyInt() (*lossy.IntLookup, error) {
	return as[*lossy.IntLookup](m, KindLossyInt)
}

// LossyFloat returns the held float lookup.
func (m *Model) LossyFloat() (*lossy.FloatLookup, error) {
	return as[*lossy.FloatLookup](m, KindLossyFloat)
}

func as[T any](m *Model, want Kind) (T, error) {
	v, ok := m.value.(T)
	if !ok || m.kind != want {
		var zero T
		return zero, fmt.Errorf("%w: file holds %s, not %s", serrors.ErrWrongKind, m.kind, want)
	}
	return v, nil
}

// artifact is what every storable structure provides.
type artifact interface {
	io.WriterTo
	MemoryBytes() int64
}

// describe reports the kind and item count of a storable structure.
func describe(v any) (Kind, uint64, artifact, error) {
	switch a := v.(type) {
	case *bitvec.Vector:
		return KindBitVector, a.Len(), a, nil
	case *dense.Sequence:
		return KindDenseSequence, uint64(a.Len()), a, nil
	case *mphf.MPHF:
		return KindMPHF, a.Len(), a, nil
	case *lossy.IntLookup:
		return KindLossyInt, uint64(a.Len()), a, nil
	case *lossy.FloatLookup:
		return KindLossyFloat, uint64(a.Len()), a, nil
	default:
		return 0, 0, nil, fmt.Errorf("%w: %T", serrors.ErrUnsupportedType, v)
	}
}

func decodeKind(kind Kind, er *encoding.Reader) (any, error) {
	switch kind {
	case KindBitVector:
		return bitvec.Decode(er)
	case KindDenseSequence:
		return dense.Decode(er)
	case KindMPHF:
		return mphf.Decode(er)
	case KindLossyInt:
		return lossy.DecodeInt(er)
	case KindLossyFloat:
		return lossy.DecodeFloat(er)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", serrors.ErrFormat, kind)
	}
}

// encoded is a model file image before it is placed in a file or stream.
type encoded struct {
	hdr    header
	ftr    footer
	stored []byte
}

func (e *encoded) size() int {
	return headerSize + len(e.stored) + footerSize
}

// writeInto lays the image out in buf, which must be at least e.size() bytes.
func (e *encoded) writeInto(buf []byte) {
	e.hdr.encodeTo(buf[:headerSize])
	copy(buf[headerSize:], e.stored)
	e.ftr.encodeTo(buf[headerSize+len(e.stored):])
}

func encodeArtifact(v any, cfg *config) (*encoded, error) {
	kind, items, a, err := describe(v)
	if err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	if _, err := a.WriteTo(&raw); err != nil {
		return nil, fmt.Errorf("serialize %s: %w", kind, err)
	}

	c := cfg.compression
	stored, err := compress(raw.Bytes(), c)
	switch {
	case errors.Is(err, errIncompressible), err == nil && len(stored) >= raw.Len():
		c, stored = CompressionNone, raw.Bytes()
	case err != nil:
		return nil, err
	}

	cfg.logger.Debug("model encoded",
		"kind", kind,
		"items", items,
		"compression", c,
		"raw_bytes", raw.Len(),
		"stored_bytes", len(stored))

	return &encoded{
		hdr: header{
			Magic:        magic,
			Version:      version,
			Kind:         kind,
			Compression:  c,
			RawLength:    uint64(raw.Len()),
			StoredLength: uint64(len(stored)),
			ItemCount:    items,
		},
		ftr: footer{
			PayloadHash: xxhash.Sum64(stored),
			RawHash:     xxhash.Sum64(raw.Bytes()),
		},
		stored: stored,
	}, nil
}

// Encode writes v as a model file image to w. v must be a *bitvec.Vector,
// *dense.Sequence, *mphf.MPHF, *lossy.IntLookup or *lossy.FloatLookup.
func Encode(w io.Writer, v any, opts ...Option) (int64, error) {
	enc, err := encodeArtifact(v, newConfig(opts))
	if err != nil {
		return 0, err
	}
	buf := make([]byte, enc.size())
	enc.writeInto(buf)
	n, err := w.Write(buf)
	return int64(n), err
}

// Decode loads a model from a complete model file image. The result does not
// reference data.
func Decode(data []byte, opts ...Option) (*Model, error) {
	return decode(data, newConfig(opts))
}

func decode(data []byte, cfg *config) (*Model, error) {
	if len(data) < headerSize+footerSize {
		return nil, serrors.ErrTruncated
	}
	hdr, err := decodeHeader(data[:headerSize])
	if err != nil {
		return nil, err
	}

	available := uint64(len(data) - headerSize - footerSize)
	if hdr.StoredLength > available {
		return nil, fmt.Errorf("%w: payload claims %d bytes, %d available", serrors.ErrTruncated, hdr.StoredLength, available)
	}
	if hdr.StoredLength < available {
		return nil, fmt.Errorf("%w: %d trailing bytes", serrors.ErrFormat, available-hdr.StoredLength)
	}
	end := headerSize + int(hdr.StoredLength)
	stored := data[headerSize:end]
	ftr, err := decodeFooter(data[end:])
	if err != nil {
		return nil, err
	}

	if cfg.verify && xxhash.Sum64(stored) != ftr.PayloadHash {
		return nil, fmt.Errorf("%w: payload", serrors.ErrChecksumFailed)
	}
	raw, err := decompress(stored, hdr.Compression, hdr.RawLength)
	if err != nil {
		return nil, err
	}
	if cfg.verify && xxhash.Sum64(raw) != ftr.RawHash {
		return nil, fmt.Errorf("%w: structure stream", serrors.ErrChecksumFailed)
	}

	rd := bytes.NewReader(raw)
	value, err := decodeKind(hdr.Kind, encoding.NewReader(rd))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", hdr.Kind, err)
	}
	if rd.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after %s stream", serrors.ErrFormat, rd.Len(), hdr.Kind)
	}
	_, items, a, err := describe(value)
	if err != nil {
		return nil, err
	}
	if items != hdr.ItemCount {
		return nil, fmt.Errorf("%w: header claims %d items, %s holds %d", serrors.ErrFormat, hdr.ItemCount, hdr.Kind, items)
	}

	m := &Model{
		kind:  hdr.Kind,
		value: value,
		stats: Stats{
			Kind:        hdr.Kind,
			Compression: hdr.Compression,
			Items:       items,
			RawBytes:    int64(hdr.RawLength),
			StoredBytes: int64(hdr.StoredLength),
			FileBytes:   int64(len(data)),
			MemoryBytes: a.MemoryBytes(),
		},
	}
	if items > 0 {
		m.stats.BitsPerItem = float64(len(data)*8) / float64(items)
	}
	cfg.logger.Debug("model decoded", "kind", hdr.Kind, "items", items, "compression", hdr.Compression, "file_bytes", len(data))
	return m, nil
}

// Sniff reports whether r starts with the model file magic. It consumes up to
// four bytes. A stream shorter than that is not a model file.
func Sniff(r io.Reader) (bool, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return binary.LittleEndian.Uint32(buf[:]) == magic, nil
}
