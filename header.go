package succinct

import (
	"encoding/binary"
	"fmt"

	serrors "github.com/nlptr/succinct/errors"
)

const (
	// magic identifies model files. "TRSC" in little-endian.
	magic = uint32(0x43535254)

	// version is the current format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized header (64 bytes)
	headerSize = 64

	// footerSize is the exact size of the serialized footer (32 bytes)
	footerSize = 32
)

// header is the 64-byte file header.
//
// Layout:
//
//	Offset  Size  Field         Type
//	0       4     Magic         0x43535254 ("TRSC")
//	4       2     Version       0x0001
//	6       2     Kind          uint16_le
//	8       1     Compression   uint8
//	9       3     Reserved      [3]byte (zero)
//	12      8     RawLength     uint64_le (structure stream bytes)
//	20      8     StoredLength  uint64_le (payload bytes in the file)
//	28      8     ItemCount     uint64_le (bits, elements or keys)
//	36      28    Reserved      [28]byte (zero)
type header struct {
	Magic        uint32
	Version      uint16
	Kind         Kind
	Compression  Compression
	RawLength    uint64
	StoredLength uint64
	ItemCount    uint64
}

// encodeTo serializes the header to an existing buffer of at least headerSize
// bytes. Reserved bytes are zeroed.
func (h *header) encodeTo(buf []byte) {
	clear(buf[:headerSize])
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Kind))
	buf[8] = uint8(h.Compression)
	binary.LittleEndian.PutUint64(buf[12:20], h.RawLength)
	binary.LittleEndian.PutUint64(buf[20:28], h.StoredLength)
	binary.LittleEndian.PutUint64(buf[28:36], h.ItemCount)
}

// decodeHeader parses a 64-byte header.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, serrors.ErrTruncated
	}

	h := &header{
		Magic:        binary.LittleEndian.Uint32(buf[0:4]),
		Version:      binary.LittleEndian.Uint16(buf[4:6]),
		Kind:         Kind(binary.LittleEndian.Uint16(buf[6:8])),
		Compression:  Compression(buf[8]),
		RawLength:    binary.LittleEndian.Uint64(buf[12:20]),
		StoredLength: binary.LittleEndian.Uint64(buf[20:28]),
		ItemCount:    binary.LittleEndian.Uint64(buf[28:36]),
	}

	if h.Magic != magic {
		return nil, serrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, fmt.Errorf("%w: %d", serrors.ErrInvalidVersion, h.Version)
	}
	if !h.Kind.valid() {
		return nil, fmt.Errorf("%w: unknown kind %d", serrors.ErrFormat, h.Kind)
	}
	if !h.Compression.valid() {
		return nil, fmt.Errorf("%w: %d", serrors.ErrUnknownCompression, h.Compression)
	}
	if h.Compression == CompressionNone && h.RawLength != h.StoredLength {
		return nil, fmt.Errorf("%w: uncompressed payload with raw length %d, stored length %d",
			serrors.ErrFormat, h.RawLength, h.StoredLength)
	}

	return h, nil
}

// footer is the 32-byte file footer.
//
// Layout:
//
//	Offset  Size  Field        Type
//	0       8     PayloadHash  uint64_le (xxHash64 of the stored payload)
//	8       8     RawHash      uint64_le (xxHash64 of the decompressed stream)
//	16      16    Reserved     [16]byte (zero)
type footer struct {
	PayloadHash uint64
	RawHash     uint64
}

// encodeTo serializes the footer into an existing buffer.
func (f *footer) encodeTo(buf []byte) {
	clear(buf[:footerSize])
	binary.LittleEndian.PutUint64(buf[0:8], f.PayloadHash)
	binary.LittleEndian.PutUint64(buf[8:16], f.RawHash)
}

// decodeFooter parses a 32-byte footer.
func decodeFooter(buf []byte) (*footer, error) {
	if len(buf) < footerSize {
		return nil, serrors.ErrTruncated
	}
	return &footer{
		PayloadHash: binary.LittleEndian.Uint64(buf[0:8]),
		RawHash:     binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}
