package succinct

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	serrors "github.com/nlptr/succinct/errors"
)

// Compression selects how the structure stream is stored in a model file.
type Compression uint8

const (
	// CompressionNone stores the stream as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 stores the stream as one LZ4 block (fast to load).
	CompressionLZ4 Compression = 1
	// CompressionZstd stores the stream as one zstd frame (smaller files).
	CompressionZstd Compression = 2
)

func (c Compression) valid() bool {
	return c <= CompressionZstd
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a name accepted by String back to its value.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", serrors.ErrUnknownCompression, name)
	}
}

// zstdEncoderPool holds encoders between writes.
var zstdEncoderPool sync.Pool

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

// newZstdDecoder returns a decoder bounded by the declared raw length. Frame
// windows round up to a power of two of at least 1 KiB, so the bound is twice
// rawLength with that floor.
func newZstdDecoder(rawLength uint64) (*zstd.Decoder, error) {
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(zstdMemoryLimit(rawLength)))
}

func zstdMemoryLimit(rawLength uint64) uint64 {
	return max(min(rawLength, 1<<62)*2, zstd.MinWindowSize)
}

// compress returns the stored form of raw. For CompressionNone it returns raw
// itself.
func compress(raw []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return raw, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 && len(raw) > 0 {
			// Incompressible input. UncompressBlock cannot represent a literal
			// passthrough, so fall back to storing the stream uncompressed.
			return nil, errIncompressible
		}
		return dst[:n], nil
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
	default:
		return nil, fmt.Errorf("%w: %d", serrors.ErrUnknownCompression, c)
	}
}

// decompress restores rawLength bytes from stored.
func decompress(stored []byte, c Compression, rawLength uint64) ([]byte, error) {
	switch c {
	case CompressionNone:
		return stored, nil
	case CompressionLZ4:
		// LZ4 cannot expand by more than 255x.
		if rawLength > uint64(len(stored))*255+16 {
			return nil, fmt.Errorf("%w: lz4 raw length %d for %d stored bytes", serrors.ErrFormat, rawLength, len(stored))
		}
		dst := make([]byte, rawLength)
		n, err := lz4.UncompressBlock(stored, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", serrors.ErrFormat, err)
		}
		if uint64(n) != rawLength {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, want %d", serrors.ErrFormat, n, rawLength)
		}
		return dst, nil
	case CompressionZstd:
		dec, err := newZstdDecoder(rawLength)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer dec.Close()
		// The frame header carries the content size; only presize within a
		// sane multiple of the stored bytes.
		capacity := min(rawLength, uint64(len(stored))*8)
		out, err := dec.DecodeAll(stored, make([]byte, 0, capacity))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", serrors.ErrFormat, err)
		}
		if uint64(len(out)) != rawLength {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, want %d", serrors.ErrFormat, len(out), rawLength)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", serrors.ErrUnknownCompression, c)
	}
}
