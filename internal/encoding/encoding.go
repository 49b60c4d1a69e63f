// Package encoding provides the fixed-width little-endian stream codec used by
// every serializable structure in the module.
//
// Writer and Reader carry a sticky error: after the first failure every call
// is a no-op, and Err reports the failure. This keeps the per-field code in
// WriteTo/Read implementations flat.
package encoding

import (
	"encoding/binary"
	"errors"
	"io"

	serrors "github.com/nlptr/succinct/errors"
)

// chunkWords bounds how many words are decoded per read, so a corrupted length
// field cannot force a large allocation before the stream runs out.
const chunkWords = 1 << 14

// Writer writes little-endian fixed-width fields to an io.Writer.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	w.err = err
}

// Write implements io.Writer so nested structures can serialize through the
// same counter and sticky error.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	before := w.n
	w.write(p)
	return int(w.n - before), w.err
}

// Uint32 writes v as 4 bytes.
func (w *Writer) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

// Uint64 writes v as 8 bytes.
func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

// Words writes each word as 8 bytes, batching into a single buffer per chunk.
func (w *Writer) Words(words []uint64) {
	buf := make([]byte, 0, min(len(words), chunkWords)*8)
	for len(words) > 0 && w.err == nil {
		n := min(len(words), chunkWords)
		buf = buf[:0]
		for _, v := range words[:n] {
			buf = binary.LittleEndian.AppendUint64(buf, v)
		}
		w.write(buf)
		words = words[n:]
	}
}

// Int32s writes each value as 4 bytes.
func (w *Writer) Int32s(values []int32) {
	buf := make([]byte, 0, min(len(values), chunkWords)*4)
	for len(values) > 0 && w.err == nil {
		n := min(len(values), chunkWords)
		buf = buf[:0]
		for _, v := range values[:n] {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		}
		w.write(buf)
		values = values[n:]
	}
}

// Count returns the number of bytes written so far.
func (w *Writer) Count() int64 {
	return w.n
}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

// Reader reads little-endian fixed-width fields from an io.Reader.
type Reader struct {
	r   io.Reader
	err error
	buf [8]byte
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	if _, err := io.ReadFull(r.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = serrors.ErrTruncated
		}
		r.err = err
		return false
	}
	return true
}

// Uint32 reads 4 bytes.
func (r *Reader) Uint32() uint32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

// Uint64 reads 8 bytes.
func (r *Reader) Uint64() uint64 {
	if !r.read(r.buf[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.buf[:8])
}

// Words reads n words. Returns nil once the reader has failed.
func (r *Reader) Words(n uint64) []uint64 {
	words := make([]uint64, 0, min(n, chunkWords))
	buf := make([]byte, min(n, chunkWords)*8)
	for remaining := n; remaining > 0; {
		c := min(remaining, chunkWords)
		if !r.read(buf[:c*8]) {
			return nil
		}
		for i := range c {
			words = append(words, binary.LittleEndian.Uint64(buf[i*8:]))
		}
		remaining -= c
	}
	return words
}

// Int32s reads n 4-byte values. Returns nil once the reader has failed.
func (r *Reader) Int32s(n uint64) []int32 {
	values := make([]int32, 0, min(n, chunkWords))
	buf := make([]byte, min(n, chunkWords)*4)
	for remaining := n; remaining > 0; {
		c := min(remaining, chunkWords)
		if !r.read(buf[:c*4]) {
			return nil
		}
		for i := range c {
			values = append(values, int32(binary.LittleEndian.Uint32(buf[i*4:])))
		}
		remaining -= c
	}
	return values
}

// Fail records err unless the reader already failed.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Err returns the first read error.
func (r *Reader) Err() error {
	return r.err
}
