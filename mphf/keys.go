package mphf

import (
	"encoding/binary"
	"unsafe"
)

// KeyProvider reports a key count and renders each key as bytes. The rendering
// used at build time must match the bytes passed to Get for the same key.
type KeyProvider interface {
	Len() int
	Key(i int) []byte
}

// StringKeys provides string keys. Keys are rendered without copying.
type StringKeys []string

func (k StringKeys) Len() int { return len(k) }

func (k StringKeys) Key(i int) []byte {
	return stringBytes(k[i])
}

// BytesKeys provides byte-slice keys as-is.
type BytesKeys [][]byte

func (k BytesKeys) Len() int { return len(k) }

func (k BytesKeys) Key(i int) []byte { return k[i] }

// IntTupleKeys provides fixed-width integer tuple keys, such as n-gram word id
// sequences. Each element renders as 4 little-endian bytes.
type IntTupleKeys [][]int32

func (k IntTupleKeys) Len() int { return len(k) }

func (k IntTupleKeys) Key(i int) []byte {
	return AppendIntTuple(nil, k[i])
}

// AppendIntTuple appends the byte rendering of tuple to dst.
func AppendIntTuple(dst []byte, tuple []int32) []byte {
	for _, v := range tuple {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}

// stringBytes returns the bytes of s without copying. The result must not be
// modified.
func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
