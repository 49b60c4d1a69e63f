// Package errors defines all exported error sentinels for the succinct module.
//
// This is the single source of truth for error values. Every package in the
// module wraps these with context, so errors.Is checks work across package
// boundaries.
package errors

import (
	"errors"
	"fmt"
)

// Construction errors. The specific sentinels wrap ErrConstruction so callers
// can test for the whole family.
var (
	ErrConstruction   = errors.New("succinct: invalid construction input")
	ErrEmptyKeySet    = fmt.Errorf("%w: empty key set", ErrConstruction)
	ErrDuplicateKey   = fmt.Errorf("%w: duplicate key", ErrConstruction)
	ErrTooManyKeys    = fmt.Errorf("%w: key count exceeds maximum (2^32-1)", ErrConstruction)
	ErrLengthMismatch = fmt.Errorf("%w: keys and values differ in length", ErrConstruction)
)

// Range errors
var (
	ErrOutOfRange = errors.New("succinct: index out of range")
)

// Container errors
var (
	ErrUnsupportedType = errors.New("succinct: unsupported structure type")
)

// Format errors. The specific sentinels wrap ErrFormat.
var (
	ErrFormat             = errors.New("succinct: malformed data")
	ErrTruncated          = fmt.Errorf("%w: truncated input", ErrFormat)
	ErrInvalidMagic       = fmt.Errorf("%w: invalid magic number", ErrFormat)
	ErrInvalidVersion     = fmt.Errorf("%w: unsupported version", ErrFormat)
	ErrChecksumFailed     = fmt.Errorf("%w: checksum verification failed", ErrFormat)
	ErrWrongKind          = fmt.Errorf("%w: model holds a different structure kind", ErrFormat)
	ErrUnknownCompression = fmt.Errorf("%w: unknown compression", ErrFormat)
)

// Diagnostics
var (
	ErrNotBijective = errors.New("succinct: hash function is not a bijection over the key set")
)
