// Package bits provides low-level word manipulation primitives shared by the
// bit vector, rank/select and hashing code.
package bits

import "math/bits"

// WordBits is the width of a backing word.
const WordBits = 64

// FastRange maps a 64-bit hash uniformly to [0, n).
// Uses the "fastrange" technique: multiply and take high bits.
// This is the standard way to map hashes to ranges without modulo bias.
func FastRange(hash uint64, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	hi, _ := bits.Mul64(hash, n)
	return hi
}

// WordsFor returns the number of 64-bit words needed to hold n bits.
func WordsFor(n uint64) uint64 {
	return (n + WordBits - 1) / WordBits
}

// LowMask returns a word with the low n bits set. n must be in [0, 64].
func LowMask(n uint) uint64 {
	if n >= WordBits {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// SelectInWord returns the position (0..63) of the k-th set bit of w,
// counting k from 0. The caller guarantees k < popcount(w).
func SelectInWord(w uint64, k int) int {
	for range k {
		w &= w - 1
	}
	return bits.TrailingZeros64(w)
}

// Log2Floor returns floor(log2(x)) for x > 0 and 0 for x == 0.
func Log2Floor(x uint64) int {
	if x == 0 {
		return 0
	}
	return WordBits - 1 - bits.LeadingZeros64(x)
}

// Wymix performs a 128-bit multiply and XOR fold.
// This is the core mixing primitive from WyHash v4.
func Wymix(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return hi ^ lo
}
