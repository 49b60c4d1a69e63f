// Package succinct stores compact, read-only lexical structures for Turkish
// NLP models: bit vectors, dense integer sequences, minimal perfect hash
// functions and fingerprinted key→value lookups.
//
// The structures live in subpackages and serialize to little-endian streams.
// This package wraps any of them in a model file: a 64-byte header, an
// optionally compressed payload and a checksummed footer.
//
// # Basic Usage
//
// Building and storing a lookup:
//
//	counts, err := lossy.GenerateIntMap(map[string]int32{"ev": 5, "okul": 12})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := succinct.WriteFile("counts.model", counts, succinct.WithCompression(succinct.CompressionZstd)); err != nil {
//	    log.Fatal(err)
//	}
//
// Loading it back:
//
//	m, err := succinct.Open("counts.model")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	counts, err := m.LossyInt()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(counts.Get("okul")) // 12
//
// # Package Structure
//
//   - bitvec: growable bit vector builder and frozen vector
//   - rankselect: select1 and rank1 directories over frozen vectors
//   - dense: compact random-access int32 sequence
//   - mphf: multi-level minimal perfect hash function
//   - lossy: fingerprinted int32/float32 lookups over an mphf
//   - errors: sentinel errors shared by all packages
//   - this package: model file container (header.go, compression.go,
//     model.go, writer.go, open.go) and platform hints (fallocate_*.go,
//     advise_*.go)
package succinct
