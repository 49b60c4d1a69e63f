// Bench measures build time, query latency, size and memory for the succinct
// structures and for model file round trips.
//
// Usage:
//
//	go run ./cmd/bench -keys 5000000 -workers 4
//
// Flags:
//
//	-keys        Number of keys / sequence elements (default: 2,000,000)
//	-workers     Goroutines hashing keys per MPHF level (default: 1)
//	-gamma       MPHF level table size factor (default: 1.0)
//	-queries     Number of timed queries per structure (default: 1,000,000)
//	-cpuprofile  Write a CPU profile of the MPHF build
//	-memprofile  Write a heap profile after the MPHF build
package main

import (
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/nlptr/succinct"
	"github.com/nlptr/succinct/dense"
	"github.com/nlptr/succinct/lossy"
	"github.com/nlptr/succinct/mphf"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// memSampler tracks peak heap and RSS every 10ms. It reads runtime/metrics
// rather than ReadMemStats to avoid stop-the-world pauses.
type memSampler struct {
	baseHeap, baseRSS uint64
	peakHeap, peakRSS atomic.Uint64
	done              chan struct{}
}

func startSampler() *memSampler {
	runtime.GC()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := &memSampler{baseHeap: ms.Alloc, baseRSS: getMaxRSS(), done: make(chan struct{})}
	s.peakHeap.Store(s.baseHeap)
	s.peakRSS.Store(s.baseRSS)

	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&s.peakHeap, samples[0].Value.Uint64())
				storeMax(&s.peakRSS, getMaxRSS())
			}
		}
	}()
	return s
}

func storeMax(v *atomic.Uint64, x uint64) {
	for {
		old := v.Load()
		if x <= old || v.CompareAndSwap(old, x) {
			return
		}
	}
}

// stop returns peak heap and RSS growth over the baseline in bytes.
func (s *memSampler) stop() (heap, rss uint64) {
	close(s.done)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	storeMax(&s.peakHeap, ms.Alloc)
	storeMax(&s.peakRSS, getMaxRSS())
	return s.peakHeap.Load() - s.baseHeap, s.peakRSS.Load() - s.baseRSS
}

// genKeys returns n distinct word-like keys derived from murmur3 of the index.
func genKeys(n int, prefix string) []string {
	keys := make([]string, n)
	var buf [8]byte
	for i := range keys {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		h := murmur3.Sum32WithSeed(buf[:], 0x1234)
		keys[i] = fmt.Sprintf("%s%s%d", prefix, hex.EncodeToString([]byte{byte(h), byte(h >> 8), byte(h >> 16)}), i)
	}
	return keys
}

func perQuery(d time.Duration, n int) float64 {
	return float64(d.Nanoseconds()) / float64(n)
}

func main() {
	keysFlag := flag.Int("keys", 2_000_000, "number of keys / sequence elements")
	workersFlag := flag.Int("workers", 1, "goroutines hashing keys per MPHF level")
	gammaFlag := flag.Float64("gamma", 1.0, "MPHF level table size factor")
	queriesFlag := flag.Int("queries", 1_000_000, "number of timed queries per structure")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (MPHF build only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (after MPHF build)")
	flag.Parse()

	numKeys := *keysFlag
	numQueries := *queriesFlag
	if numKeys <= 0 {
		fmt.Println("-keys must be positive")
		os.Exit(2)
	}

	fmt.Println("Generating keys...")
	keys := genKeys(numKeys, "k")
	values := make([]int32, numKeys)
	for i := range values {
		values[i] = int32(rand.Uint32N(1 << 20))
	}
	queryOrder := rand.Perm(numKeys)
	mphfOpts := []mphf.Option{mphf.WithWorkers(*workersFlag), mphf.WithGamma(*gammaFlag)}

	// MPHF
	fmt.Println("Building MPHF...")
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
	}
	sampler := startSampler()
	buildStart := time.Now()
	m, err := mphf.Build(mphf.StringKeys(keys), mphfOpts...)
	buildDuration := time.Since(buildStart)
	peakHeap, peakRSS := sampler.stop()
	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if err != nil {
		fmt.Printf("MPHF build failed: %v\n", err)
		os.Exit(1)
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	queryStart := time.Now()
	var sink uint64
	for i := range numQueries {
		sink += m.GetString(keys[queryOrder[i%numKeys]])
	}
	mphfQuery := perQuery(time.Since(queryStart), numQueries)

	// Lossy lookup
	fmt.Println("Building lossy lookup...")
	lossyStart := time.Now()
	lookup, err := lossy.GenerateInt(keys, values, mphfOpts...)
	if err != nil {
		fmt.Printf("lossy build failed: %v\n", err)
		os.Exit(1)
	}
	lossyBuild := time.Since(lossyStart)

	queryStart = time.Now()
	for i := range numQueries {
		sink += uint64(lookup.Get(keys[queryOrder[i%numKeys]]))
	}
	lossyQuery := perQuery(time.Since(queryStart), numQueries)

	strangers := genKeys(min(numQueries, 1_000_000), "x")
	falsePositives := 0
	for _, k := range strangers {
		if _, ok := lookup.Lookup(k); ok {
			falsePositives++
		}
	}

	// Dense sequence over Zipf-distributed counts, the usual shape of
	// frequency tables.
	fmt.Println("Building dense sequence...")
	zipf := rand.NewZipf(rand.New(rand.NewPCG(1, 2)), 1.2, 1, 1<<30)
	counts := make([]int32, numKeys)
	for i := range counts {
		counts[i] = int32(zipf.Uint64())
	}
	denseStart := time.Now()
	seq := dense.New(counts)
	denseBuild := time.Since(denseStart)

	queryStart = time.Now()
	for i := range numQueries {
		v, _ := seq.Get(queryOrder[i%numKeys])
		sink += uint64(v)
	}
	denseQuery := perQuery(time.Since(queryStart), numQueries)

	// Model files
	tmpDir, err := os.MkdirTemp("", "succinct-bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	type fileResult struct {
		c           succinct.Compression
		size        int64
		write, open time.Duration
	}
	var files []fileResult
	for _, c := range []succinct.Compression{succinct.CompressionNone, succinct.CompressionLZ4, succinct.CompressionZstd} {
		path := filepath.Join(tmpDir, "lookup-"+c.String()+".model")
		start := time.Now()
		if err := succinct.WriteFile(path, lookup, succinct.WithCompression(c)); err != nil {
			fmt.Printf("WriteFile(%s) failed: %v\n", c, err)
			os.Exit(1)
		}
		written := time.Since(start)
		start = time.Now()
		model, err := succinct.Open(path)
		if err != nil {
			fmt.Printf("Open(%s) failed: %v\n", c, err)
			os.Exit(1)
		}
		files = append(files, fileResult{c: c, size: model.Stats().FileBytes, write: written, open: time.Since(start)})
	}

	n := float64(numKeys)
	fmt.Printf("\n")
	fmt.Printf("╔══════════════════════════╦══════════════════╗\n")
	fmt.Printf("║ Keys: %-19d║ Workers: %-8d║\n", numKeys, *workersFlag)
	fmt.Printf("╠══════════════════════════╬══════════════════╣\n")
	fmt.Printf("║ MPHF bits per key        ║ %8.3f         ║\n", m.BitsPerKey())
	fmt.Printf("║ MPHF levels              ║ %8d         ║\n", m.LevelCount())
	fmt.Printf("║ MPHF build               ║ %8.2f sec     ║\n", buildDuration.Seconds())
	fmt.Printf("║ MPHF build throughput    ║ %8.2f M/sec   ║\n", n/buildDuration.Seconds()/1_000_000)
	fmt.Printf("║ MPHF query               ║ %8.1f ns      ║\n", mphfQuery)
	fmt.Printf("║ MPHF peak heap           ║ %8.1f MB      ║\n", float64(peakHeap)/1_000_000)
	fmt.Printf("║ MPHF peak RSS            ║ %8.1f MB      ║\n", float64(peakRSS)/1_000_000)
	fmt.Printf("╠══════════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Lossy bits per key       ║ %8.3f         ║\n", float64(lookup.MemoryBytes()*8)/n)
	fmt.Printf("║ Lossy build              ║ %8.2f sec     ║\n", lossyBuild.Seconds())
	fmt.Printf("║ Lossy query              ║ %8.1f ns      ║\n", lossyQuery)
	fmt.Printf("║ Lossy false positives    ║ %8d / %-6d ║\n", falsePositives, len(strangers))
	fmt.Printf("╠══════════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Dense bits per element   ║ %8.3f         ║\n", float64(seq.MemoryBytes()*8)/n)
	fmt.Printf("║ Dense build              ║ %8.2f sec     ║\n", denseBuild.Seconds())
	fmt.Printf("║ Dense query              ║ %8.1f ns      ║\n", denseQuery)
	for _, f := range files {
		fmt.Printf("╠══════════════════════════╬══════════════════╣\n")
		fmt.Printf("║ File (%-4s) size         ║ %8.1f MB      ║\n", f.c, float64(f.size)/1_000_000)
		fmt.Printf("║ File (%-4s) write        ║ %8.3f sec     ║\n", f.c, f.write.Seconds())
		fmt.Printf("║ File (%-4s) open         ║ %8.3f sec     ║\n", f.c, f.open.Seconds())
	}
	fmt.Printf("╚══════════════════════════╩══════════════════╝\n")

	if sink == 42 {
		fmt.Println()
	}
}
