// Lookup builds fingerprinted lookup model files from TSV vocabularies and
// queries them.
//
// Usage:
//
//	lookup build -in counts.tsv -out counts.model [-float] [-compression zstd]
//	lookup get -model counts.model kelime1 kelime2 ...
//	lookup stat -model counts.model
//
// Keys are normalized to NFC and Turkish lowercase on both build and query.
// With no keys, get reads one key per line from stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nlptr/succinct"
	"github.com/nlptr/succinct/lossy"
	"github.com/nlptr/succinct/mphf"
)

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", format)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lookup build|get|stat [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd, args := os.Args[1], os.Args[2:]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	logLevel := fs.String("log", "info", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "text", "log format: text or json")

	var err error
	switch cmd {
	case "build":
		in := fs.String("in", "-", "TSV vocabulary, - for stdin")
		out := fs.String("out", "", "model file to write")
		floats := fs.Bool("float", false, "parse values as float32")
		compression := fs.String("compression", "zstd", "payload compression: none, lz4, zstd")
		workers := fs.Int("workers", 1, "goroutines hashing keys per MPHF level")
		_ = fs.Parse(args)
		logger := mustLogger(*logLevel, *logFormat)
		err = runBuild(logger, *in, *out, *floats, *compression, *workers)
	case "get":
		model := fs.String("model", "", "model file to query")
		_ = fs.Parse(args)
		logger := mustLogger(*logLevel, *logFormat)
		err = runGet(logger, *model, fs.Args(), os.Stdin, os.Stdout)
	case "stat":
		model := fs.String("model", "", "model file to describe")
		_ = fs.Parse(args)
		logger := mustLogger(*logLevel, *logFormat)
		err = runStat(logger, *model, os.Stdout)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func mustLogger(level, format string) *slog.Logger {
	logger, err := newLogger(os.Stderr, level, format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return logger
}

func runBuild(logger *slog.Logger, in, out string, floats bool, compression string, workers int) error {
	if out == "" {
		return fmt.Errorf("-out is required")
	}
	c, err := succinct.ParseCompression(compression)
	if err != nil {
		return err
	}

	r := io.Reader(os.Stdin)
	if in != "-" {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	e, err := readTSV(r, floats, newNormalizer(), logger)
	if err != nil {
		return err
	}
	logger.Info("vocabulary read", "keys", len(e.keys))

	opts := []mphf.Option{mphf.WithWorkers(workers), mphf.WithLogger(logger)}
	var artifact any
	if floats {
		artifact, err = lossy.GenerateFloat(e.keys, e.floats, opts...)
	} else {
		artifact, err = lossy.GenerateInt(e.keys, e.ints, opts...)
	}
	if err != nil {
		return err
	}
	return succinct.WriteFile(out, artifact, succinct.WithCompression(c), succinct.WithLogger(logger))
}

// getter answers lookups for either payload type.
type getter func(key string) (string, bool)

func openGetter(logger *slog.Logger, path string) (getter, error) {
	m, err := succinct.Open(path, succinct.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	switch m.Kind() {
	case succinct.KindLossyFloat:
		l, err := m.LossyFloat()
		if err != nil {
			return nil, err
		}
		return func(k string) (string, bool) {
			v, ok := l.Lookup(k)
			return fmt.Sprint(v), ok
		}, nil
	default:
		l, err := m.LossyInt()
		if err != nil {
			return nil, err
		}
		return func(k string) (string, bool) {
			v, ok := l.Lookup(k)
			return fmt.Sprint(v), ok
		}, nil
	}
}

func runGet(logger *slog.Logger, model string, keys []string, stdin io.Reader, stdout io.Writer) error {
	if model == "" {
		return fmt.Errorf("-model is required")
	}
	get, err := openGetter(logger, model)
	if err != nil {
		return err
	}
	norm := newNormalizer()
	w := bufio.NewWriter(stdout)
	defer w.Flush()

	emit := func(raw string) {
		k := norm.key(raw)
		if v, ok := get(k); ok {
			fmt.Fprintf(w, "%s\t%s\n", k, v)
		} else {
			fmt.Fprintf(w, "%s\t-\n", k)
		}
	}
	if len(keys) > 0 {
		for _, k := range keys {
			emit(k)
		}
		return nil
	}
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			emit(sc.Text())
		}
	}
	return sc.Err()
}

func runStat(logger *slog.Logger, model string, stdout io.Writer) error {
	if model == "" {
		return fmt.Errorf("-model is required")
	}
	st, err := succinct.Stat(model, succinct.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "kind\t%s\n", st.Kind)
	fmt.Fprintf(stdout, "items\t%d\n", st.Items)
	fmt.Fprintf(stdout, "compression\t%s\n", st.Compression)
	fmt.Fprintf(stdout, "raw_bytes\t%d\n", st.RawBytes)
	fmt.Fprintf(stdout, "stored_bytes\t%d\n", st.StoredBytes)
	fmt.Fprintf(stdout, "file_bytes\t%d\n", st.FileBytes)
	fmt.Fprintf(stdout, "memory_bytes\t%d\n", st.MemoryBytes)
	fmt.Fprintf(stdout, "bits_per_item\t%.3f\n", st.BitsPerItem)
	return nil
}
