package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// entries holds a parsed vocabulary. Exactly one of ints and floats is set.
type entries struct {
	keys   []string
	ints   []int32
	floats []float32
}

// readTSV parses "key<TAB>value" lines. Blank lines and lines starting with
// '#' are skipped. Keys are normalized; a key that normalizes to one already
// seen keeps its first value.
func readTSV(r io.Reader, floats bool, norm *normalizer, logger *slog.Logger) (*entries, error) {
	e := &entries{}
	seen := make(map[string]int)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rawKey, rawValue, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: want key<TAB>value", line)
		}
		key := norm.key(rawKey)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", line)
		}
		if first, dup := seen[key]; dup {
			logger.Warn("duplicate key after normalization, keeping first", "key", key, "line", line, "first_line", first)
			continue
		}
		seen[key] = line

		rawValue = strings.TrimSpace(rawValue)
		if floats {
			v, err := strconv.ParseFloat(rawValue, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			e.floats = append(e.floats, float32(v))
		} else {
			v, err := strconv.ParseInt(rawValue, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			e.ints = append(e.ints, int32(v))
		}
		e.keys = append(e.keys, key)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return e, nil
}
