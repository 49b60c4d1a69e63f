package succinct

import (
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	serrors "github.com/nlptr/succinct/errors"
)

// Open loads the model file at path. The file is memory-mapped for the
// duration of the load only; the returned Model owns its memory.
func Open(path string, opts ...Option) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer file.Close()
	return OpenFile(file, opts...)
}

// OpenFile loads a model by memory-mapping f. The caller is responsible for
// closing f.
func OpenFile(f *os.File, opts ...Option) (*Model, error) {
	cfg := newConfig(opts)

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat model file: %w", err)
	}
	fileSize := stat.Size()
	if fileSize < headerSize+footerSize {
		return nil, serrors.ErrTruncated
	}

	// The whole file is read front to back exactly once.
	fadviseSequential(int(f.Fd()), 0, fileSize)
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap model file: %w", err)
	}
	adviseSequential(mm)

	m, err := decode(mm, cfg)
	if err != nil {
		return nil, errors.Join(err, mm.Unmap())
	}
	if err := mm.Unmap(); err != nil {
		return nil, fmt.Errorf("mmap unmap failed: %w", err)
	}

	cfg.logger.Info("model loaded",
		"path", f.Name(),
		"kind", m.kind,
		"items", m.stats.Items,
		"compression", m.stats.Compression,
		"bytes", fileSize)
	return m, nil
}

// Stat returns the statistics of the model file at path.
func Stat(path string, opts ...Option) (Stats, error) {
	m, err := Open(path, opts...)
	if err != nil {
		return Stats{}, err
	}
	return m.Stats(), nil
}
