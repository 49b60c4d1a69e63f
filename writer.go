package succinct

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
)

// fileWriter places a model file image on disk through a writable mapping.
// The image is written to a temporary file in the destination directory and
// renamed over the destination once flushed, so readers never observe a
// partially written model.
type fileWriter struct {
	file *os.File
	mmap mmap.MMap
	data []byte
}

// newFileWriter creates a temporary file next to path, preallocates size
// bytes and maps it for writing.
func newFileWriter(path string, size int) (*fileWriter, error) {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp model file: %w", err)
	}
	fw := &fileWriter{file: file}

	// Reserve disk blocks up front so a full disk fails here rather than as
	// SIGBUS on a mapped write.
	if err := fallocateFile(file, int64(size)); err != nil {
		primaryErr := fmt.Errorf("allocate disk space: %w", err)
		return nil, errors.Join(primaryErr, fw.abort())
	}

	mm, err := mmap.MapRegion(file, size, mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap model file: %w", err)
		return nil, errors.Join(primaryErr, fw.abort())
	}
	fw.mmap = mm
	fw.data = []byte(mm)
	prefaultRegion(fw.data)
	return fw, nil
}

// commit flushes the mapping, closes the temporary file and renames it to
// path. On error the temporary file is removed.
func (fw *fileWriter) commit(path string) error {
	if err := fw.mmap.Flush(); err != nil {
		primaryErr := fmt.Errorf("mmap flush failed: %w", err)
		return errors.Join(primaryErr, fw.abort())
	}
	unmapErr := fw.mmap.Unmap()
	fw.mmap = nil
	if unmapErr != nil {
		primaryErr := fmt.Errorf("mmap unmap failed: %w", unmapErr)
		return errors.Join(primaryErr, fw.abort())
	}
	if err := fw.file.Sync(); err != nil {
		primaryErr := fmt.Errorf("sync model file: %w", err)
		return errors.Join(primaryErr, fw.abort())
	}

	name := fw.file.Name()
	closeErr := fw.file.Close()
	fw.file = nil
	if closeErr != nil {
		return errors.Join(fmt.Errorf("close model file: %w", closeErr), os.Remove(name))
	}
	if err := os.Rename(name, path); err != nil {
		return errors.Join(fmt.Errorf("rename model file: %w", err), os.Remove(name))
	}
	return nil
}

// abort unmaps, closes and removes the temporary file.
// Idempotent: safe to call multiple times.
func (fw *fileWriter) abort() error {
	var unmapErr error
	if fw.mmap != nil {
		unmapErr = fw.mmap.Unmap()
		fw.mmap = nil
	}
	var closeErr, removeErr error
	if fw.file != nil {
		name := fw.file.Name()
		closeErr = fw.file.Close()
		removeErr = os.Remove(name)
		fw.file = nil
	}
	return errors.Join(unmapErr, closeErr, removeErr)
}

// WriteFile stores v as a model file at path, replacing any existing file.
// v must be a *bitvec.Vector, *dense.Sequence, *mphf.MPHF, *lossy.IntLookup
// or *lossy.FloatLookup.
func WriteFile(path string, v any, opts ...Option) error {
	cfg := newConfig(opts)
	enc, err := encodeArtifact(v, cfg)
	if err != nil {
		return err
	}

	fw, err := newFileWriter(path, enc.size())
	if err != nil {
		return err
	}
	enc.writeInto(fw.data)
	if err := fw.commit(path); err != nil {
		return err
	}

	cfg.logger.Info("model written",
		"path", path,
		"kind", enc.hdr.Kind,
		"items", enc.hdr.ItemCount,
		"compression", enc.hdr.Compression,
		"bytes", enc.size())
	return nil
}
