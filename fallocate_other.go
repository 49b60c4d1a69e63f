//go:build !linux && !darwin

package succinct

import "os"

// fallocateFile sets the length of file. Blocks may be allocated lazily.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
