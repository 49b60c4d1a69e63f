//go:build linux

package succinct

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for file and sets its length. Filesystems
// without fallocate support (NFS, tmpfs on old kernels) only get the length.
func fallocateFile(file *os.File, size int64) error {
	fd := int(file.Fd())
	if err := unix.Fallocate(fd, 0, 0, size); err != nil {
		return unix.Ftruncate(fd, size)
	}
	return unix.Ftruncate(fd, size)
}
