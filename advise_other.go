//go:build !linux

package succinct

// Kernel access hints are Linux-specific; elsewhere these are no-ops.

func prefaultRegion(data []byte) {}

func adviseSequential(data []byte) {}

func fadviseSequential(fd int, offset, length int64) {}
