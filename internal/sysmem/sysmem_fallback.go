//go:build !unix && !windows

// Package sysmem acquires anonymous page-backed regions from the operating system.
package sysmem

// Reserve allocates size bytes from the Go heap when no mapping syscall is available.
func Reserve(size int64) ([]byte, error) {
	return make([]byte, size), nil
}

// Release drops the region for the garbage collector to reclaim.
func Release(data []byte) error {
	return nil
}
