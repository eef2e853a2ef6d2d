//go:build unix

package sysmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Reserve maps size bytes of zeroed anonymous memory from the system.
func Reserve(size int64) ([]byte, error) {
	if size > int64(^uint(0)>>1) {
		return nil, fmt.Errorf("sysmem: region too large to map (%d bytes)", size)
	}
	return unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// Release returns a region obtained from Reserve to the system.
func Release(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Munmap(data)
}
