//go:build windows

package sysmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Reserve commits size bytes of zeroed pages from the system.
func Reserve(size int64) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// Release returns a region obtained from Reserve to the system.
func Release(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return windows.VirtualFree(uintptr(unsafe.Pointer(&data[0])), 0, windows.MEM_RELEASE)
}
