package slab

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/joshuapare/slabheap/internal/layout"
	"github.com/joshuapare/slabheap/internal/sysmem"
)

var pagesize = int64(os.Getpagesize())

// oversizedBlock records one direct system allocation. mem is the whole
// page-rounded mapping; size is what the caller asked for.
type oversizedBlock struct {
	mem  []byte
	size int64
}

// allocOversized maps a dedicated page-rounded region for a request
// above the class ceiling: one system round trip in, one back out on
// free. These regions live outside the arenas and outside the capacity
// accounting, so freeing them is the one way resident memory shrinks
// before Close.
func (al *Allocator) allocOversized(size int64) ([]byte, error) {
	mem, err := sysmem.Reserve(layout.AlignUp(size, pagesize))
	if err != nil {
		al.stats.failures++
		errorf("%v oversized %v: %v\n", al.logprefix, size, err)
		return nil, fmt.Errorf("%w: mapping %d byte oversized block: %v", ErrOutOfMemory, size, err)
	}
	addr := uintptr(unsafe.Pointer(&mem[0]))
	al.oversized[addr] = oversizedBlock{mem: mem, size: size}
	al.stats.oversizedAllocs++
	debugf("%v oversized %v mapped at %#x\n", al.logprefix, size, addr)
	return mem[:size:size], nil
}

// freeOversized releases the registered block at addr. The caller has
// already checked membership under the lock.
func (al *Allocator) freeOversized(addr uintptr) error {
	ob := al.oversized[addr]
	delete(al.oversized, addr)
	al.stats.oversizedFrees++
	return sysmem.Release(ob.mem)
}
