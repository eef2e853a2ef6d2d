package slab

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/slabheap/internal/sysmem"
)

// arena is one region obtained from the operating system, tiled exactly
// by pools: the configuration forces arenasize to be a multiple of
// poolsize, so the pools cover the region with no overlap and no gap.
// The region stays mapped for the allocator's whole lifetime; only Close
// releases it.
type arena struct {
	id       int
	mem      []byte  // mapped region
	base     uintptr // address of mem[0]
	poolsize int64
	pools    []pool
	virgin   int // index of the next never-bound pool
}

// mapArena obtains one region from the system and carves its pool
// descriptors. A mapping failure surfaces as ErrOutOfMemory with the
// system error attached.
func mapArena(id int, arenasize, poolsize int64) (*arena, error) {
	mem, err := sysmem.Reserve(arenasize)
	if err != nil {
		return nil, fmt.Errorf("%w: mapping %d byte arena: %v", ErrOutOfMemory, arenasize, err)
	}
	a := &arena{
		id:       id,
		mem:      mem,
		base:     uintptr(unsafe.Pointer(&mem[0])),
		poolsize: poolsize,
		pools:    make([]pool, arenasize/poolsize),
	}
	for i := range a.pools {
		a.pools[i] = pool{arena: a, base: int64(i) * poolsize, size: poolsize, class: classNone}
	}
	return a, nil
}

// takeVirgin returns the next never-bound pool, nil once the arena has
// been fully carved.
func (a *arena) takeVirgin() *pool {
	if a.virgin == len(a.pools) {
		return nil
	}
	p := &a.pools[a.virgin]
	a.virgin++
	return p
}

// contains reports whether addr falls inside the mapped region.
func (a *arena) contains(addr uintptr) bool {
	return addr >= a.base && addr < a.base+uintptr(len(a.mem))
}

// poolAt resolves an address inside the region to its pool and the
// pool-relative byte offset. The caller has checked contains.
func (a *arena) poolAt(addr uintptr) (*pool, int64) {
	off := int64(addr - a.base)
	return &a.pools[off/a.poolsize], off % a.poolsize
}

// release unmaps the region. Only instance teardown calls this; the
// allocation lifecycle never hands arena memory back to the system.
func (a *arena) release() error {
	err := sysmem.Release(a.mem)
	a.mem, a.pools = nil, nil
	return err
}
