package slab

import (
	"math/bits"

	"github.com/joshuapare/slabheap/internal/layout"
)

// freeNone terminates a pool's freed-block chain.
const freeNone = ^uint32(0)

// pool is a fixed-size region inside an arena, subdivided into blocks of a
// single size class at a time. Pool metadata lives here; block storage
// lives in the arena's mapped memory. While a block is free, its first
// four bytes hold the pool-relative offset of the next free block, so the
// freed-block chain costs no memory beyond the blocks themselves. The
// configuration keeps poolsize below 4GB, so any offset fits those four
// bytes.
//
// A pool moves through bindings over its lifetime: virgin (never bound),
// bound to a class and filling up, full, draining, and empty again. An
// empty pool keeps its binding until the allocator reassigns it to a
// different class. Methods are not thread safe; the allocator serializes.
type pool struct {
	arena *arena // owning region
	base  int64  // byte offset of this pool inside the arena
	size  int64  // pool bytes, fixed at arena creation

	class     int   // bound size class, classNone until first bind
	blocksize int64 // block size of the bound class
	capacity  int64 // blocks this pool holds at blocksize
	used      int64 // live blocks

	carve    int64  // virgin bytes handed out so far
	freeHead uint32 // head of the freed-block chain, freeNone when empty

	// bitmap holds one bit per block, set while the block is live. It is
	// what turns a bad free (double free, never-allocated offset) into
	// ErrInvalidFree instead of silent chain corruption.
	bitmap []uint64

	next, prev *pool // links for the usable/full/spare lists
}

// storage returns the pool's slice of the arena region.
func (p *pool) storage() []byte {
	return p.arena.mem[p.base : p.base+p.size]
}

// bind associates the pool with a size class, resetting all block
// accounting. Rebinding discards the previous class's free chain; the
// caller must only rebind empty pools.
func (p *pool) bind(class int, blocksize int64) {
	p.class, p.blocksize = class, blocksize
	p.capacity = p.size / blocksize
	p.used, p.carve = 0, 0
	p.freeHead = freeNone
	nwords := int((p.capacity + 63) / 64)
	if cap(p.bitmap) < nwords {
		p.bitmap = make([]uint64, nwords)
	} else {
		p.bitmap = p.bitmap[:nwords]
		for i := range p.bitmap {
			p.bitmap[i] = 0
		}
	}
}

func (p *pool) full() bool  { return p.used == p.capacity }
func (p *pool) empty() bool { return p.used == 0 }

// take hands out one block and returns its pool-relative offset. Freed
// blocks are reused before virgin space is carved. The caller guarantees
// the pool is bound and not full.
func (p *pool) take() int64 {
	var off int64
	if p.freeHead != freeNone {
		off = int64(p.freeHead)
		p.freeHead = layout.ReadU32(p.storage(), off)
	} else {
		// Chain empty implies every carved block is live, so there is
		// virgin space left in a non-full pool.
		off = p.carve
		p.carve += p.blocksize
	}
	p.setLive(off / p.blocksize)
	p.used++
	return off
}

// give returns the block at off to the pool. A misaligned offset, an
// offset in space never carved (virgin or tail remainder), or a block
// that is not live fails with ErrInvalidFree and mutates nothing.
func (p *pool) give(off int64) error {
	if p.class == classNone {
		return ErrInvalidFree
	}
	if off%p.blocksize != 0 || off >= p.carve {
		return ErrInvalidFree
	}
	idx := off / p.blocksize
	if !p.isLive(idx) {
		return ErrInvalidFree
	}
	p.clearLive(idx)
	layout.PutU32(p.storage(), off, p.freeHead)
	p.freeHead = uint32(off)
	p.used--
	return nil
}

func (p *pool) isLive(idx int64) bool {
	return p.bitmap[idx>>6]&(uint64(1)<<(idx&63)) != 0
}

func (p *pool) setLive(idx int64) {
	p.bitmap[idx>>6] |= uint64(1) << (idx & 63)
}

func (p *pool) clearLive(idx int64) {
	p.bitmap[idx>>6] &^= uint64(1) << (idx & 63)
}

// liveBlocks counts set bitmap bits. Debug-check use only; the hot path
// tracks used incrementally.
func (p *pool) liveBlocks() int64 {
	n := 0
	for _, w := range p.bitmap {
		n += bits.OnesCount64(w)
	}
	return int64(n)
}

// poolList is an intrusive doubly-linked list of pools. The zero value is
// an empty list. A pool is on at most one list at a time.
type poolList struct {
	head *pool
	n    int
}

func (l *poolList) push(p *pool) {
	p.prev, p.next = nil, l.head
	if l.head != nil {
		l.head.prev = p
	}
	l.head = p
	l.n++
}

func (l *poolList) remove(p *pool) {
	if p.prev != nil {
		p.prev.next = p.next
	} else {
		l.head = p.next
	}
	if p.next != nil {
		p.next.prev = p.prev
	}
	p.next, p.prev = nil, nil
	l.n--
}

func (l *poolList) pop() *pool {
	p := l.head
	if p != nil {
		l.remove(p)
	}
	return p
}
