package slab

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"

	s "github.com/bnclabs/gosettings"

	"github.com/joshuapare/slabheap/internal/sysmem"
)

// debugChecks turns on internal invariant verification. Compile-time
// constant so the checks vanish from release builds.
const debugChecks = false

// Allocator is one independent slab allocator instance. Blocks up to the
// configured maxblock are served from size-class pools carved out of
// large mapped arenas; bigger requests pass straight through to the
// operating system. All methods are safe for concurrent use; a single
// mutex serializes every operation.
type Allocator struct {
	mu        sync.Mutex
	name      string
	logprefix string
	cfg       config
	table     *classTable

	// arenas stays sorted by base address; Free resolves pointers with a
	// binary search over it.
	arenas []*arena

	usable []poolList // per class: bound pools with at least one free block
	full   []poolList // per class: bound pools with every block live
	spare  poolList   // empty pools any class may claim

	oversized map[uintptr]oversizedBlock

	nextArenaID int
	heap        int64 // bytes mapped for arenas, never shrinks
	stats       coreStats
	closed      bool
}

// New creates an allocator instance. Settings missing from setts fall
// back to Defaultsettings. No memory is mapped until the first
// allocation that needs an arena.
func New(name string, setts s.Settings) (*Allocator, error) {
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	cfg, err := makeconfig(setts)
	if err != nil {
		return nil, fmt.Errorf("slab: %q settings: %v", name, err)
	}
	table, err := buildClassTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("slab: %q settings: %v", name, err)
	}
	al := &Allocator{
		name:      name,
		logprefix: fmt.Sprintf("slab [%s]", name),
		cfg:       cfg,
		table:     table,
		usable:    make([]poolList, table.numClasses()),
		full:      make([]poolList, table.numClasses()),
		oversized: make(map[uintptr]oversizedBlock),
	}
	infof("%v started with %v classes, pool %v, arena %v, capacity %v\n",
		al.logprefix, table.numClasses(), cfg.poolsize, cfg.arenasize, cfg.capacity)
	return al, nil
}

// Alloc returns a zeroed-or-dirty byte slice of exactly size bytes; the
// contents of a recycled block are whatever the previous owner left
// behind. The slice's capacity is clipped to the block, so an append
// that outgrows it reallocates on the Go heap instead of trampling the
// neighbouring block.
func (al *Allocator) Alloc(size int64) ([]byte, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}
	al.mu.Lock()
	defer al.mu.Unlock()
	if al.closed {
		return nil, ErrClosed
	}

	class, oversized := al.table.classify(size)
	if oversized {
		return al.allocOversized(size)
	}

	p := al.usable[class].head
	if p == nil {
		var err error
		if p, err = al.claimPool(class); err != nil {
			al.stats.failures++
			return nil, err
		}
	}
	off := p.base + p.take()
	if p.full() {
		al.usable[class].remove(p)
		al.full[class].push(p)
	}
	al.stats.allocs++
	if debugChecks && al.stats.allocs%16384 == 0 {
		al.verify()
	}
	return p.arena.mem[off : off+size : off+p.blocksize], nil
}

// Free returns a block obtained from Alloc. buf must be the slice Alloc
// returned, or at least start at the same address. Foreign pointers,
// interior pointers, and blocks already free fail with ErrInvalidFree
// and mutate nothing.
func (al *Allocator) Free(buf []byte) error {
	if len(buf) == 0 {
		return ErrInvalidFree
	}
	al.mu.Lock()
	defer al.mu.Unlock()
	if al.closed {
		return ErrClosed
	}

	addr := uintptr(unsafe.Pointer(&buf[0]))
	if _, ok := al.oversized[addr]; ok {
		return al.freeOversized(addr)
	}
	a := al.findArena(addr)
	if a == nil {
		al.stats.invalidFrees++
		warnf("%v free of foreign pointer %#x\n", al.logprefix, addr)
		return ErrInvalidFree
	}
	p, off := a.poolAt(addr)
	if err := p.give(off); err != nil {
		al.stats.invalidFrees++
		warnf("%v free of %#x rejected\n", al.logprefix, addr)
		return err
	}
	if p.used == p.capacity-1 {
		// Full pool regained a block.
		al.full[p.class].remove(p)
		al.usable[p.class].push(p)
	}
	if p.empty() {
		// Drained pools wait on the spare list for any class to claim
		// them; their storage is never handed back to the system.
		al.usable[p.class].remove(p)
		al.spare.push(p)
	}
	al.stats.frees++
	if debugChecks {
		al.verify()
	}
	return nil
}

// claimPool finds a pool for a class with no usable pool: a spare pool
// first, else a virgin pool from an existing arena, else a pool from a
// freshly mapped arena. The claimed pool joins the class's usable list.
//
// A spare pool still bound to the same class keeps its intact free
// chain; one bound to a different class is rebound, which resets it.
func (al *Allocator) claimPool(class int) (*pool, error) {
	p := al.spare.pop()
	if p != nil {
		if p.class != class {
			al.stats.rebinds++
			debugf("%v pool %v@%v rebound %v -> %v\n",
				al.logprefix, p.arena.id, p.base, p.class, class)
			p.bind(class, al.table.blockSize(class))
		}
		al.usable[class].push(p)
		return p, nil
	}
	for i := len(al.arenas) - 1; i >= 0; i-- {
		if p = al.arenas[i].takeVirgin(); p != nil {
			p.bind(class, al.table.blockSize(class))
			al.usable[class].push(p)
			return p, nil
		}
	}
	a, err := al.addArena()
	if err != nil {
		return nil, err
	}
	p = a.takeVirgin()
	p.bind(class, al.table.blockSize(class))
	al.usable[class].push(p)
	return p, nil
}

// addArena maps one more arena, keeping the arena slice ordered by base
// address. Fails with ErrOutOfMemory when the configured capacity would
// be crossed or the system refuses the mapping.
func (al *Allocator) addArena() (*arena, error) {
	if al.heap+al.cfg.arenasize > al.cfg.capacity {
		errorf("%v capacity %v exhausted, %v already mapped\n",
			al.logprefix, al.cfg.capacity, al.heap)
		return nil, fmt.Errorf("%w: capacity %d reached", ErrOutOfMemory, al.cfg.capacity)
	}
	a, err := mapArena(al.nextArenaID, al.cfg.arenasize, al.cfg.poolsize)
	if err != nil {
		errorf("%v %v\n", al.logprefix, err)
		return nil, err
	}
	al.nextArenaID++
	al.heap += al.cfg.arenasize
	i := sort.Search(len(al.arenas), func(i int) bool { return al.arenas[i].base > a.base })
	al.arenas = append(al.arenas, nil)
	copy(al.arenas[i+1:], al.arenas[i:])
	al.arenas[i] = a
	infof("%v arena %v mapped, heap now %v\n", al.logprefix, a.id, al.heap)
	return a, nil
}

// findArena resolves an address to its owning arena, nil for foreign
// addresses. Binary search over the address-ordered arena slice.
func (al *Allocator) findArena(addr uintptr) *arena {
	i := sort.Search(len(al.arenas), func(i int) bool {
		a := al.arenas[i]
		return addr < a.base+uintptr(len(a.mem))
	})
	if i == len(al.arenas) || !al.arenas[i].contains(addr) {
		return nil
	}
	return al.arenas[i]
}

// Close unmaps every arena and outstanding oversized block and poisons
// the instance; all later calls fail with ErrClosed. Any block still
// live points into released memory afterwards.
func (al *Allocator) Close() error {
	al.mu.Lock()
	defer al.mu.Unlock()
	if al.closed {
		return ErrClosed
	}
	var firsterr error
	for _, a := range al.arenas {
		if err := a.release(); err != nil && firsterr == nil {
			firsterr = err
		}
	}
	for addr, ob := range al.oversized {
		if err := sysmem.Release(ob.mem); err != nil && firsterr == nil {
			firsterr = err
		}
		delete(al.oversized, addr)
	}
	infof("%v closed after %v allocs, %v frees\n",
		al.logprefix, al.stats.allocs+al.stats.oversizedAllocs,
		al.stats.frees+al.stats.oversizedFrees)
	al.arenas, al.usable, al.full = nil, nil, nil
	al.spare = poolList{}
	al.closed = true
	return firsterr
}

// Name returns the instance name given to New.
func (al *Allocator) Name() string {
	return al.name
}

// verify cross-checks list membership and block accounting. Only wired
// in when debugChecks is set.
func (al *Allocator) verify() {
	for c := range al.usable {
		for p := al.usable[c].head; p != nil; p = p.next {
			if p.class != c || p.full() || p.empty() {
				panic(fmt.Errorf("%v usable list corrupt: class %v pool %v/%v",
					al.logprefix, c, p.arena.id, p.base))
			}
			if p.liveBlocks() != p.used {
				panic(fmt.Errorf("%v pool %v/%v bitmap/used mismatch",
					al.logprefix, p.arena.id, p.base))
			}
		}
		for p := al.full[c].head; p != nil; p = p.next {
			if p.class != c || !p.full() {
				panic(fmt.Errorf("%v full list corrupt: class %v pool %v/%v",
					al.logprefix, c, p.arena.id, p.base))
			}
		}
	}
	for p := al.spare.head; p != nil; p = p.next {
		if !p.empty() {
			panic(fmt.Errorf("%v spare list holds a live pool %v/%v",
				al.logprefix, p.arena.id, p.base))
		}
	}
}
