package slab

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"
)

// coreStats are cumulative counters, guarded by the allocator mutex.
type coreStats struct {
	allocs          uint64
	frees           uint64
	oversizedAllocs uint64
	oversizedFrees  uint64
	invalidFrees    uint64
	failures        uint64
	rebinds         uint64
}

// ClassStats describes one size class's pools at snapshot time.
type ClassStats struct {
	BlockSize   int64
	UsablePools int
	FullPools   int
	LiveBlocks  int64
	FreeBlocks  int64 // blocks servable without touching a new pool
}

// Stats is a point-in-time snapshot of one allocator instance.
type Stats struct {
	Arenas      int
	HeapBytes   int64 // bytes mapped for arenas, monotonic until Close
	BoundPools  int
	SparePools  int
	VirginPools int
	LiveBlocks  int64
	LiveBytes   int64 // live blocks at their block size
	Classes     []ClassStats

	OversizedBlocks int
	OversizedBytes  int64 // caller-requested bytes of live oversized blocks

	Allocs          uint64
	Frees           uint64
	OversizedAllocs uint64
	OversizedFrees  uint64
	InvalidFrees    uint64
	Failures        uint64
	Rebinds         uint64
}

// Stats returns a consistent snapshot of the instance. After Close the
// live-state fields read zero while the cumulative counters remain.
func (al *Allocator) Stats() Stats {
	al.mu.Lock()
	defer al.mu.Unlock()

	st := Stats{
		Allocs:          al.stats.allocs,
		Frees:           al.stats.frees,
		OversizedAllocs: al.stats.oversizedAllocs,
		OversizedFrees:  al.stats.oversizedFrees,
		InvalidFrees:    al.stats.invalidFrees,
		Failures:        al.stats.failures,
		Rebinds:         al.stats.rebinds,
	}
	if al.closed {
		return st
	}

	st.Arenas = len(al.arenas)
	st.HeapBytes = al.heap
	st.Classes = make([]ClassStats, al.table.numClasses())
	for c := range st.Classes {
		cs := &st.Classes[c]
		cs.BlockSize = al.table.blockSize(c)
		for p := al.usable[c].head; p != nil; p = p.next {
			cs.UsablePools++
			cs.LiveBlocks += p.used
			cs.FreeBlocks += p.capacity - p.used
		}
		for p := al.full[c].head; p != nil; p = p.next {
			cs.FullPools++
			cs.LiveBlocks += p.used
		}
		st.BoundPools += cs.UsablePools + cs.FullPools
		st.LiveBlocks += cs.LiveBlocks
		st.LiveBytes += cs.LiveBlocks * cs.BlockSize
	}
	st.SparePools = al.spare.n
	for _, a := range al.arenas {
		st.VirginPools += len(a.pools) - a.virgin
	}
	for _, ob := range al.oversized {
		st.OversizedBlocks++
		st.OversizedBytes += ob.size
	}
	return st
}

// String renders the snapshot as a short multi-line report.
func (st Stats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "heap %v in %v arenas, live %v in %v blocks\n",
		humanize.IBytes(uint64(st.HeapBytes)), st.Arenas,
		humanize.IBytes(uint64(st.LiveBytes)), st.LiveBlocks)
	fmt.Fprintf(&sb, "pools: %v bound, %v spare, %v virgin\n",
		st.BoundPools, st.SparePools, st.VirginPools)
	fmt.Fprintf(&sb, "oversized: %v blocks holding %v\n",
		st.OversizedBlocks, humanize.IBytes(uint64(st.OversizedBytes)))
	fmt.Fprintf(&sb, "allocs %v frees %v (oversized %v/%v) invalid %v failures %v rebinds %v",
		humanize.Comma(int64(st.Allocs)), humanize.Comma(int64(st.Frees)),
		st.OversizedAllocs, st.OversizedFrees,
		st.InvalidFrees, st.Failures, st.Rebinds)
	return sb.String()
}
