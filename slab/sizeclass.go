package slab

import (
	"fmt"

	"github.com/joshuapare/slabheap/internal/layout"
)

// classNone marks a pool that is not bound to any size class.
const classNone = -1

// classTable is the static mapping from a request size to a size class.
// Built once from the validated configuration, immutable afterwards.
//
// Classes come in two phases. The linear phase steps by granularity up to
// smallmax, so tiny objects waste at most granularity-1 bytes. The
// geometric phase grows block sizes by 5/4, rounded up to largeQuantum,
// until the ceiling; the ceiling itself is always the last class.
type classTable struct {
	granularity int64
	smallmax    int64
	ceiling     int64

	// sizes[c] is the block size of class c, strictly increasing.
	sizes []int64

	// largeIdx[ceilDiv(size, largeQuantum)] is the class for sizes in
	// (smallmax, ceiling]. Linear-phase sizes do not need a table: their
	// class is a granularity division. Nil when the geometric phase is
	// empty (smallmax == ceiling).
	largeIdx []uint8
}

func buildClassTable(cfg config) (*classTable, error) {
	t := &classTable{
		granularity: cfg.granularity,
		smallmax:    cfg.smallmax,
		ceiling:     cfg.maxblock,
		sizes:       make([]int64, 0, 64),
	}

	// Phase 1: linear steps of granularity.
	for size := t.granularity; size <= t.smallmax; size += t.granularity {
		t.sizes = append(t.sizes, size)
	}

	// Phase 2: geometric growth on largeQuantum multiples.
	for size := t.smallmax; size < t.ceiling; {
		next := layout.AlignUp(size*stepNum/stepDen, largeQuantum)
		if next > t.ceiling {
			next = t.ceiling
		}
		t.sizes = append(t.sizes, next)
		size = next
	}

	if len(t.sizes) > 255 {
		return nil, fmt.Errorf("%v size classes exceed the lookup table range", len(t.sizes))
	}

	nsmall := int(t.smallmax / t.granularity)
	if nsmall < len(t.sizes) {
		t.largeIdx = make([]uint8, t.ceiling/largeQuantum+1)
		prev := t.smallmax
		for c := nsmall; c < len(t.sizes); c++ {
			size := t.sizes[c]
			for slot := prev/largeQuantum + 1; slot <= size/largeQuantum; slot++ {
				t.largeIdx[slot] = uint8(c)
			}
			prev = size
		}
	}
	return t, nil
}

// classify maps a size in [1, ceiling] to the smallest class whose block
// size holds it. Sizes above the ceiling are oversized and belong to no
// class. The caller screens out non-positive sizes.
func (t *classTable) classify(size int64) (class int, oversized bool) {
	if size > t.ceiling {
		return classNone, true
	}
	if size <= t.smallmax {
		return int((size+t.granularity-1)/t.granularity) - 1, false
	}
	return int(t.largeIdx[(size+largeQuantum-1)/largeQuantum]), false
}

// blockSize returns the block size of a class.
func (t *classTable) blockSize(class int) int64 {
	return t.sizes[class]
}

// numClasses returns the number of size classes.
func (t *classTable) numClasses() int {
	return len(t.sizes)
}
