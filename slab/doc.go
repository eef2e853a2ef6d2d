// Package slab implements a slab allocator for small objects: byte
// blocks are served from size-class pools carved out of large regions
// mapped once from the operating system, so steady-state allocation and
// deallocation touch no system calls at all.
//
// # Overview
//
// An Allocator instance owns a set of arenas. Each arena is one mapped
// region tiled exactly by fixed-size pools, and each pool holds blocks
// of a single size class at a time. Allocation classifies the request
// size, pops a block off the class's current pool, and returns it as a
// byte slice; deallocation resolves the address back to its pool and
// pushes the block on the pool's free chain. Both are O(1) apart from a
// binary search over the arenas on free.
//
// # Size Classes
//
// Classes are generated in two phases from the instance settings: linear
// steps of "granularity" up to "smallmax", then 5/4 geometric growth on
// 128-byte multiples up to "maxblock". With the defaults (16/512/8192)
// that yields 44 classes:
//
//	16, 32, 48 ... 512,
//	640, 896, 1152, 1536, 1920, 2432, 3072, 3840, 4864, 6144, 7680, 8192
//
// A request always lands in the smallest class whose block size holds
// it. Requests above "maxblock" bypass the pools entirely and map a
// dedicated region, released again on Free.
//
// # Memory Policy
//
// Arena memory is never returned to the operating system while the
// instance lives. Pools that drain empty park on a spare list and are
// reassigned, possibly to a different class, before any new arena is
// mapped. Resident memory therefore grows monotonically to the
// workload's high-water mark, with oversized blocks the only exception,
// and Close the only teardown.
//
// # Usage Example
//
//	al, err := slab.New("cache", s.Settings{"capacity": int64(64 * 1024 * 1024)})
//	if err != nil {
//	    return err
//	}
//	defer al.Close()
//
//	buf, err := al.Alloc(37)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	// Later, hand the block back.
//	err = al.Free(buf)
//
// # Thread Safety
//
// All Allocator methods are safe for concurrent use. One mutex
// serializes the instance; there is no per-class sharding.
//
// # Related Packages
//
//   - github.com/joshuapare/slabheap/internal/layout: alignment and free-chain encoding
//   - github.com/joshuapare/slabheap/internal/sysmem: platform memory acquisition
package slab
