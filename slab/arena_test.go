package slab

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// Test_ArenaTiling verifies that pools exactly tile the mapped region:
// consecutive bases, no overlap, no gap, and a bounded virgin supply.
func Test_ArenaTiling(t *testing.T) {
	a, err := mapArena(7, 16384, 4096)
	require.NoError(t, err)
	defer a.release()

	require.Equal(t, 7, a.id)
	require.Len(t, a.pools, 4)
	for i, p := range a.pools {
		require.Equal(t, int64(i)*4096, p.base)
		require.Equal(t, int64(4096), p.size)
		require.Equal(t, classNone, p.class)
		require.Same(t, a, p.arena)
	}

	for i := 0; i < 4; i++ {
		p := a.takeVirgin()
		require.Same(t, &a.pools[i], p)
	}
	require.Nil(t, a.takeVirgin(), "virgin pools must run out at the tile count")
}

// Test_ArenaAddressResolution checks contains and poolAt across the
// whole region and just outside it.
func Test_ArenaAddressResolution(t *testing.T) {
	a, err := mapArena(0, 16384, 4096)
	require.NoError(t, err)
	defer a.release()

	require.True(t, a.contains(a.base))
	require.True(t, a.contains(a.base+16383))
	require.False(t, a.contains(a.base+16384))
	require.False(t, a.contains(a.base-1))

	p, off := a.poolAt(a.base)
	require.Same(t, &a.pools[0], p)
	require.Equal(t, int64(0), off)

	p, off = a.poolAt(a.base + 4096)
	require.Same(t, &a.pools[1], p)
	require.Equal(t, int64(0), off)

	p, off = a.poolAt(a.base + 3*4096 + 100)
	require.Same(t, &a.pools[3], p)
	require.Equal(t, int64(100), off)
}

// Test_ArenaStorageIsUsable writes through a pool's storage slice and
// reads it back at the arena level.
func Test_ArenaStorageIsUsable(t *testing.T) {
	a, err := mapArena(0, 8192, 4096)
	require.NoError(t, err)
	defer a.release()

	p := &a.pools[1]
	st := p.storage()
	require.Len(t, st, 4096)
	require.Equal(t, uintptr(unsafe.Pointer(&st[0])), a.base+4096)

	st[0], st[4095] = 0xCA, 0xFE
	require.Equal(t, byte(0xCA), a.mem[4096])
	require.Equal(t, byte(0xFE), a.mem[8191])
}

// Test_ArenaRelease drops the mapping and leaves the struct inert.
func Test_ArenaRelease(t *testing.T) {
	a, err := mapArena(0, 8192, 4096)
	require.NoError(t, err)

	require.NoError(t, a.release())
	require.Nil(t, a.mem)
	require.Nil(t, a.pools)
	require.NoError(t, a.release(), "second release is a no-op")
}
