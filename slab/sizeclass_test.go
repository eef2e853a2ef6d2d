package slab

import (
	"testing"

	s "github.com/bnclabs/gosettings"
	"github.com/stretchr/testify/require"
)

func buildTestTable(t *testing.T, overrides s.Settings) *classTable {
	t.Helper()
	setts := make(s.Settings).Mixin(Defaultsettings(), s.Settings{"capacity": int64(1 << 30)}, overrides)
	cfg, err := makeconfig(setts)
	require.NoError(t, err)
	table, err := buildClassTable(cfg)
	require.NoError(t, err)
	return table
}

// Test_ClassifyProperties walks every size up to the ceiling and checks
// the three classification guarantees: the block holds the request, no
// smaller class would, and the class never decreases as sizes grow.
func Test_ClassifyProperties(t *testing.T) {
	table := buildTestTable(t, nil)

	prev := 0
	for size := int64(1); size <= table.ceiling; size++ {
		class, oversized := table.classify(size)
		require.False(t, oversized, "size %d", size)
		require.GreaterOrEqual(t, table.blockSize(class), size, "size %d", size)
		if class > 0 {
			require.Less(t, table.blockSize(class-1), size,
				"size %d should not fit class %d", size, class-1)
		}
		require.GreaterOrEqual(t, class, prev, "size %d", size)
		prev = class
	}

	_, oversized := table.classify(table.ceiling + 1)
	require.True(t, oversized)
	_, oversized = table.classify(1 << 30)
	require.True(t, oversized)
}

// Test_ClassTableShape pins down the default table: linear granularity
// steps to smallmax, geometric 128-byte multiples after, ceiling last.
func Test_ClassTableShape(t *testing.T) {
	table := buildTestTable(t, nil)

	require.Equal(t, 44, table.numClasses())
	require.Equal(t, int64(16), table.sizes[0])
	require.Equal(t, int64(8192), table.sizes[len(table.sizes)-1])

	for c, size := range table.sizes {
		if c > 0 {
			require.Greater(t, size, table.sizes[c-1])
		}
		if size <= table.smallmax {
			require.Equal(t, int64(0), size%table.granularity)
		} else {
			require.Equal(t, int64(0), size%largeQuantum)
		}
	}

	// The linear phase steps by exactly one granularity.
	nsmall := int(table.smallmax / table.granularity)
	for c := 0; c < nsmall; c++ {
		require.Equal(t, int64(c+1)*table.granularity, table.sizes[c])
	}

	// The geometric phase lands on these exact sizes, as the package
	// doc lists them.
	require.Equal(t, []int64{640, 896, 1152, 1536, 1920, 2432, 3072, 3840, 4864, 6144, 7680, 8192},
		table.sizes[nsmall:])
}

// Test_ClassifyUnevenSmallmax keeps the geometric lookup honest when
// smallmax is not a multiple of the 128-byte quantum.
func Test_ClassifyUnevenSmallmax(t *testing.T) {
	table := buildTestTable(t, s.Settings{
		"granularity": int64(32),
		"smallmax":    int64(96),
		"maxblock":    int64(1024),
	})

	class, oversized := table.classify(96)
	require.False(t, oversized)
	require.Equal(t, int64(96), table.blockSize(class))

	class, oversized = table.classify(97)
	require.False(t, oversized)
	require.Equal(t, int64(128), table.blockSize(class))

	class, oversized = table.classify(128)
	require.False(t, oversized)
	require.Equal(t, int64(128), table.blockSize(class))

	class, oversized = table.classify(129)
	require.False(t, oversized)
	require.Greater(t, table.blockSize(class), int64(128))
}

// Test_ClassifyWithoutGeometricPhase covers maxblock == smallmax, where
// every class is linear and anything above goes oversized.
func Test_ClassifyWithoutGeometricPhase(t *testing.T) {
	table := buildTestTable(t, s.Settings{
		"granularity": int64(16),
		"smallmax":    int64(256),
		"maxblock":    int64(256),
		"poolsize":    int64(4096),
		"arenasize":   int64(8192),
	})

	require.Equal(t, 16, table.numClasses())
	require.Nil(t, table.largeIdx)

	class, oversized := table.classify(256)
	require.False(t, oversized)
	require.Equal(t, int64(256), table.blockSize(class))

	_, oversized = table.classify(257)
	require.True(t, oversized)
}
