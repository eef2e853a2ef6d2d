package slab

import (
	"testing"

	s "github.com/bnclabs/gosettings"
	"github.com/stretchr/testify/require"
)

// Test_DefaultSettings checks that the shipped defaults validate and
// carry a usable capacity figure.
func Test_DefaultSettings(t *testing.T) {
	setts := Defaultsettings()
	cfg, err := makeconfig(setts)
	require.NoError(t, err)

	require.Equal(t, int64(16), cfg.granularity)
	require.Equal(t, int64(512), cfg.smallmax)
	require.Equal(t, int64(8192), cfg.maxblock)
	require.Equal(t, int64(65536), cfg.poolsize)
	require.Equal(t, int64(4*1024*1024), cfg.arenasize)
	require.GreaterOrEqual(t, cfg.capacity, cfg.arenasize)
}

// Test_ConfigValidation feeds New one broken setting at a time and
// expects a descriptive refusal for each.
func Test_ConfigValidation(t *testing.T) {
	cases := []struct {
		name     string
		override s.Settings
	}{
		{"granularity not a power of two", s.Settings{"granularity": int64(12)}},
		{"granularity too small", s.Settings{"granularity": int64(4)}},
		{"granularity too large", s.Settings{"granularity": int64(256)}},
		{"smallmax not granularity aligned", s.Settings{"smallmax": int64(100)}},
		{"smallmax below granularity", s.Settings{"smallmax": int64(0)}},
		{"maxblock below smallmax", s.Settings{"maxblock": int64(256)}},
		{"maxblock off quantum", s.Settings{"maxblock": int64(1000), "smallmax": int64(512)}},
		{"poolsize below maxblock", s.Settings{"poolsize": int64(4096)}},
		{"poolsize past the chain offsets", s.Settings{"poolsize": int64(1) << 32}},
		{"arenasize not pool aligned", s.Settings{"arenasize": int64(100000)}},
		{"arenasize below poolsize", s.Settings{"arenasize": int64(1024)}},
		{"capacity below one arena", s.Settings{"capacity": int64(1024)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New("broken", c.override)
			require.Error(t, err)
		})
	}
}

// Test_ConfigOverride checks that caller settings win over defaults.
func Test_ConfigOverride(t *testing.T) {
	al, err := New("override", s.Settings{
		"granularity": int64(32),
		"poolsize":    int64(32768),
		"arenasize":   int64(65536),
		"capacity":    int64(1 << 20),
	})
	require.NoError(t, err)
	defer al.Close()

	require.Equal(t, int64(32), al.cfg.granularity)
	require.Equal(t, int64(32768), al.cfg.poolsize)
	require.Equal(t, int64(65536), al.cfg.arenasize)
	// Untouched keys keep their defaults.
	require.Equal(t, int64(512), al.cfg.smallmax)
	require.Equal(t, int64(8192), al.cfg.maxblock)
}
