package slab

import (
	"fmt"

	s "github.com/bnclabs/gosettings"
	"github.com/cloudfoundry/gosigar"

	"github.com/joshuapare/slabheap/internal/layout"
)

// Geometric size classes grow by steps of numerator/denominator, with every
// generated size rounded up to a multiple of largeQuantum. Keeping the
// quantum coarse bounds the class count, which in turn bounds the per-class
// pool lists and the lookup tables.
const (
	largeQuantum = int64(128)
	stepNum      = int64(5)
	stepDen      = int64(4)
)

// Allocator configurable parameters and default settings.
//
// "granularity" (int64, default: 16)
//		Smallest block size and the size quantum for the linear class
//		phase. Must be a power of two between 8 and 128.
//
// "smallmax" (int64, default: 512)
//		Largest block size generated with linear granularity steps.
//		Must be a multiple of "granularity".
//
// "maxblock" (int64, default: 8192)
//		Largest block size served from pools. Requests above it bypass
//		the pools and go straight to the operating system. Must be a
//		multiple of 128 when it exceeds "smallmax", and must not exceed
//		"poolsize".
//
// "poolsize" (int64, default: 65536)
//		Byte size of every pool carved out of an arena. Must be a
//		multiple of "granularity" and below 4GB: freed blocks chain
//		through 32-bit pool-relative offsets.
//
// "arenasize" (int64, default: 4MB)
//		Byte size of every region mapped from the operating system.
//		Must be an exact multiple of "poolsize".
//
// "capacity" (int64, default: half of free RAM)
//		Ceiling on the total arena bytes this instance will map.
//		Crossing it fails the allocation with ErrOutOfMemory before
//		asking the OS for another arena.
func Defaultsettings() s.Settings {
	_, _, free := getsysmem()
	capacity := int64(free / 2)
	if capacity == 0 {
		// RAM probe failed on this platform, assume 4GB.
		capacity = 4 * 1024 * 1024 * 1024
	}
	return s.Settings{
		"granularity": int64(16),
		"smallmax":    int64(512),
		"maxblock":    int64(8192),
		"poolsize":    int64(65536),
		"arenasize":   int64(4 * 1024 * 1024),
		"capacity":    capacity,
	}
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}

// config is the immutable, validated shape of an instance's settings.
// Fixed at New, never changed afterwards.
type config struct {
	granularity int64
	smallmax    int64
	maxblock    int64
	poolsize    int64
	arenasize   int64
	capacity    int64
}

func makeconfig(setts s.Settings) (config, error) {
	cfg := config{
		granularity: setts.Int64("granularity"),
		smallmax:    setts.Int64("smallmax"),
		maxblock:    setts.Int64("maxblock"),
		poolsize:    setts.Int64("poolsize"),
		arenasize:   setts.Int64("arenasize"),
		capacity:    setts.Int64("capacity"),
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (cfg *config) validate() error {
	g := cfg.granularity
	if !layout.IsPowerOfTwo(g) || g < 8 || g > 128 {
		return fmt.Errorf("granularity %v must be a power of two in [8,128]", g)
	}
	if cfg.smallmax < g || !layout.IsAligned(cfg.smallmax, g) {
		return fmt.Errorf("smallmax %v must be a multiple of granularity %v", cfg.smallmax, g)
	}
	if cfg.maxblock < cfg.smallmax {
		return fmt.Errorf("maxblock %v below smallmax %v", cfg.maxblock, cfg.smallmax)
	}
	if cfg.maxblock > cfg.smallmax && !layout.IsAligned(cfg.maxblock, largeQuantum) {
		return fmt.Errorf("maxblock %v must be a multiple of %v", cfg.maxblock, largeQuantum)
	}
	if cfg.poolsize < cfg.maxblock {
		return fmt.Errorf("poolsize %v below maxblock %v", cfg.poolsize, cfg.maxblock)
	}
	if !layout.IsAligned(cfg.poolsize, g) {
		return fmt.Errorf("poolsize %v must be a multiple of granularity %v", cfg.poolsize, g)
	}
	if cfg.poolsize >= 1<<32 {
		return fmt.Errorf("poolsize %v overflows the 32-bit free chain offsets", cfg.poolsize)
	}
	if cfg.arenasize < cfg.poolsize || cfg.arenasize%cfg.poolsize != 0 {
		return fmt.Errorf("arenasize %v must be a positive multiple of poolsize %v", cfg.arenasize, cfg.poolsize)
	}
	if cfg.capacity < cfg.arenasize {
		return fmt.Errorf("capacity %v cannot hold even one arena of %v", cfg.capacity, cfg.arenasize)
	}
	return nil
}
