package slab

import "errors"

var (
	// ErrBadSize indicates an allocation request for a zero or negative size.
	ErrBadSize = errors.New("slab: allocation size must be positive")

	// ErrOutOfMemory indicates that the operating system refused to provide
	// more memory, or that mapping more would exceed the configured capacity.
	ErrOutOfMemory = errors.New("slab: out of memory")

	// ErrInvalidFree indicates a free of a pointer this allocator does not
	// own, a pointer that is not a block start, or a block already free.
	ErrInvalidFree = errors.New("slab: invalid free")

	// ErrClosed indicates use of an allocator instance after Close.
	ErrClosed = errors.New("slab: allocator closed")
)
