package layout

// Alignment utilities for carving block storage.
// Pools hand out blocks at fixed power-of-two boundaries, so requested
// sizes are rounded up before they are classified.

// AlignUp returns n aligned up to the next multiple of quantum.
// quantum must be a power of two.
//
// Example:
//
//	AlignUp(1, 16)  = 16
//	AlignUp(16, 16) = 16
//	AlignUp(17, 16) = 32
func AlignUp(n, quantum int64) int64 {
	mask := quantum - 1
	return (n + mask) & ^mask
}

// IsAligned reports whether n sits on a multiple of quantum.
// quantum must be a power of two.
func IsAligned(n, quantum int64) bool {
	return n&(quantum-1) == 0
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}
