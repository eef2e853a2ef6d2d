package layout

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// A free block stores the pool-relative offset of the next free block in
// its own first four bytes. The links are little-endian regardless of host
// order so that a raw dump of an arena reads the same on every platform.
//
// Implementation: Uses encoding/binary.LittleEndian. The compiler inlines
// these calls and reduces them to single moves on little-endian targets,
// so there is no reason to reach for unsafe here.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int64, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int64) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}
