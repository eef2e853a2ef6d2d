package slab

import (
	"fmt"

	s "github.com/bnclabs/gosettings"
)

// Example demonstrates the basic allocate/free round trip.
func Example() {
	al, err := New("example", s.Settings{"capacity": int64(64 * 1024 * 1024)})
	if err != nil {
		panic(err)
	}
	defer al.Close()

	buf, err := al.Alloc(100)
	if err != nil {
		panic(err)
	}
	copy(buf, "payload")
	fmt.Printf("got %d bytes in a %d byte block\n", len(buf), cap(buf))

	st := al.Stats()
	fmt.Printf("arenas: %d, live blocks: %d\n", st.Arenas, st.LiveBlocks)

	if err := al.Free(buf); err != nil {
		panic(err)
	}
	fmt.Printf("live blocks after free: %d\n", al.Stats().LiveBlocks)

	// Output:
	// got 100 bytes in a 112 byte block
	// arenas: 1, live blocks: 1
	// live blocks after free: 0
}

// ExampleAllocator_Alloc_oversized shows a request above the class
// ceiling bypassing the arenas entirely.
func ExampleAllocator_Alloc_oversized() {
	al, err := New("direct", s.Settings{"capacity": int64(64 * 1024 * 1024)})
	if err != nil {
		panic(err)
	}
	defer al.Close()

	buf, err := al.Alloc(32 * 1024)
	if err != nil {
		panic(err)
	}

	st := al.Stats()
	fmt.Printf("oversized blocks: %d holding %d bytes\n", st.OversizedBlocks, st.OversizedBytes)
	fmt.Printf("arena heap bytes: %d\n", st.HeapBytes)

	al.Free(buf)

	// Output:
	// oversized blocks: 1 holding 32768 bytes
	// arena heap bytes: 0
}

// ExampleAllocator_Free_invalid shows the rejection of pointers the
// allocator does not own.
func ExampleAllocator_Free_invalid() {
	al, err := New("strict", s.Settings{"capacity": int64(64 * 1024 * 1024)})
	if err != nil {
		panic(err)
	}
	defer al.Close()

	foreign := make([]byte, 64)
	fmt.Println(al.Free(foreign))

	buf, _ := al.Alloc(64)
	al.Free(buf)
	fmt.Println(al.Free(buf))

	// Output:
	// slab: invalid free
	// slab: invalid free
}
