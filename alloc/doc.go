// Package alloc provides a first-fit memory allocator over a single movable
// heap boundary.
//
// # Overview
//
// The allocator hands out memory the Go garbage collector does not manage.
// Each block is a fixed 32-byte header followed by its payload, laid out back
// to back from the start of a brk.Region. Headers form a forward-linked chain
// in address order; the allocator only remembers its head and tail.
//
// # Operations
//
//   - Malloc(size): first free block with size >= request, else grow the boundary
//   - Calloc(count, elemSize): Malloc(count*elemSize) with overflow check, then zero
//   - Realloc(p, size): return p if it is already big enough, else move and copy
//   - Free(p): retract the boundary if p ends at it, else mark p free for reuse
//
// Failures are reported as a nil pointer. Allocate, ZeroAllocate and Resize
// run the same code and also return the reason (ErrZeroSize, ErrOverflow,
// ErrOutOfMemory).
//
// # Reuse and Fragmentation
//
// A freed block that is not at the boundary stays resident forever. It can
// be reused by any later request that fits, but any surplus is wasted:
// blocks are never split or merged. Only the outermost block ever returns
// memory to the operating system.
//
// # Semantics Worth Knowing
//
//	q := a.Realloc(p, 0) // q == nil and p is still allocated
//	q := a.Realloc(p, n) // n <= size of p: q == p, nothing moves
//
// # Usage Example
//
//	a, err := alloc.Open(&alloc.Options{Capacity: 64 << 20})
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	p := a.Malloc(100)
//	buf := unsafe.Slice((*byte)(p), 100)
//	copy(buf, "hello")
//	a.Free(p)
//
// The package-level Malloc, Calloc, Realloc and Free use a process-wide
// Allocator created on first use (see Default).
//
// # Thread Safety
//
// All methods are safe for concurrent use. One mutex serializes every
// operation end to end, so scans are O(blocks) under contention.
package alloc
