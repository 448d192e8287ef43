// Package brk provides the heap boundary the allocator grows and shrinks.
//
// # Overview
//
// A Region is one contiguous reservation of address space with a single
// movable edge, the break. Everything below the break belongs to the
// allocator; everything above it is unclaimed. The break only moves in two
// ways:
//
//   - Extend(n): move the break forward by n bytes and return the old break
//   - Retract(n): move the break back by n bytes
//
// On Linux and macOS the reservation is an anonymous private mapping created
// with golang.org/x/sys/unix. Retracting hands whole pages above the new break
// back to the kernel with madvise(MADV_DONTNEED). On other platforms the
// reservation is an ordinary byte slice and retracted bytes are cleared.
//
// In both cases bytes above the break always read as zero, so memory obtained
// from a fresh Extend is zeroed, like memory from sbrk.
//
// The mapping is never moved, so addresses inside it stay valid for the life
// of the Region and are invisible to the Go garbage collector.
//
// # Usage Example
//
//	r, err := brk.New(brk.Options{Capacity: 64 << 20})
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	off, err := r.Extend(4096) // off == 0 on a fresh region
//	if err != nil {
//	    return err
//	}
//	mem := r.Bytes()[off : off+4096]
//
// # Thread Safety
//
// Region is NOT safe for concurrent use. The allocator serializes every call
// under its own lock.
package brk
