package alloc

import "errors"

var (
	// ErrZeroSize indicates a zero size, count, or element size.
	ErrZeroSize = errors.New("alloc: zero size")

	// ErrOverflow indicates count*elemSize or the block extent overflowed.
	ErrOverflow = errors.New("alloc: size overflow")

	// ErrOutOfMemory indicates the boundary could not be extended.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadPointer indicates a pointer that was not returned by this allocator
	// or whose block is no longer resident.
	ErrBadPointer = errors.New("alloc: pointer not owned by allocator")

	// ErrCorrupt indicates a registry invariant does not hold.
	ErrCorrupt = errors.New("alloc: registry corrupt")
)
