package brk

import "errors"

var (
	// ErrNoMemory indicates the break cannot move forward by the requested amount.
	ErrNoMemory = errors.New("brk: region exhausted")

	// ErrUnderflow indicates an attempt to retract past the start of the region.
	ErrUnderflow = errors.New("brk: retract below region start")

	// ErrClosed indicates the region has been unmapped.
	ErrClosed = errors.New("brk: region closed")

	// ErrBadCapacity indicates a zero or oversized capacity in Options.
	ErrBadCapacity = errors.New("brk: invalid capacity")
)
