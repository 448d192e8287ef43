package brk

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Options configures a new Region.
type Options struct {
	// Capacity is the size of the reservation in bytes. It is rounded up to a
	// whole number of pages.
	// Default: DefaultCapacity
	Capacity uint64
}

// Region is a fixed reservation with a single movable break.
type Region struct {
	data   []byte
	brk    uint64
	closed bool
}

// New reserves a region of opts.Capacity bytes with the break at 0.
func New(opts Options) (*Region, error) {
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity > maxCapacity {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrBadCapacity, capacity, uint64(maxCapacity))
	}
	capacity = format.AlignPage(capacity)

	data, err := reserve(capacity)
	if err != nil {
		return nil, fmt.Errorf("brk: reserve %d bytes: %w", capacity, err)
	}
	return &Region{data: data}, nil
}

// Extend moves the break forward by n bytes and returns the old break.
// On failure the break is unchanged.
func (r *Region) Extend(n uint64) (uint64, error) {
	if r.closed {
		return 0, ErrClosed
	}
	end, ok := buf.AddOverflowSafe(r.brk, n)
	if !ok || end > uint64(len(r.data)) {
		return 0, fmt.Errorf("%w: break %d + %d exceeds capacity %d", ErrNoMemory, r.brk, n, len(r.data))
	}
	old := r.brk
	r.brk = end
	return old, nil
}

// Retract moves the break back by n bytes. The released bytes are returned
// to the operating system where possible and read as zero afterwards.
//
// The break has already moved when Retract returns an error from the
// release step; such errors are advisory.
func (r *Region) Retract(n uint64) error {
	if r.closed {
		return ErrClosed
	}
	if n > r.brk {
		return fmt.Errorf("%w: retract %d with break at %d", ErrUnderflow, n, r.brk)
	}
	if n == 0 {
		return nil
	}
	old := r.brk
	r.brk -= n
	if err := r.release(r.brk, old); err != nil {
		return fmt.Errorf("brk: release [%#x, %#x): %w", r.brk, old, err)
	}
	return nil
}

// Query returns the current break.
func (r *Region) Query() uint64 { return r.brk }

// Cap returns the size of the reservation.
func (r *Region) Cap() uint64 { return uint64(len(r.data)) }

// Bytes returns the whole reservation. Only bytes below Query() belong to
// the allocator.
func (r *Region) Bytes() []byte { return r.data }

// Base returns the address of the first byte of the reservation, or 0 once
// the region is closed.
func (r *Region) Base() uintptr {
	if r.closed || len(r.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.data[0]))
}

// Close unmaps the reservation. Any pointer into the region is invalid
// afterwards.
func (r *Region) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	data := r.data
	r.data, r.brk = nil, 0
	return unreserve(data)
}

// release hands [from, to) back to the OS. Pages fully above from are
// dropped; the partial page at from is cleared by hand.
func (r *Region) release(from, to uint64) error {
	pageStart := format.AlignPage(from)
	head := min(pageStart, to)
	clear(r.data[from:head])
	if pageStart >= to {
		return nil
	}
	return discard(r.data[pageStart:format.AlignPage(to)])
}
