//go:build !linux && !darwin

package brk

import (
	"math"

	"github.com/joshuapare/heapkit/internal/format"
)

// DefaultCapacity is the reservation size used when Options.Capacity is zero.
// The fallback backs the whole reservation with a Go slice up front.
const DefaultCapacity = 64 << 20

// maxCapacity stays page aligned and within int, the limit of make.
const maxCapacity = min(1<<32, math.MaxInt&^format.PageMask)

// reserve allocates the reservation on the Go heap. The slice is never
// resized, so its backing array does not move.
func reserve(capacity uint64) ([]byte, error) {
	return make([]byte, capacity), nil
}

func unreserve([]byte) error { return nil }

func discard(pages []byte) error {
	clear(pages)
	return nil
}
