//go:build linux || darwin

package brk

import (
	"errors"
	"math"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/format"
)

// DefaultCapacity is the reservation size used when Options.Capacity is zero.
// Pages are only backed once touched, so a large reservation is cheap.
const DefaultCapacity = 1 << 30

// maxCapacity stays page aligned and within int, which unix.Mmap takes as
// the length, so rounding an accepted capacity up to pages cannot overflow.
const maxCapacity = min(1<<46, math.MaxInt&^format.PageMask)

// reserve maps capacity bytes of private anonymous memory.
func reserve(capacity uint64) ([]byte, error) {
	return unix.Mmap(
		-1,
		0,
		int(capacity),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_NORESERVE,
	)
}

func unreserve(data []byte) error {
	if data == nil {
		return nil
	}
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// discard drops whole pages. Private anonymous pages read back as zero.
func discard(pages []byte) error {
	if len(pages) == 0 {
		return nil
	}
	return unix.Madvise(pages, unix.MADV_DONTNEED)
}
