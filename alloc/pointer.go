package alloc

import (
	"unsafe"

	"github.com/joshuapare/heapkit/internal/format"
)

// Conversions between payload pointers handed to callers and header offsets
// inside the boundary's memory. Nothing else in the package does pointer
// arithmetic.

// payloadPtr returns the caller-visible pointer for the block at off.
func (a *Allocator) payloadPtr(off uint64) unsafe.Pointer {
	return unsafe.Pointer(&a.b.Bytes()[off+format.HeaderSize])
}

// payload returns the first n bytes of the payload of the block at off.
func (a *Allocator) payload(off, n uint64) []byte {
	start := off + format.HeaderSize
	return a.b.Bytes()[start : start+n]
}

// headerOf maps a payload pointer back to its header offset. It reports
// false for pointers that cannot belong to a resident block: outside the
// claimed region or not on the alignment grid.
func (a *Allocator) headerOf(p unsafe.Pointer) (uint64, bool) {
	addr := uintptr(p)
	base := a.b.Base()
	if base == 0 || addr < base+format.HeaderSize {
		return 0, false
	}
	rel := uint64(addr - base)
	if rel >= a.b.Query() || !format.IsAligned(rel) {
		return 0, false
	}
	return rel - format.HeaderSize, true
}
