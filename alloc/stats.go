package alloc

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/heapkit/internal/format"
)

// Stats returns a snapshot of the allocator's counters and registry. A
// corrupt registry yields a partial snapshot and a warning; use Check to get
// the error.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Stats{
		Break:    a.b.Query(),
		Capacity: uint64(len(a.b.Bytes())),
		Extends:  a.extends,
		Retracts: a.retracts,
		Reuses:   a.reuses,
	}
	err := a.reg.walk(func(_ uint64, h format.Header) error {
		s.Blocks++
		if h.Free {
			s.FreeBlocks++
			s.Free += h.Size
		} else {
			s.InUse += h.Size
		}
		s.Overhead += h.Extent() - h.Size
		return nil
	})
	if err != nil {
		a.log.Warn("stats: partial walk", "error", err)
	}
	return s
}

// Blocks returns every resident block in address order.
func (a *Allocator) Blocks() []BlockInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]BlockInfo, 0, a.reg.count)
	err := a.reg.walk(func(off uint64, h format.Header) error {
		out = append(out, BlockInfo{
			Offset:  off,
			Payload: off + format.HeaderSize,
			Size:    h.Size,
			Extent:  h.Extent(),
			Free:    h.Free,
		})
		return nil
	})
	if err != nil {
		a.log.Warn("blocks: partial walk", "error", err)
	}
	return out
}

// SizeOf returns the size recorded for the live block at p, or 0 for nil and
// pointers the allocator does not recognize.
func (a *Allocator) SizeOf(p unsafe.Pointer) uintptr {
	if p == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	off, ok := a.headerOf(p)
	if !ok {
		return 0
	}
	h, err := a.reg.header(off)
	if err != nil || h.Free {
		return 0
	}
	return uintptr(h.Size)
}

// Offset returns p as an offset from the start of the region, for display.
// The second result is false for pointers outside the claimed region.
func (a *Allocator) Offset(p unsafe.Pointer) (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	off, ok := a.headerOf(p)
	if !ok {
		return 0, false
	}
	return off + format.HeaderSize, true
}

// Check verifies the registry invariants: blocks tile [0, break) in address
// order with no gaps, every header is intact, and the tail is the last block
// and ends at the break.
func (a *Allocator) Check() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var (
		want  uint64
		count int
		last  uint64
	)
	err := a.reg.walk(func(off uint64, h format.Header) error {
		if off != want {
			return fmt.Errorf("%w: block at %#x, expected %#x", ErrCorrupt, off, want)
		}
		if h.Size == 0 {
			return fmt.Errorf("%w: block at %#x has zero size", ErrCorrupt, off)
		}
		if h.HasNext && h.Next <= off {
			return fmt.Errorf("%w: block at %#x links backward to %#x", ErrCorrupt, off, h.Next)
		}
		count++
		last = off
		want = off + h.Extent()
		return nil
	})
	if err != nil {
		return err
	}

	brk := a.b.Query()
	switch {
	case count != a.reg.count:
		return fmt.Errorf("%w: walked %d blocks, registry holds %d", ErrCorrupt, count, a.reg.count)
	case want != brk:
		return fmt.Errorf("%w: blocks end at %#x, break at %#x", ErrCorrupt, want, brk)
	case count > 0 && last != a.reg.tail:
		return fmt.Errorf("%w: last block %#x, tail %#x", ErrCorrupt, last, a.reg.tail)
	}
	return nil
}
