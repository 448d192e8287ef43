package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// registry is the address-ordered chain of block headers. Headers live in the
// boundary's memory and link forward by offset; the registry itself only
// remembers the two ends.
//
// Order along next always equals address order because blocks are only ever
// appended at the boundary and only ever removed from the tail.
type registry struct {
	b     Boundary
	head  uint64
	tail  uint64
	count int
}

func (g *registry) empty() bool { return g.count == 0 }

// header decodes the header at off.
func (g *registry) header(off uint64) (format.Header, error) {
	h, err := format.ReadHeader(g.b.Bytes(), off)
	if err != nil {
		return format.Header{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return h, nil
}

// findFit returns the first free block whose size is at least size.
// Surplus capacity in the returned block is not split off.
func (g *registry) findFit(size uint64) (uint64, bool, error) {
	if g.empty() {
		return 0, false, nil
	}
	off := g.head
	for {
		h, err := g.header(off)
		if err != nil {
			return 0, false, err
		}
		if h.Free && h.Size >= size {
			return off, true, nil
		}
		if !h.HasNext {
			return 0, false, nil
		}
		off = h.Next
	}
}

// append links the header at off after the current tail. The header must
// already be written with no successor.
func (g *registry) append(off uint64) {
	if g.empty() {
		g.head = off
	} else {
		format.SetNext(g.b.Bytes(), g.tail, off, true)
	}
	g.tail = off
	g.count++
}

// removeTail unlinks the tail block. Links only point forward, so the new
// tail is found by scanning from head.
func (g *registry) removeTail() error {
	switch g.count {
	case 0:
		return fmt.Errorf("%w: removeTail on empty registry", ErrCorrupt)
	case 1:
		g.head, g.tail, g.count = 0, 0, 0
		return nil
	}

	off := g.head
	for {
		h, err := g.header(off)
		if err != nil {
			return err
		}
		if !h.HasNext {
			return fmt.Errorf("%w: tail %#x not reachable from head", ErrCorrupt, g.tail)
		}
		if h.Next == g.tail {
			format.SetNext(g.b.Bytes(), off, 0, false)
			g.tail = off
			g.count--
			return nil
		}
		off = h.Next
	}
}

// walk visits every resident header in address order. Returning an error
// from fn stops the walk.
func (g *registry) walk(fn func(off uint64, h format.Header) error) error {
	if g.empty() {
		return nil
	}
	off := g.head
	for {
		h, err := g.header(off)
		if err != nil {
			return err
		}
		if err := fn(off, h); err != nil {
			return err
		}
		if !h.HasNext {
			return nil
		}
		off = h.Next
	}
}
