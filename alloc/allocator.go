package alloc

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/joshuapare/heapkit/brk"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Allocator is a first-fit allocator over a single movable boundary.
//
// Every exported method holds one mutex for its whole duration, including
// nested steps such as the allocation inside Calloc or the allocate, copy and
// release inside Realloc. Calling back into the Allocator while a method is
// running (for example from a Boundary implementation) deadlocks.
type Allocator struct {
	mu  sync.Mutex
	b   Boundary
	reg registry
	log *slog.Logger

	// owned is set when Open created the region; Close unmaps it.
	owned *brk.Region

	extends  uint64
	retracts uint64
	reuses   uint64
}

// New creates an Allocator over an existing boundary. The boundary must be
// unused: its break is expected at 0 and nothing else may move it.
func New(b Boundary, opts *Options) *Allocator {
	if b == nil {
		panic("alloc: nil boundary")
	}
	return &Allocator{
		b:   b,
		reg: registry{b: b},
		log: opts.logger(),
	}
}

// Open reserves a fresh region of opts.Capacity bytes and returns an
// Allocator that owns it.
func Open(opts *Options) (*Allocator, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	r, err := brk.New(brk.Options{Capacity: opts.Capacity})
	if err != nil {
		return nil, err
	}
	a := New(r, opts)
	a.owned = r
	return a, nil
}

// Close releases the region if the Allocator owns it. Every pointer handed
// out is invalid afterwards.
func (a *Allocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owned == nil {
		return nil
	}
	err := a.owned.Close()
	a.owned = nil
	a.reg = registry{b: a.b}
	return err
}

// Malloc returns a 16-byte aligned pointer to size bytes, or nil when size is
// zero or memory is exhausted.
func (a *Allocator) Malloc(size uintptr) unsafe.Pointer {
	p, _ := a.Allocate(size)
	return p
}

// Calloc returns a pointer to count*elemSize zeroed bytes, or nil when either
// argument is zero, the product overflows, or memory is exhausted.
func (a *Allocator) Calloc(count, elemSize uintptr) unsafe.Pointer {
	p, _ := a.ZeroAllocate(count, elemSize)
	return p
}

// Realloc grows the block at p to at least newSize bytes.
//
// A nil p or a zero newSize behaves exactly like Malloc(newSize). In
// particular Realloc(p, 0) returns nil and leaves p allocated. A block that
// is already large enough is returned unchanged; blocks never shrink. On
// failure Realloc returns nil and p keeps its contents.
func (a *Allocator) Realloc(p unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	q, _ := a.Resize(p, newSize)
	return q
}

// Free releases the block at p. A nil p is a no-op, as is freeing a block
// that is already free. If the block ends at the boundary the boundary is
// retracted; otherwise the block stays resident for reuse.
//
// Freeing a pointer this Allocator did not return, or one whose block was
// already retracted, is undefined. Pointers that are obviously foreign are
// ignored and logged.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	off, ok := a.headerOf(p)
	if !ok {
		a.log.Warn("free of foreign pointer ignored", "ptr", p)
		return
	}
	if err := a.release(off); err != nil {
		a.log.Warn("free failed", "ptr", p, "error", err)
	}
}

// Allocate is Malloc with the failure reason: ErrZeroSize, ErrOverflow or
// ErrOutOfMemory.
func (a *Allocator) Allocate(size uintptr) (unsafe.Pointer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	off, err := a.allocate(uint64(size))
	if err != nil {
		return nil, err
	}
	return a.payloadPtr(off), nil
}

// ZeroAllocate is Calloc with the failure reason.
func (a *Allocator) ZeroAllocate(count, elemSize uintptr) (unsafe.Pointer, error) {
	if count == 0 || elemSize == 0 {
		return nil, ErrZeroSize
	}
	size, ok := buf.MulUintptr(count, elemSize)
	if !ok {
		return nil, fmt.Errorf("%w: %d * %d", ErrOverflow, count, elemSize)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	off, err := a.allocate(uint64(size))
	if err != nil {
		return nil, err
	}
	clear(a.payload(off, uint64(size)))
	return a.payloadPtr(off), nil
}

// Resize is Realloc with the failure reason.
func (a *Allocator) Resize(p unsafe.Pointer, newSize uintptr) (unsafe.Pointer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p == nil || newSize == 0 {
		off, err := a.allocate(uint64(newSize))
		if err != nil {
			return nil, err
		}
		return a.payloadPtr(off), nil
	}

	old, ok := a.headerOf(p)
	if !ok {
		return nil, ErrBadPointer
	}
	h, err := a.reg.header(old)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPointer, err)
	}
	if h.Size >= uint64(newSize) {
		return p, nil
	}

	off, err := a.allocate(uint64(newSize))
	if err != nil {
		return nil, err
	}
	copy(a.payload(off, h.Size), a.payload(old, h.Size))
	if err := a.release(old); err != nil {
		a.log.Warn("release after resize failed", "offset", old, "error", err)
	}
	return a.payloadPtr(off), nil
}

// allocate returns the header offset of a live block of at least size bytes.
// The caller holds a.mu.
func (a *Allocator) allocate(size uint64) (uint64, error) {
	if size == 0 {
		return 0, ErrZeroSize
	}

	off, ok, err := a.reg.findFit(size)
	if err != nil {
		return 0, err
	}
	if ok {
		format.SetFree(a.b.Bytes(), off, false)
		a.reuses++
		return off, nil
	}

	extent, ok := format.Extent(size)
	if !ok {
		return 0, fmt.Errorf("%w: block of %d bytes", ErrOverflow, size)
	}
	off, err = a.b.Extend(extent)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	format.WriteHeader(a.b.Bytes(), off, format.Header{Size: size})
	a.reg.append(off)
	a.extends++
	a.log.Debug("boundary extended", "offset", off, "size", size, "extent", extent, "break", a.b.Query())
	return off, nil
}

// release frees the block at off. A block flush with the boundary is unlinked
// and its extent retracted; any other block is only marked free. The caller
// holds a.mu.
func (a *Allocator) release(off uint64) error {
	h, err := a.reg.header(off)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadPointer, err)
	}
	if h.Free {
		return nil
	}

	extent := h.Extent()
	if off+extent != a.b.Query() {
		format.SetFree(a.b.Bytes(), off, true)
		return nil
	}

	if off != a.reg.tail {
		return fmt.Errorf("%w: block %#x ends at break but tail is %#x", ErrCorrupt, off, a.reg.tail)
	}
	if err := a.reg.removeTail(); err != nil {
		return err
	}
	format.ClearHeader(a.b.Bytes(), off)
	a.retracts++
	if err := a.b.Retract(extent); err != nil {
		// The block is already unlinked; a failed release of its pages only
		// means the OS keeps them a little longer.
		a.log.Warn("boundary retract", "offset", off, "extent", extent, "error", err)
	}
	a.log.Debug("boundary retracted", "offset", off, "extent", extent, "break", a.b.Query())
	return nil
}
