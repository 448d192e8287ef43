package trace

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/joshuapare/heapkit/alloc"
)

var (
	// ErrUnknownName indicates an operand that was never assigned or was freed.
	ErrUnknownName = errors.New("trace: unknown name")

	// ErrCheckFailed indicates a check op found an unexpected byte.
	ErrCheckFailed = errors.New("trace: check failed")

	// ErrOutOfBounds indicates a write or check past the size the script asked for.
	ErrOutOfBounds = errors.New("trace: access past block size")
)

// Event is the outcome of one op.
type Event struct {
	Op Op `json:"op"`

	// Offset is the payload offset from the region start. Null is set when
	// the allocator returned nil.
	Offset uint64 `json:"offset,omitempty"`
	Null   bool   `json:"null,omitempty"`

	// Reason is the allocator's failure reason when Null is set.
	Reason string `json:"reason,omitempty"`

	BreakBefore uint64 `json:"break_before"`
	BreakAfter  uint64 `json:"break_after"`

	Stats *alloc.Stats `json:"stats,omitempty"` // set by stats ops
}

// Moved reports how far the break moved; negative when it retracted.
func (e Event) Moved() int64 {
	return int64(e.BreakAfter) - int64(e.BreakBefore)
}

type block struct {
	p    unsafe.Pointer
	size uint64
}

// Runner replays ops against an Allocator, tracking script names.
type Runner struct {
	a     *alloc.Allocator
	names map[string]block
}

// NewRunner creates a Runner over a.
func NewRunner(a *alloc.Allocator) *Runner {
	return &Runner{a: a, names: make(map[string]block)}
}

// Run executes ops in order and calls fn after each. It stops at the first
// harness error, an error from fn, or when ctx is done.
func (r *Runner) Run(ctx context.Context, ops []Op, fn func(Event) error) error {
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := r.Step(op)
		if err != nil {
			return fmt.Errorf("line %d: %s: %w", op.Line, op, err)
		}
		if fn != nil {
			if err := fn(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Live returns the names currently bound to a non-nil block.
func (r *Runner) Live() map[string]uint64 {
	out := make(map[string]uint64, len(r.names))
	for name, b := range r.names {
		if off, ok := r.a.Offset(b.p); ok {
			out[name] = off
		}
	}
	return out
}

// Step executes a single op. Allocator failures are reported in the event;
// the returned error is for script mistakes only.
func (r *Runner) Step(op Op) (Event, error) {
	ev := Event{Op: op, BreakBefore: r.a.Stats().Break}

	var err error
	switch op.Kind {
	case KindMalloc:
		p, aerr := r.a.Allocate(uintptr(op.A))
		r.bind(&ev, op.Dest, p, op.A, aerr)
	case KindCalloc:
		p, aerr := r.a.ZeroAllocate(uintptr(op.A), uintptr(op.B))
		r.bind(&ev, op.Dest, p, op.A*op.B, aerr)
	case KindRealloc:
		err = r.realloc(&ev, op)
	case KindFree:
		err = r.free(op)
	case KindWrite, KindCheck:
		err = r.access(op)
	case KindStats:
		s := r.a.Stats()
		ev.Stats = &s
	default:
		err = fmt.Errorf("unsupported op %s", op.Kind)
	}
	if err != nil {
		return Event{}, err
	}

	ev.BreakAfter = r.a.Stats().Break
	return ev, nil
}

func (r *Runner) lookup(name string) (block, error) {
	if name == NilName {
		return block{}, nil
	}
	b, ok := r.names[name]
	if !ok {
		return block{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return b, nil
}

func (r *Runner) bind(ev *Event, name string, p unsafe.Pointer, size uint64, err error) {
	if p == nil {
		ev.Null = true
		if err != nil {
			ev.Reason = err.Error()
		}
		r.names[name] = block{}
		return
	}
	ev.Offset, _ = r.a.Offset(p)
	r.names[name] = block{p: p, size: size}
}

func (r *Runner) realloc(ev *Event, op Op) error {
	src, err := r.lookup(op.Src)
	if err != nil {
		return err
	}
	q, aerr := r.a.Resize(src.p, uintptr(op.A))
	size := op.A
	if q != nil && q == src.p && src.size > size {
		size = src.size
	}
	r.bind(ev, op.Dest, q, size, aerr)

	// On success the block belongs to dest alone: a move freed the old block
	// and an in-place result must not leave two names on one block. A
	// failure leaves src where it was.
	if q != nil && src.p != nil && op.Src != op.Dest {
		delete(r.names, op.Src)
	}
	return nil
}

func (r *Runner) free(op Op) error {
	b, err := r.lookup(op.Src)
	if err != nil {
		return err
	}
	r.a.Free(b.p)
	delete(r.names, op.Src)
	return nil
}

func (r *Runner) access(op Op) error {
	b, err := r.lookup(op.Src)
	if err != nil {
		return err
	}
	if b.p == nil {
		return fmt.Errorf("%w: %q is nil", ErrUnknownName, op.Src)
	}
	if op.A > b.size {
		return fmt.Errorf("%w: %d > %d", ErrOutOfBounds, op.A, b.size)
	}
	mem := unsafe.Slice((*byte)(b.p), op.A)
	if op.Kind == KindWrite {
		for i := range mem {
			mem[i] = op.Fill
		}
		return nil
	}
	for i, v := range mem {
		if v != op.Fill {
			return fmt.Errorf("%w: byte %d is %#02x, want %#02x", ErrCheckFailed, i, v, op.Fill)
		}
	}
	return nil
}
