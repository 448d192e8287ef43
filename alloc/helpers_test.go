package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/brk"
)

// newTestAllocator opens an Allocator over a fresh region of the given capacity.
func newTestAllocator(t testing.TB, capacity uint64) *Allocator {
	t.Helper()
	a, err := Open(&Options{Capacity: capacity})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// bytesAt views n bytes of payload at p.
func bytesAt(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

func fill(p unsafe.Pointer, n int, v byte) {
	b := bytesAt(p, n)
	for i := range b {
		b[i] = v
	}
}

func requireFilled(t testing.TB, p unsafe.Pointer, n int, v byte) {
	t.Helper()
	for i, got := range bytesAt(p, n) {
		if got != v {
			t.Fatalf("byte %d = %#x, want %#x", i, got, v)
		}
	}
}

// recordingBoundary wraps a region, records retracts, and can be told to
// refuse the next Extend.
type recordingBoundary struct {
	*brk.Region
	failExtend bool
	retracts   []uint64
}

func newRecordingBoundary(t testing.TB, capacity uint64) *recordingBoundary {
	t.Helper()
	r, err := brk.New(brk.Options{Capacity: capacity})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return &recordingBoundary{Region: r}
}

func (b *recordingBoundary) Extend(n uint64) (uint64, error) {
	if b.failExtend {
		b.failExtend = false
		return 0, brk.ErrNoMemory
	}
	return b.Region.Extend(n)
}

func (b *recordingBoundary) Retract(n uint64) error {
	b.retracts = append(b.retracts, n)
	return b.Region.Retract(n)
}
