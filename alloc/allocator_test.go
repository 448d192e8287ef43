package alloc

import (
	"errors"
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/brk"
	"github.com/joshuapare/heapkit/internal/format"
)

const testCapacity = 1 << 20

func TestMalloc_PayloadAligned(t *testing.T) {
	a := newTestAllocator(t, testCapacity)
	rng := rand.New(rand.NewSource(42))

	for range 200 {
		size := uintptr(1 + rng.Intn(300))
		p := a.Malloc(size)
		require.NotNil(t, p)
		require.Zero(t, uintptr(p)%format.Alignment, "size %d: payload %p not 16-byte aligned", size, p)
	}
	require.NoError(t, a.Check())
}

func TestMalloc_ZeroSizeReturnsNil(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	require.Nil(t, a.Malloc(0))
	require.Nil(t, a.Calloc(0, 8))
	require.Nil(t, a.Calloc(8, 0))
	require.Nil(t, a.Calloc(0, 0))

	_, err := a.Allocate(0)
	require.ErrorIs(t, err, ErrZeroSize)
	_, err = a.ZeroAllocate(0, 16)
	require.ErrorIs(t, err, ErrZeroSize)

	s := a.Stats()
	require.Zero(t, s.Blocks)
	require.Zero(t, s.Break)
}

func TestCalloc_OverflowReturnsNil(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	require.Nil(t, a.Calloc(^uintptr(0)-1, 2))

	_, err := a.ZeroAllocate(^uintptr(0)/2+1, 2)
	require.ErrorIs(t, err, ErrOverflow)
	require.Zero(t, a.Stats().Break, "overflow must not touch the boundary")
}

func TestMalloc_HugeRequestOverflowsExtent(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	_, err := a.Allocate(^uintptr(0) - 8)
	require.ErrorIs(t, err, ErrOverflow)
	require.Zero(t, a.Stats().Blocks)
}

func TestMalloc_SoleBlockRoundTrip(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(100)
	require.NotNil(t, p)
	require.Equal(t, uint64(format.HeaderSize+112), a.Stats().Break)

	a.Free(p)
	s := a.Stats()
	require.Zero(t, s.Blocks, "registry must be empty")
	require.Zero(t, s.Break, "boundary must be back at the start")
	require.Equal(t, uint64(1), s.Retracts)

	q := a.Malloc(100)
	require.Equal(t, uintptr(p), uintptr(q), "same boundary region is handed out again")
	require.NoError(t, a.Check())
}

func TestMalloc_FirstFitReuse(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	pa := a.Malloc(100)
	pb := a.Malloc(50)
	require.NotNil(t, pa)
	require.NotNil(t, pb)

	a.Free(pa)
	breakBefore := a.Stats().Break

	pc := a.Malloc(80)
	require.Equal(t, uintptr(pa), uintptr(pc))

	s := a.Stats()
	require.Equal(t, breakBefore, s.Break, "reuse must not grow the boundary")
	require.Equal(t, uint64(2), s.Extends)
	require.Equal(t, uint64(1), s.Reuses)
	require.NoError(t, a.Check())
}

func TestMalloc_FirstFitNotBestFit(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	big := a.Malloc(200)
	_ = a.Malloc(8)
	snug := a.Malloc(100)
	_ = a.Malloc(8)

	a.Free(big)
	a.Free(snug)

	got := a.Malloc(90)
	require.Equal(t, uintptr(big), uintptr(got), "first free block in address order wins")
}

func TestMalloc_ReusedBlockKeepsRecordedSize(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(100)
	_ = a.Malloc(8)
	a.Free(p)

	q := a.Malloc(10)
	require.Equal(t, uintptr(p), uintptr(q))
	require.Equal(t, uintptr(100), a.SizeOf(q), "surplus is not split off")
}

func TestMalloc_ExtentIsPadded(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(10)
	q := a.Malloc(10)
	require.Equal(t, uintptr(p)+format.HeaderSize+16, uintptr(q))
}

func TestMalloc_OutOfMemoryLeavesStateUnchanged(t *testing.T) {
	a := newTestAllocator(t, format.PageSize)

	p := a.Malloc(64)
	require.NotNil(t, p)
	before := a.Stats()
	blocks := a.Blocks()

	q, err := a.Allocate(format.PageSize)
	require.Nil(t, q)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, brk.ErrNoMemory)
	require.Nil(t, a.Malloc(format.PageSize))

	require.Equal(t, before, a.Stats())
	require.Equal(t, blocks, a.Blocks())
	require.NoError(t, a.Check())
}

func TestCalloc_ZeroesFreshBlock(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Calloc(10, 8)
	require.NotNil(t, p)
	requireFilled(t, p, 80, 0)
	require.Equal(t, uintptr(80), a.SizeOf(p))
}

func TestCalloc_ZeroesReusedBlock(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(64)
	fill(p, 64, 0xFF)
	_ = a.Malloc(8) // keep p away from the boundary
	a.Free(p)

	q := a.Calloc(8, 8)
	require.Equal(t, uintptr(p), uintptr(q))
	requireFilled(t, q, 64, 0)
}

func TestRealloc_NotLargerReturnsSamePointer(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(100)
	fill(p, 100, 0x5A)

	require.Equal(t, uintptr(p), uintptr(a.Realloc(p, 100)))
	require.Equal(t, uintptr(p), uintptr(a.Realloc(p, 40)))
	require.Equal(t, uintptr(100), a.SizeOf(p), "blocks never shrink")
	requireFilled(t, p, 100, 0x5A)
}

func TestRealloc_LargerMovesAndCopies(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(32)
	b := bytesAt(p, 32)
	for i := range b {
		b[i] = byte(i)
	}

	q := a.Realloc(p, 256)
	require.NotNil(t, q)
	require.NotEqual(t, uintptr(p), uintptr(q))
	nb := bytesAt(q, 32)
	for i := range nb {
		require.Equal(t, byte(i), nb[i])
	}
	require.Equal(t, uintptr(256), a.SizeOf(q))
	require.NoError(t, a.Check())
}

func TestRealloc_TailBlockStaysResidentAfterMove(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(32)
	q := a.Realloc(p, 64)
	require.NotNil(t, q)

	s := a.Stats()
	require.Equal(t, 2, s.Blocks)
	require.Equal(t, 1, s.FreeBlocks, "old block is no longer at the boundary once q is appended")
	require.Zero(t, s.Retracts)
}

func TestRealloc_ZeroSizeDoesNotFree(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(48)
	fill(p, 48, 0x11)

	require.Nil(t, a.Realloc(p, 0))
	_, err := a.Resize(p, 0)
	require.ErrorIs(t, err, ErrZeroSize)

	require.Equal(t, uintptr(48), a.SizeOf(p), "p must still be allocated")
	require.Zero(t, a.Stats().FreeBlocks)
	requireFilled(t, p, 48, 0x11)
}

func TestRealloc_NilActsAsMalloc(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Realloc(nil, 24)
	require.NotNil(t, p)
	require.Equal(t, uintptr(24), a.SizeOf(p))
	require.Nil(t, a.Realloc(nil, 0))
}

func TestRealloc_FailureKeepsOriginal(t *testing.T) {
	a := newTestAllocator(t, format.PageSize)

	p := a.Malloc(100)
	fill(p, 100, 0xC3)
	before := a.Stats()

	q, err := a.Resize(p, 2*format.PageSize)
	require.Nil(t, q)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Nil(t, a.Realloc(p, 2*format.PageSize))

	require.Equal(t, before, a.Stats())
	require.Equal(t, uintptr(100), a.SizeOf(p))
	requireFilled(t, p, 100, 0xC3)
}

func TestRealloc_ForeignPointer(t *testing.T) {
	a := newTestAllocator(t, testCapacity)
	var x [64]byte

	_, err := a.Resize(unsafe.Pointer(&x[16]), 128)
	require.ErrorIs(t, err, ErrBadPointer)
}

func TestFree_NilIsNoop(t *testing.T) {
	a := newTestAllocator(t, testCapacity)
	_ = a.Malloc(8)
	before := a.Stats()

	require.NotPanics(t, func() { a.Free(nil) })
	require.Equal(t, before, a.Stats())
}

func TestFree_NonTailMarksFree(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(40)
	_ = a.Malloc(40)
	breakBefore := a.Stats().Break

	a.Free(p)
	s := a.Stats()
	require.Equal(t, breakBefore, s.Break)
	require.Equal(t, 2, s.Blocks)
	require.Equal(t, 1, s.FreeBlocks)
	require.Equal(t, uint64(40), s.Free)
	require.Zero(t, a.SizeOf(p))
}

func TestFree_AlreadyFreeIsIdempotent(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(40)
	_ = a.Malloc(40)
	a.Free(p)
	before := a.Stats()
	blocks := a.Blocks()

	a.Free(p)
	require.Equal(t, before, a.Stats())
	require.Equal(t, blocks, a.Blocks())
}

func TestFree_ForeignPointerIgnored(t *testing.T) {
	a := newTestAllocator(t, testCapacity)
	_ = a.Malloc(16)
	before := a.Stats()

	var x [32]byte
	require.NotPanics(t, func() { a.Free(unsafe.Pointer(&x[0])) })
	require.Equal(t, before, a.Stats())
	require.NoError(t, a.Check())
}

func TestFree_FreedPredecessorBecomesFreeTail(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	pa := a.Malloc(10)
	pb := a.Calloc(10, 8)
	require.NotNil(t, pb)
	requireFilled(t, pb, 80, 0)

	a.Free(pa)
	breakBefore := a.Stats().Break

	a.Free(pb)
	s := a.Stats()
	require.Equal(t, breakBefore-(format.HeaderSize+80), s.Break,
		"boundary retracts by exactly header + 80")

	// a is now the tail, still resident and free: no cascade.
	require.Equal(t, 1, s.Blocks)
	require.Equal(t, 1, s.FreeBlocks)
	require.Equal(t, uint64(format.HeaderSize+16), s.Break)
	require.NoError(t, a.Check())
}

func TestFree_RetractsExactExtent(t *testing.T) {
	b := newRecordingBoundary(t, testCapacity)
	a := New(b, nil)

	_ = a.Malloc(10)
	p := a.Calloc(10, 8)
	a.Free(p)

	require.Equal(t, []uint64{format.HeaderSize + 80}, b.retracts)
	require.NoError(t, a.Check())
}

func TestAllocate_InjectedExtendFailure(t *testing.T) {
	b := newRecordingBoundary(t, testCapacity)
	a := New(b, nil)

	b.failExtend = true
	p, err := a.Allocate(64)
	require.Nil(t, p)
	require.True(t, errors.Is(err, ErrOutOfMemory), "got %v", err)
	require.Zero(t, a.Stats().Blocks)

	p, err = a.Allocate(64)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestAllocator_Blocks(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	p := a.Malloc(10)
	_ = a.Malloc(100)
	a.Free(p)

	blocks := a.Blocks()
	require.Len(t, blocks, 2)

	assert.Equal(t, BlockInfo{Offset: 0, Payload: format.HeaderSize, Size: 10, Extent: format.HeaderSize + 16, Free: true}, blocks[0])
	assert.Equal(t, uint64(format.HeaderSize+16), blocks[1].Offset)
	assert.Equal(t, uint64(100), blocks[1].Size)
	assert.False(t, blocks[1].Free)

	off, ok := a.Offset(p)
	require.True(t, ok)
	require.Equal(t, blocks[0].Payload, off)
}

func TestAllocator_StatsOverhead(t *testing.T) {
	a := newTestAllocator(t, testCapacity)

	_ = a.Malloc(10)
	_ = a.Malloc(32)

	s := a.Stats()
	require.Equal(t, uint64(42), s.InUse)
	require.Equal(t, uint64(2*format.HeaderSize+6), s.Overhead)
	require.Equal(t, s.Break, s.InUse+s.Free+s.Overhead)
	require.Equal(t, uint64(testCapacity), s.Capacity)
}

func TestAllocator_CloseInvalidatesRegion(t *testing.T) {
	a, err := Open(&Options{Capacity: format.PageSize})
	require.NoError(t, err)

	p := a.Malloc(16)
	require.NotNil(t, p)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	require.Nil(t, a.Malloc(16))
	require.NotPanics(t, func() { a.Free(p) })
	require.Zero(t, a.SizeOf(p))
}

func TestNew_NilBoundaryPanics(t *testing.T) {
	require.Panics(t, func() { New(nil, nil) })
}

func TestAllocator_RandomOpsKeepInvariants(t *testing.T) {
	a := newTestAllocator(t, 4*testCapacity)
	rng := rand.New(rand.NewSource(7))

	type live struct {
		p    unsafe.Pointer
		size int
		tag  byte
	}
	var blocks []live

	for i := range 2000 {
		switch op := rng.Intn(4); {
		case op <= 1 || len(blocks) == 0:
			size := 1 + rng.Intn(512)
			p := a.Malloc(uintptr(size))
			require.NotNil(t, p, "step %d", i)
			tag := byte(i)
			fill(p, size, tag)
			blocks = append(blocks, live{p, size, tag})
		case op == 2:
			j := rng.Intn(len(blocks))
			requireFilled(t, blocks[j].p, blocks[j].size, blocks[j].tag)
			a.Free(blocks[j].p)
			blocks = append(blocks[:j], blocks[j+1:]...)
		default:
			j := rng.Intn(len(blocks))
			size := blocks[j].size + rng.Intn(256)
			q := a.Realloc(blocks[j].p, uintptr(size))
			require.NotNil(t, q, "step %d", i)
			requireFilled(t, q, blocks[j].size, blocks[j].tag)
			fill(q, size, blocks[j].tag)
			blocks[j].p, blocks[j].size = q, size
		}
		if i%100 == 0 {
			require.NoError(t, a.Check(), "step %d", i)
		}
	}

	for _, b := range blocks {
		requireFilled(t, b.p, b.size, b.tag)
	}
	require.NoError(t, a.Check())
}
