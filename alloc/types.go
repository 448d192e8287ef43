package alloc

// Boundary is the heap edge the allocator grows and shrinks. *brk.Region is
// the production implementation.
//
// The allocator is the only caller and always holds its lock, so
// implementations need no synchronization of their own.
type Boundary interface {
	// Extend moves the boundary forward by n bytes and returns the offset
	// where the new bytes begin (the old boundary). The boundary must be
	// unchanged on error.
	Extend(n uint64) (uint64, error)

	// Retract moves the boundary back by n bytes. n is always the extent of
	// the outermost block, which has just been unlinked.
	Retract(n uint64) error

	// Query returns the current boundary as an offset from Base.
	Query() uint64

	// Bytes returns the memory the boundary moves over, starting at Base.
	Bytes() []byte

	// Base returns the address of Bytes()[0].
	Base() uintptr
}

// Stats is a point-in-time summary of the allocator.
type Stats struct {
	Break    uint64 // current boundary offset
	Capacity uint64 // bytes the boundary can reach

	Blocks     int // resident blocks, live and free
	FreeBlocks int // resident blocks marked free

	InUse    uint64 // requested bytes of live blocks
	Free     uint64 // requested bytes of free resident blocks
	Overhead uint64 // header and padding bytes across all resident blocks

	Extends  uint64 // times the boundary grew
	Retracts uint64 // times the boundary shrank
	Reuses   uint64 // allocations served from a free block
}

// BlockInfo describes one resident block.
type BlockInfo struct {
	Offset  uint64 // header offset from the region base
	Payload uint64 // payload offset from the region base
	Size    uint64 // requested size
	Extent  uint64 // bytes occupied, header included
	Free    bool
}
