package format

// Align16 returns n aligned up to the next 16-byte boundary.
// Used for block extents so the following header and payload stay aligned.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n uint64) uint64 {
	return (n + AlignmentMask) &^ AlignmentMask
}

// AlignPage returns n aligned up to the next 4KB boundary.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n uint64) uint64 {
	return (n + PageMask) &^ PageMask
}

// Extent returns the number of bytes a block with the given payload size
// occupies in the region, header included. The second result is false when
// the computation overflows.
func Extent(size uint64) (uint64, bool) {
	if size > ^uint64(0)-HeaderSize-AlignmentMask {
		return 0, false
	}
	return HeaderSize + Align16(size), true
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n uint64) bool {
	return n&AlignmentMask == 0
}
