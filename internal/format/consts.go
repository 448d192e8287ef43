// Package format houses the block header layout used by the allocator. Every
// block in a region begins with a fixed-size header followed by its payload;
// this package is the only place that knows where the header fields live.
package format

// BlockSignature is the four-byte signature at the start of every block header.
// Layout:
//
//	0x00  'b' 'l' 'k' '1'
var BlockSignature = []byte{'b', 'l', 'k', '1'}

const (
	// HeaderSize is the size of a block header in bytes. It is a multiple of
	// Alignment so a payload that starts right after it stays aligned.
	HeaderSize = 0x20

	// Alignment is the alignment unit for every payload returned by the allocator.
	Alignment = 16

	// AlignmentMask is the bitmask used for aligning to Alignment (Alignment - 1).
	AlignmentMask = Alignment - 1

	// PageSize is the granularity at which retracted memory is handed back to
	// the operating system.
	PageSize = 0x1000

	// PageMask is the bitmask used for aligning to PageSize (PageSize - 1).
	PageMask = PageSize - 1

	// Header field offsets.
	SignatureOffset = 0x00
	SignatureSize   = 4
	FlagsOffset     = 0x04
	SizeOffset      = 0x08
	NextOffset      = 0x10
	ReservedOffset  = 0x18

	// FlagFree marks a block whose payload is available for reuse.
	FlagFree = 0x1

	// NoNext is the encoded value of the next field for the last block.
	NoNext = 0
)
