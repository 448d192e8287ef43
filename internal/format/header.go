package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Header describes a block header. Each block begins with a 0x20-byte header
// with the following structure (little-endian):
//
//	Offset  Size  Field
//	0x00    4     'b' 'l' 'k' '1'
//	0x04    4     Flags (bit 0 = free)
//	0x08    8     Requested payload size in bytes
//	0x10    8     Offset of the next header + 1 (0 = last block)
//	0x18    8     Reserved, zero
//
// The payload starts at header offset + HeaderSize.
type Header struct {
	Size    uint64
	Free    bool
	Next    uint64 // offset of the next header, valid when HasNext
	HasNext bool
}

// Extent returns the number of region bytes the block occupies.
func (h Header) Extent() uint64 {
	n, _ := Extent(h.Size)
	return n
}

// ReadHeader validates the header located at off within b and decodes it.
func ReadHeader(b []byte, off uint64) (Header, error) {
	if !IsAligned(off) {
		return Header{}, fmt.Errorf("header at %#x: %w", off, ErrMisaligned)
	}
	head, ok := buf.Slice(b, off, HeaderSize)
	if !ok {
		return Header{}, fmt.Errorf("header at %#x: %w", off, ErrTruncated)
	}
	if !bytes.Equal(head[:SignatureSize], BlockSignature) {
		return Header{}, fmt.Errorf("header at %#x: %w", off, ErrSignatureMismatch)
	}
	flags := buf.U32LE(head[FlagsOffset:])
	next := buf.U64LE(head[NextOffset:])
	h := Header{
		Size: buf.U64LE(head[SizeOffset:]),
		Free: flags&FlagFree != 0,
	}
	if next != NoNext {
		h.Next, h.HasNext = next-1, true
	}
	return h, nil
}

// WriteHeader encodes h at off within b. The caller guarantees
// b[off:off+HeaderSize] is in bounds.
func WriteHeader(b []byte, off uint64, h Header) {
	o := int(off)
	copy(b[o+SignatureOffset:o+SignatureOffset+SignatureSize], BlockSignature)
	var flags uint32
	if h.Free {
		flags |= FlagFree
	}
	PutU32(b, o+FlagsOffset, flags)
	PutU64(b, o+SizeOffset, h.Size)
	putNext(b, o, h.Next, h.HasNext)
	PutU64(b, o+ReservedOffset, 0)
}

// SetFree flips the free flag of the header at off.
func SetFree(b []byte, off uint64, free bool) {
	o := int(off)
	flags := ReadU32(b, o+FlagsOffset)
	if free {
		flags |= FlagFree
	} else {
		flags &^= FlagFree
	}
	PutU32(b, o+FlagsOffset, flags)
}

// SetNext rewrites the forward link of the header at off.
func SetNext(b []byte, off, next uint64, hasNext bool) {
	putNext(b, int(off), next, hasNext)
}

// ClearHeader wipes the header at off so a stale signature can never be
// mistaken for a live block.
func ClearHeader(b []byte, off uint64) {
	clear(b[off : off+HeaderSize])
}

func putNext(b []byte, o int, next uint64, hasNext bool) {
	v := uint64(NoNext)
	if hasNext {
		v = next + 1
	}
	PutU64(b, o+NextOffset, v)
}
