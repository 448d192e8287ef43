// Package trace parses and replays allocator scripts.
//
// A script is one operation per line. Blank lines and text after '#' are
// ignored. Sizes accept plain numbers or units ("4KiB", "1MB").
//
//	a = malloc 100
//	b = calloc 10 8
//	c = realloc a 200      # a is moved into c
//	d = realloc nil 16     # same as malloc
//	write c 0xAB 16        # fill the first 16 bytes of c
//	check c 0xAB 16        # verify them
//	free b
//	stats
package trace

import (
	"fmt"
	"strings"
)

// Kind identifies a script operation.
type Kind uint8

const (
	KindMalloc Kind = iota + 1
	KindCalloc
	KindRealloc
	KindFree
	KindWrite
	KindCheck
	KindStats
)

var kindNames = map[Kind]string{
	KindMalloc:  "malloc",
	KindCalloc:  "calloc",
	KindRealloc: "realloc",
	KindFree:    "free",
	KindWrite:   "write",
	KindCheck:   "check",
	KindStats:   "stats",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText lets events encode the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// NilName is the reserved name for a null pointer in realloc and free.
const NilName = "nil"

// Op is one parsed script line.
type Op struct {
	Line int  `json:"line"`
	Kind Kind `json:"kind"`

	Dest string `json:"dest,omitempty"` // name assigned by malloc, calloc, realloc
	Src  string `json:"src,omitempty"`  // operand of realloc, free, write, check

	A    uint64 `json:"a,omitempty"`    // size, count, or byte count
	B    uint64 `json:"b,omitempty"`    // element size for calloc
	Fill byte   `json:"fill,omitempty"` // byte value for write and check
}

// String renders the op back in script syntax.
func (o Op) String() string {
	var sb strings.Builder
	if o.Dest != "" {
		fmt.Fprintf(&sb, "%s = ", o.Dest)
	}
	sb.WriteString(o.Kind.String())
	switch o.Kind {
	case KindMalloc:
		fmt.Fprintf(&sb, " %d", o.A)
	case KindCalloc:
		fmt.Fprintf(&sb, " %d %d", o.A, o.B)
	case KindRealloc:
		fmt.Fprintf(&sb, " %s %d", o.Src, o.A)
	case KindFree:
		fmt.Fprintf(&sb, " %s", o.Src)
	case KindWrite, KindCheck:
		fmt.Fprintf(&sb, " %s %#02x %d", o.Src, o.Fill, o.A)
	}
	return sb.String()
}
