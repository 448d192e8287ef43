package alloc

import (
	"sync"
	"unsafe"
)

var (
	defaultOnce sync.Once
	defaultA    *Allocator
	defaultErr  error
)

// Default returns the process-wide Allocator, reserving its region on first
// use with DefaultOptions. It lives for the rest of the process.
func Default() (*Allocator, error) {
	defaultOnce.Do(func() {
		defaultA, defaultErr = Open(DefaultOptions())
	})
	return defaultA, defaultErr
}

// Malloc allocates from the process-wide Allocator.
func Malloc(size uintptr) unsafe.Pointer {
	a, err := Default()
	if err != nil {
		return nil
	}
	return a.Malloc(size)
}

// Calloc allocates zeroed memory from the process-wide Allocator.
func Calloc(count, elemSize uintptr) unsafe.Pointer {
	a, err := Default()
	if err != nil {
		return nil
	}
	return a.Calloc(count, elemSize)
}

// Realloc resizes a block owned by the process-wide Allocator.
func Realloc(p unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	a, err := Default()
	if err != nil {
		return nil
	}
	return a.Realloc(p, newSize)
}

// Free releases a block owned by the process-wide Allocator.
func Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	a, err := Default()
	if err != nil {
		return
	}
	a.Free(p)
}
