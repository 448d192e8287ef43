package alloc

import (
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/joshuapare/heapkit/brk"
)

const (
	// envCapacity overrides the default instance's reservation size,
	// e.g. HEAPKIT_CAPACITY=256MiB.
	envCapacity = "HEAPKIT_CAPACITY"

	// envLogAlloc enables debug logging of every boundary move on the
	// default instance.
	envLogAlloc = "HEAPKIT_LOG_ALLOC"
)

// Options configures an Allocator.
type Options struct {
	// Capacity is the size of the region reserved by Open. Ignored by New,
	// which takes an existing Boundary.
	// Default: brk.DefaultCapacity
	Capacity uint64

	// Logger receives boundary moves at debug level and misuse reports at
	// warn level. nil discards everything.
	// Default: nil
	Logger *slog.Logger
}

// DefaultOptions returns the options used by Default, with environment
// overrides applied.
func DefaultOptions() *Options {
	opts := &Options{Capacity: brk.DefaultCapacity}
	if v := os.Getenv(envCapacity); v != "" {
		if n, err := humanize.ParseBytes(v); err == nil && n > 0 {
			opts.Capacity = n
		}
	}
	if os.Getenv(envLogAlloc) != "" {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return opts
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
