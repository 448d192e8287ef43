package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/internal/trace"
)

var numberPrinter = message.NewPrinter(language.English)

func formatBytes(n uint64) string {
	return humanize.IBytes(n)
}

func formatNumber(n uint64) string {
	return numberPrinter.Sprintf("%d", n)
}

// formatMove renders a break change as "+80" or "-224", or "=" when the
// break did not move.
func formatMove(d int64) string {
	switch {
	case d > 0:
		return fmt.Sprintf("+%d", d)
	case d < 0:
		return fmt.Sprintf("%d", d)
	}
	return "="
}

// formatResult describes what an op returned.
func formatResult(ev trace.Event) string {
	switch ev.Op.Kind {
	case trace.KindMalloc, trace.KindCalloc, trace.KindRealloc:
		if ev.Null {
			if ev.Reason != "" {
				return "nil (" + ev.Reason + ")"
			}
			return "nil"
		}
		return fmt.Sprintf("%s @ %#x", ev.Op.Dest, ev.Offset)
	case trace.KindCheck:
		return "ok"
	}
	return ""
}

// printStats writes the stats block shared by run and demo.
func printStats(s alloc.Stats) {
	printInfo("Heap:\n")
	printInfo("  Break: %s (%s bytes)\n", formatBytes(s.Break), formatNumber(s.Break))
	printInfo("  Capacity: %s\n", formatBytes(s.Capacity))
	printInfo("  Blocks: %d (%d free)\n", s.Blocks, s.FreeBlocks)
	printInfo("  In use: %s bytes\n", formatNumber(s.InUse))
	printInfo("  Free: %s bytes\n", formatNumber(s.Free))
	printInfo("  Overhead: %s bytes\n", formatNumber(s.Overhead))
	printInfo("  Extends/Retracts/Reuses: %d/%d/%d\n", s.Extends, s.Retracts, s.Reuses)
}

// printBlocks writes one line per resident block.
func printBlocks(blocks []alloc.BlockInfo) {
	if len(blocks) == 0 {
		printInfo("  (empty)\n")
		return
	}
	for _, b := range blocks {
		state := "live"
		if b.Free {
			state = "free"
		}
		printInfo("  %#08x  %-4s  size %-8s extent %s\n", b.Offset, state, formatNumber(b.Size), formatNumber(b.Extent))
	}
}

func rule(n int) string {
	return strings.Repeat("═", n)
}
