package main

import (
	"fmt"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/alloc"
)

func init() {
	rootCmd.AddCommand(newDemoCmd())
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through malloc, calloc and free on a fresh heap",
		Long: `The demo command allocates ten ints, fills them, allocates a zeroed
array of ten 18-byte records, then frees both, printing the heap boundary
after every step.

Freeing the ints first leaves them resident as a free block; freeing the
array afterwards retracts the boundary by exactly its extent.

Example:
  heapctl demo
  heapctl demo --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
	return cmd
}

// DemoStep is one line of demo output.
type DemoStep struct {
	Action string `json:"action"`
	Offset uint64 `json:"offset,omitempty"`
	Break  uint64 `json:"break"`
	Moved  int64  `json:"moved"`
}

const (
	demoInts     = 10
	demoIntSize  = 4
	demoRecords  = 10
	demoRecordSz = 18
)

func runDemo() error {
	a, err := openAllocator()
	if err != nil {
		return err
	}
	defer a.Close()

	var steps []DemoStep
	last := a.Stats().Break
	record := func(action string, p unsafe.Pointer) {
		brk := a.Stats().Break
		step := DemoStep{Action: action, Break: brk, Moved: int64(brk) - int64(last)}
		if off, ok := a.Offset(p); ok {
			step.Offset = off
		}
		last = brk
		steps = append(steps, step)
		if !jsonOut {
			printInfo("%-34s break %-8s %s\n", action, fmt.Sprintf("%#x", brk), formatMove(step.Moved))
		}
	}

	if !jsonOut {
		printInfo("Heap demo\n%s\n", rule(40))
		record("start", nil)
	}

	ints := a.Malloc(demoInts * demoIntSize)
	if ints == nil {
		return fmt.Errorf("malloc(%d) failed", demoInts*demoIntSize)
	}
	record(fmt.Sprintf("malloc(%d)", demoInts*demoIntSize), ints)

	vals := unsafe.Slice((*int32)(ints), demoInts)
	for i := range vals {
		vals[i] = int32(i)
	}
	if !jsonOut {
		printVerbose("  ints = %v\n", vals)
	}

	recs := a.Calloc(demoRecords, demoRecordSz)
	if recs == nil {
		return fmt.Errorf("calloc(%d, %d) failed", demoRecords, demoRecordSz)
	}
	record(fmt.Sprintf("calloc(%d, %d)", demoRecords, demoRecordSz), recs)

	a.Free(ints)
	record("free(ints)", nil)
	a.Free(recs)
	record("free(records)", nil)

	if err := a.Check(); err != nil {
		return fmt.Errorf("heap check failed: %w", err)
	}

	if jsonOut {
		return printJSON(struct {
			Steps  []DemoStep        `json:"steps"`
			Stats  alloc.Stats       `json:"stats"`
			Blocks []alloc.BlockInfo `json:"blocks"`
		}{steps, a.Stats(), a.Blocks()})
	}

	printInfo("\n")
	printStats(a.Stats())
	printInfo("\nBlocks:\n")
	printBlocks(a.Blocks())
	return nil
}
