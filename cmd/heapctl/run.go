package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	runBlocks bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runBlocks, "blocks", false, "Print the block map after the run")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Replay an allocation script",
		Long: `The run command replays an allocation script against a fresh heap and
prints every operation with the boundary movement it caused.

Script lines look like:
  a = malloc 100
  b = calloc 10 8
  c = realloc a 200
  write c 0xAB 16
  check c 0xAB 16
  free b
  stats

Use "-" to read the script from stdin.

Example:
  heapctl run trace.txt
  heapctl run trace.txt --capacity 64KiB --blocks
  heapctl run trace.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), args)
		},
	}
	return cmd
}

// RunReport is the JSON form of a run.
type RunReport struct {
	Script string            `json:"script"`
	Events []trace.Event     `json:"events"`
	Stats  alloc.Stats       `json:"stats"`
	Blocks []alloc.BlockInfo `json:"blocks,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func readScript(path string) ([]trace.Op, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	ops, err := trace.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return ops, nil
}

func runScript(ctx context.Context, args []string) error {
	path := args[0]
	if ctx == nil {
		ctx = context.Background()
	}

	ops, err := readScript(path)
	if err != nil {
		return err
	}
	printVerbose("Parsed %d operations from %s\n", len(ops), path)

	a, err := openAllocator()
	if err != nil {
		return err
	}
	defer a.Close()
	printVerbose("Reserved %s heap\n", formatBytes(a.Stats().Capacity))

	report := RunReport{Script: path}
	if !jsonOut {
		printInfo("%-4s  %-28s  %-10s  %-8s  %s\n", "LINE", "OP", "BREAK", "MOVE", "RESULT")
	}

	runner := trace.NewRunner(a)
	runErr := runner.Run(ctx, ops, func(ev trace.Event) error {
		logger.Debug("op", "line", ev.Op.Line, "op", ev.Op.String(), "break", ev.BreakAfter)
		report.Events = append(report.Events, ev)
		if jsonOut {
			return nil
		}
		printInfo("%-4d  %-28s  %-10s  %-8s  %s\n",
			ev.Op.Line, ev.Op.String(), fmt.Sprintf("%#x", ev.BreakAfter), formatMove(ev.Moved()), formatResult(ev))
		if ev.Stats != nil {
			printStats(*ev.Stats)
		}
		return nil
	})
	if runErr != nil {
		logger.Error("run failed", "script", path, "error", runErr)
		report.Error = runErr.Error()
	}

	checkErr := a.Check()
	report.Stats = a.Stats()
	if runBlocks {
		report.Blocks = a.Blocks()
	}

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printInfo("\n")
		printStats(report.Stats)
		if runBlocks {
			printInfo("\nBlocks:\n")
			printBlocks(report.Blocks)
		}
	}

	if runErr != nil {
		return runErr
	}
	if checkErr != nil {
		return fmt.Errorf("heap check failed: %w", checkErr)
	}
	return nil
}
