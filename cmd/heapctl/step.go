package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/logger"
)

func init() {
	rootCmd.AddCommand(newStepCmd())
}

func newStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step <script>",
		Short: "Step through an allocation script interactively",
		Long: `The step command opens a terminal UI that runs an allocation script one
operation at a time, showing the block map and heap statistics after each.

Stepping backwards resets the heap and replays the script up to the previous
operation.

Example:
  heapctl step trace.txt
  heapctl step trace.txt --capacity 64KiB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(args)
		},
	}
	return cmd
}

func runStep(args []string) error {
	path := args[0]
	ops, err := readScript(path)
	if err != nil {
		return err
	}

	m, err := newStepModel(path, ops, openAllocator)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		_ = m.Close()
		return fmt.Errorf("error running TUI: %w", err)
	}

	if model, ok := final.(stepModel); ok {
		if err := model.Close(); err != nil {
			logger.Warn("error closing heap", "error", err)
		}
	}
	logger.Info("step exited normally", "script", path)
	return nil
}
