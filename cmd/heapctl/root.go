package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	logEnabled bool
	capacity   string
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Run and inspect traces against the heapkit allocator",
	Long: `heapctl drives the heapkit first-fit allocator from the command line.
It replays allocation scripts, prints how the heap boundary moves, and can
step through a script interactively.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&logEnabled, "log", false, "Write a debug log to ~/.heapkit/logs")
	rootCmd.PersistentFlags().
		StringVar(&capacity, "capacity", "", "Heap reservation size, e.g. 64KiB or 16MiB (default $HEAPKIT_CAPACITY or 1GiB)")
}

func execute() {
	err := rootCmd.Execute()
	if cerr := logger.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	path, err := logger.Init(logger.Options{Enabled: logEnabled, Level: level})
	if err != nil {
		printError("failed to init logging: %v\n", err)
		return nil
	}
	if path != "" {
		printVerbose("Logging to %s\n", path)
	}
	logger.Info("heapctl starting", "command", cmd.Name(), "args", args)
	return nil
}

// allocatorOptions maps the global flags onto allocator options.
func allocatorOptions() (*alloc.Options, error) {
	opts := alloc.DefaultOptions()
	if capacity != "" {
		n, err := humanize.ParseBytes(capacity)
		if err != nil {
			return nil, fmt.Errorf("invalid --capacity %q: %w", capacity, err)
		}
		opts.Capacity = n
	}
	if logEnabled {
		opts.Logger = logger.L
	}
	return opts, nil
}

// openAllocator opens a private allocator for one command.
func openAllocator() (*alloc.Allocator, error) {
	opts, err := allocatorOptions()
	if err != nil {
		return nil, err
	}
	a, err := alloc.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve heap: %w", err)
	}
	logger.Debug("heap reserved", "capacity", opts.Capacity)
	return a, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
