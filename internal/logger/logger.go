// Package logger holds the process-global slog logger used by heapctl.
package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// L is the global logger. It discards everything until Init enables it.
var L = discard()

const (
	logPrefix  = "heapctl-"
	logSuffix  = ".log"
	dateLayout = "2006-01-02"

	defaultRetention = 30 * 24 * time.Hour
)

// Options configures Init.
type Options struct {
	Enabled bool // false discards all output

	// LogDir receives one file per day.
	// Default: ~/.heapkit/logs
	LogDir string

	// Level is the minimum level written.
	// Default: slog.LevelInfo
	Level slog.Level

	// Retention is how long old daily files are kept.
	// Default: 30 days
	Retention time.Duration
}

var (
	mu   sync.Mutex
	file *os.File
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Init points L at today's log file and returns its path, or "" when
// logging is disabled. Calling Init again closes the previous file.
func Init(opts Options) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	if !opts.Enabled {
		return "", nil
	}

	dir := opts.LogDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".heapkit", "logs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	retention := opts.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	now := time.Now()
	cleanOldLogs(dir, now.Add(-retention))

	path := filepath.Join(dir, logPrefix+now.Format(dateLayout)+logSuffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}

	file = f
	L = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level}))
	return path, nil
}

// Close flushes and closes the log file and resets L to discard.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	L = discard()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// cleanOldLogs removes daily files dated before cutoff. Errors are ignored.
func cleanOldLogs(dir string, cutoff time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		day, ok := strings.CutPrefix(name, logPrefix)
		if !ok {
			continue
		}
		day, ok = strings.CutSuffix(day, logSuffix)
		if !ok {
			continue
		}
		t, err := time.Parse(dateLayout, day)
		if err != nil || !t.Before(cutoff) {
			continue
		}
		_ = os.Remove(filepath.Join(dir, name))
	}
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
