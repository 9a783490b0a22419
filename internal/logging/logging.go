// Package logging configures application logging on top of
// charmbracelet/log: a shared file logger plus optional console output,
// with per-component prefixes.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// rotateAt is the file size at which the log is rolled over to ".old".
const rotateAt = 5 << 20

// Config configures the logging system.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Path is the log file; empty logs to stderr only.
	Path string

	// Console additionally mirrors log output to stderr.
	Console bool
}

var (
	mu      sync.Mutex
	root    *log.Logger
	logFile *os.File
)

// Init sets up the shared logger. Safe to call once per process; later
// calls replace the previous configuration.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	var writers []io.Writer
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		rotate(cfg.Path)
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		if logFile != nil {
			logFile.Close()
		}
		logFile = f
		writers = append(writers, f)
	}
	if cfg.Console || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	root = log.NewWithOptions(io.MultiWriter(writers...), log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return nil
}

// Get returns a logger prefixed with the given component name.
func Get(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	}
	return root.WithPrefix(component)
}

// Close flushes and closes the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// rotate renames an oversized log file to <name>.old, replacing any
// previous rollover.
func rotate(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() < rotateAt {
		return
	}
	os.Rename(path, path+".old")
}
