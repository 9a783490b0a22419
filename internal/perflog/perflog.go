// Package perflog appends human-readable per-run summaries to a
// persistent performance log, one block per duplicate-check run.
package perflog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"photodedup/internal/models"
)

const header = "--- Performance Log for Duplicate Check ---\n\n"

// discardSample caps how many removed files a run record lists.
const discardSample = 20

// Record is everything a run block reports.
type Record struct {
	Timestamp      time.Time
	Folder         string
	Mode           string // "Manual review" or "Automatic selection"
	Strategy       string // set for automatic selection runs
	Threshold      int
	Stats          models.Stats
	TotalTime      time.Duration
	MarkedRemoval  int
	FilesMoved     int
	BytesReclaimed int64
	Discarded      []string
}

// Logger appends run records to the performance log file.
type Logger struct {
	path string
}

// New creates the log file with a header if it does not exist yet.
func New(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log folder: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
			return nil, fmt.Errorf("failed to create performance log: %w", err)
		}
	}
	return &Logger{path: path}, nil
}

// LogRun appends a formatted summary of one run.
func (l *Logger) LogRun(rec Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Run: %s ---\n", rec.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Folder: %s\n", rec.Folder)
	fmt.Fprintf(&b, "Total time: %.2f seconds\n", rec.TotalTime.Seconds())

	b.WriteString("\n[Settings]\n")
	fmt.Fprintf(&b, "  Mode: %s\n", rec.Mode)
	if rec.Strategy != "" {
		fmt.Fprintf(&b, "  Strategy: %s\n", rec.Strategy)
	}
	fmt.Fprintf(&b, "  Sensitivity (threshold): %d\n", rec.Threshold)

	b.WriteString("\n[Statistics]\n")
	fmt.Fprintf(&b, "  Images found for check: %d\n", rec.Stats.FilesProcessed)
	fmt.Fprintf(&b, "  Images that failed hashing: %d\n", rec.Stats.FailedFiles)
	fmt.Fprintf(&b, "  Images hashed: %d\n", rec.Stats.ImagesHashed)

	b.WriteString("\n[Time Usage Details (seconds)]\n")
	fmt.Fprintf(&b, "  Scanning folder:         %.2f\n", rec.Stats.ScanTime.Seconds())
	fmt.Fprintf(&b, "  Hashing images:          %.2f\n", rec.Stats.HashingTime.Seconds())
	fmt.Fprintf(&b, "  Comparison/grouping:     %.2f\n", rec.Stats.ComparisonTime.Seconds())
	if rec.Stats.SelectionTime > 0 {
		fmt.Fprintf(&b, "  Automatic selection:     %.2f\n", rec.Stats.SelectionTime.Seconds())
	}

	b.WriteString("\n[Result]\n")
	fmt.Fprintf(&b, "  Duplicate groups found: %d\n", rec.Stats.GroupsFound)
	fmt.Fprintf(&b, "  Files marked for removal: %d\n", rec.MarkedRemoval)
	if rec.FilesMoved > 0 {
		fmt.Fprintf(&b, "  Files moved: %d\n", rec.FilesMoved)
	}
	if rec.BytesReclaimed > 0 {
		fmt.Fprintf(&b, "  Space reclaimable: %s\n", humanize.IBytes(uint64(rec.BytesReclaimed)))
	}

	if len(rec.Discarded) > 0 {
		b.WriteString("\n[Discarded Files (sample)]\n")
		for i, path := range rec.Discarded {
			if i == discardSample {
				fmt.Fprintf(&b, "  ... and %d more.\n", len(rec.Discarded)-discardSample)
				break
			}
			fmt.Fprintf(&b, "  - %s\n", filepath.Base(path))
		}
	}

	b.WriteString(strings.Repeat("-", 50) + "\n\n")

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open performance log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write performance log: %w", err)
	}
	return nil
}
