// Package scan walks a folder tree and collects candidate image paths
// for the duplicate check, categorizing everything else by extension.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"photodedup/internal/config"
	"photodedup/internal/logging"
)

// noExt buckets files without an extension in the summary counters.
const noExt = ".NO_EXT"

// Summary describes one folder scan.
type Summary struct {
	TotalFiles     int
	ImageFiles     map[string]int // extension -> count
	OtherFiles     map[string]int
	CandidatePaths []string
	Duration       time.Duration
}

// Scanner finds candidate images under a folder.
type Scanner struct {
	cfg *config.Config
}

// NewScanner creates a Scanner using the configured extension set.
func NewScanner(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// ScanFolder walks folder recursively. Unreadable entries are skipped;
// only a failure to walk the root itself is an error. Candidate paths
// are returned sorted for deterministic downstream processing.
func (s *Scanner) ScanFolder(folder string) (*Summary, error) {
	logger := logging.Get("scan")
	logger.Info("starting folder scan", "folder", folder)
	start := time.Now()

	summary := &Summary{
		ImageFiles: make(map[string]int),
		OtherFiles: make(map[string]int),
	}

	var mu sync.Mutex
	walkConf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&walkConf, folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == folder {
				return err
			}
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == "" {
			ext = noExt
		}

		mu.Lock()
		defer mu.Unlock()
		summary.TotalFiles++
		if s.cfg.IsAllowedExtension(ext) {
			summary.ImageFiles[ext]++
			summary.CandidatePaths = append(summary.CandidatePaths, path)
		} else {
			summary.OtherFiles[ext]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk folder: %w", err)
	}

	sort.Strings(summary.CandidatePaths)
	summary.Duration = time.Since(start)
	logger.Info("folder scan completed",
		"files", summary.TotalFiles, "candidates", len(summary.CandidatePaths),
		"elapsed", summary.Duration)
	return summary, nil
}
