package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photodedup/internal/detect"
	"photodedup/internal/perflog"
	"photodedup/internal/scan"
	"photodedup/internal/storage"
)

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Scan a folder for visually duplicate images",
	Long: `Scan a folder recursively and detect duplicate groups.

The scan will:
1. Collect candidate images by extension (files below the minimum size
   are excluded)
2. Compute a difference hash for each image in parallel
3. Group images whose hashes lie within the Hamming distance threshold,
   directly or transitively
4. Store the results for 'list', 'select', and 'review'

Example:
  photodedup scan ./photos
  photodedup scan /path/to/images --threshold 3`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	start := time.Now()

	absFolder, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(absFolder)
	if err != nil {
		return fmt.Errorf("folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absFolder)
	}

	fmt.Printf("Scanning: %s\n", absFolder)
	fmt.Printf("Threshold: %d (Hamming distance)\n\n", cfg.Threshold)

	summary, err := scan.NewScanner(cfg).ScanFolder(absFolder)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	fmt.Printf("Files found: %d (%d candidate images)\n",
		summary.TotalFiles, len(summary.CandidatePaths))

	lastLine := ""
	progress := func(percent int, message string) {
		if lastLine != "" {
			fmt.Print("\r" + strings.Repeat(" ", len(lastLine)) + "\r")
		}
		lastLine = fmt.Sprintf("[%3d%%] %s", percent, message)
		fmt.Print(lastLine)
	}

	detector := detect.New(cfg)
	stats, allFileData, groups, err := detector.Run(cmd.Context(), summary.CandidatePaths, cfg.Threshold, progress)
	if err != nil {
		return fmt.Errorf("duplicate check failed: %w", err)
	}
	stats.ScanTime = summary.Duration
	fmt.Println()

	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	if err := store.SaveRun(absFolder, cfg.Threshold, stats, allFileData, groups); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	var reclaimable int64
	duplicates := 0
	for _, g := range groups {
		duplicates += len(g) - 1
		for _, path := range g[1:] {
			if meta, ok := allFileData[path]; ok {
				reclaimable += meta.Size
			}
		}
	}

	fmt.Println()
	fmt.Println("=== Scan Complete ===")
	fmt.Printf("Images hashed:    %d (%d failed)\n", stats.ImagesHashed, stats.FailedFiles)
	fmt.Printf("Duplicate groups: %d\n", stats.GroupsFound)
	fmt.Printf("Extra copies:     %d (up to %s reclaimable)\n",
		duplicates, humanize.IBytes(uint64(reclaimable)))

	if pl, err := perflog.New(cfg.PerfLogPath); err == nil {
		pl.LogRun(perflog.Record{
			Timestamp:      time.Now(),
			Folder:         absFolder,
			Mode:           "Manual review",
			Threshold:      cfg.Threshold,
			Stats:          *stats,
			TotalTime:      time.Since(start),
			BytesReclaimed: reclaimable,
		})
	}

	if len(groups) > 0 {
		fmt.Println()
		fmt.Println("Run 'photodedup list' to see duplicate groups")
		fmt.Println("Run 'photodedup select --strategy KEEP_BEST_QUALITY' to preview automatic selection")
	}
	return nil
}
