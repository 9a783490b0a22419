package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"photodedup/internal/fileutil"
	"photodedup/internal/models"
	"photodedup/internal/perflog"
	"photodedup/internal/selector"
	"photodedup/internal/storage"
)

var (
	selectStrategy string
	selectApply    bool
	selectRecycle  bool
	selectMoveTo   string
	selectSortTo   string
	selectYes      bool
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Apply an automatic selection strategy to the duplicate groups",
	Long: `Decide per duplicate group which files to keep, using a
deterministic policy:

  KEEP_BEST_QUALITY         Keep the single best file per group
                            (resolution, size, format, name, age)
  KEEP_LAST_EDITED          Keep the most recently modified file
  KEEP_ALL_UNIQUE_VERSIONS  Keep best quality AND last edited; the pair
                            can be sorted into Originals / Last Edited

Without --apply the selection is only printed. With --apply the
discarded files are recycled (default) or moved, and unique-version
pairs are sorted when --sort-to is given.

Example:
  photodedup select --strategy KEEP_BEST_QUALITY
  photodedup select --strategy KEEP_ALL_UNIQUE_VERSIONS --apply --sort-to ./sorted
  photodedup select --strategy KEEP_LAST_EDITED --apply --move-to ./duplicates`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().StringVar(&selectStrategy, "strategy", "KEEP_BEST_QUALITY",
		"Selection strategy identifier")
	selectCmd.Flags().BoolVar(&selectApply, "apply", false,
		"Execute the selection instead of previewing it")
	selectCmd.Flags().BoolVar(&selectRecycle, "recycle", true,
		"Send discarded files to the system trash")
	selectCmd.Flags().StringVar(&selectMoveTo, "move-to", "",
		"Move discarded files to this folder instead of recycling")
	selectCmd.Flags().StringVar(&selectSortTo, "sort-to", "",
		"Base folder for Originals / Last Edited sorting (unique versions only)")
	selectCmd.Flags().BoolVarP(&selectYes, "yes", "y", false,
		"Skip the confirmation prompt")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	start := time.Now()

	strategy, err := selector.ParseStrategy(selectStrategy)
	if err != nil {
		return err
	}

	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	stored, err := store.Groups()
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	if len(stored) == 0 {
		fmt.Println("No duplicate groups found. Run 'photodedup scan <folder>' first.")
		return nil
	}
	meta, err := store.FileData()
	if err != nil {
		return fmt.Errorf("failed to load file data: %w", err)
	}

	groups := make([][]string, len(stored))
	for i, g := range stored {
		groups[i] = g.Paths
	}

	sel, err := selector.New(cfg).Select(groups, meta, strategy)
	if err != nil {
		return err
	}

	fmt.Printf("Strategy: %s\n", strategy)
	fmt.Printf("Groups:   %d\n", len(groups))
	fmt.Printf("Files marked for removal: %d\n", len(sel.Remove))
	for _, path := range sel.Remove {
		fmt.Printf("  ✗ %s\n", path)
	}
	if len(sel.Sort) > 0 {
		fmt.Printf("Role pairs to sort: %d\n", len(sel.Sort))
		for _, pair := range sel.Sort {
			fmt.Printf("  original: %s\n  edited:   %s\n",
				filepath.Base(pair.Original), filepath.Base(pair.Edited))
		}
	}

	if !selectApply {
		fmt.Println("\nPreview only. Re-run with --apply to execute.")
		return nil
	}
	if len(sel.Remove) == 0 && len(sel.Sort) == 0 {
		fmt.Println("Nothing to do.")
		return nil
	}
	if !selectYes && !confirm(fmt.Sprintf("\nProcess %d files?", len(sel.Remove))) {
		fmt.Println("Aborted.")
		return nil
	}

	moved, err := applySelection(sel)
	if err != nil {
		return err
	}
	fmt.Printf("Done. %d files processed.\n", moved)

	if run, err := store.LastRun(); err == nil && run != nil {
		if pl, err := perflog.New(cfg.PerfLogPath); err == nil {
			stats := run.Stats
			stats.SelectionTime = time.Since(start)
			pl.LogRun(perflog.Record{
				Timestamp:     time.Now(),
				Folder:        run.Folder,
				Mode:          "Automatic selection",
				Strategy:      strategy.String(),
				Threshold:     run.Threshold,
				Stats:         stats,
				TotalTime:     time.Since(start),
				MarkedRemoval: len(sel.Remove),
				FilesMoved:    moved,
				Discarded:     sel.Remove,
			})
		}
	}
	return nil
}

// applySelection sorts role pairs first so the keepers are already out
// of the way, then removes the remains. Returns the number of files
// acted on.
func applySelection(sel models.Selection) (int, error) {
	count := 0
	if selectSortTo != "" && len(sel.Sort) > 0 {
		if err := fileutil.SortPairs(sel.Sort, selectSortTo); err != nil {
			return count, err
		}
		count += len(sel.Sort)
	}

	if selectMoveTo == "" && !selectRecycle {
		if len(sel.Remove) > 0 {
			fmt.Printf("Removal disabled (--recycle=false without --move-to); %d files left in place.\n", len(sel.Remove))
		}
		return count, nil
	}
	for _, path := range sel.Remove {
		var err error
		if selectMoveTo != "" {
			err = fileutil.MoveFile(path, selectMoveTo)
		} else {
			err = fileutil.Recycle(path)
		}
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
