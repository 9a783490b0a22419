package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photodedup/internal/storage"
)

var (
	listJSON    bool
	listSummary bool
	listLimit   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List duplicate groups from the last scan",
	Long: `Display the duplicate groups detected by the last scan.

Each group shows its member files with resolution, size, and
modification time.

Example:
  photodedup list           # Show first 10 groups
  photodedup list -n 0      # Show all groups
  photodedup list --json    # Machine-readable output`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output groups as JSON")
	listCmd.Flags().BoolVarP(&listSummary, "summary", "s", false, "Compact one-line-per-group view")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "Maximum groups to show (0 = all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	groups, err := store.Groups()
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	if len(groups) == 0 {
		fmt.Println("No duplicate groups found. Run 'photodedup scan <folder>' first.")
		return nil
	}

	if listJSON {
		return json.NewEncoder(os.Stdout).Encode(groups)
	}

	meta, err := store.FileData()
	if err != nil {
		return fmt.Errorf("failed to load file data: %w", err)
	}

	shown := groups
	if listLimit > 0 && len(groups) > listLimit {
		shown = groups[:listLimit]
	}

	for _, g := range shown {
		if listSummary {
			fmt.Printf("Group %d: %d files\n", g.ID, len(g.Paths))
			continue
		}
		fmt.Printf("=== Group %d (%d files) ===\n", g.ID, len(g.Paths))
		for _, path := range g.Paths {
			m, ok := meta[path]
			if !ok {
				fmt.Printf("  %s\n", path)
				continue
			}
			fmt.Printf("  %-50s %9s px  %9s  %s\n",
				filepath.Base(path), humanize.Comma(int64(m.Resolution)),
				humanize.IBytes(uint64(m.Size)), m.ModTime.Format("2006-01-02 15:04"))
		}
		fmt.Println()
	}
	if len(shown) < len(groups) {
		fmt.Printf("... and %d more groups. Use -n 0 to show all.\n", len(groups)-len(shown))
	}
	return nil
}
