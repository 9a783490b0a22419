package cmd

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"photodedup/internal/fileutil"
	"photodedup/internal/review"
	"photodedup/internal/storage"
)

const skipLabel = "(skip this group)"

var (
	reviewRecycle bool
	reviewMoveTo  string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manually review duplicate groups one at a time",
	Long: `Walk the duplicate groups from the last scan interactively.

For each group, choose the one file to keep; the rest of the group is
marked for removal. Groups can be skipped. Nothing is touched until
every group has been decided and the final summary is confirmed.

Example:
  photodedup review
  photodedup review --move-to ./duplicates`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewRecycle, "recycle", true,
		"Send removed files to the system trash")
	reviewCmd.Flags().StringVar(&reviewMoveTo, "move-to", "",
		"Move removed files to this folder instead of recycling")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
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

	machine := review.NewMachine(groups)
	for {
		state := machine.Current()
		if state.Phase == review.Done {
			break
		}
		g := machine.Group()

		items := make([]string, 0, len(g)+1)
		for _, path := range g {
			label := path
			if m, ok := meta[path]; ok {
				label = fmt.Sprintf("%s  (%s px, %s)", path,
					humanize.Comma(int64(m.Resolution)), humanize.IBytes(uint64(m.Size)))
			}
			items = append(items, label)
		}
		items = append(items, skipLabel)

		prompt := promptui.Select{
			Label: fmt.Sprintf("Group %d of %d — keep which file?", state.GroupIndex+1, len(groups)),
			Items: items,
			Size:  len(items),
		}
		idx, _, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) {
				fmt.Println("Review interrupted; no files were touched.")
				return nil
			}
			return fmt.Errorf("prompt failed: %w", err)
		}

		if idx == len(g) {
			err = machine.Skip()
		} else {
			err = machine.Approve(g[idx])
		}
		if err != nil {
			return err
		}
		if err := machine.Advance(); err != nil {
			return err
		}
	}

	sel := machine.Selection()
	if len(sel.Remove) == 0 {
		fmt.Println("Nothing marked for removal.")
		return nil
	}
	fmt.Printf("\n%d files marked for removal:\n", len(sel.Remove))
	for _, path := range sel.Remove {
		fmt.Printf("  ✗ %s\n", path)
	}
	if !confirm("Proceed?") {
		fmt.Println("Aborted. No files were touched.")
		return nil
	}

	for _, path := range sel.Remove {
		var err error
		if reviewMoveTo != "" {
			err = fileutil.MoveFile(path, reviewMoveTo)
		} else if reviewRecycle {
			err = fileutil.Recycle(path)
		}
		if err != nil {
			return err
		}
	}
	fmt.Println("Done.")
	return nil
}
