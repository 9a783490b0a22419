package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photodedup/internal/config"
	"photodedup/internal/logging"
)

var (
	cfg       *config.Config
	threshold int
	workers   int
	dbPath    string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "photodedup",
	Short: "Find and manage visually duplicate images",
	Long: `photodedup finds visually duplicate or near-duplicate images in a
folder tree and helps decide which copies to keep.

It uses a difference hash (dhash) so duplicates are detected even after
resizing or recompression, groups transitively similar images, and can
apply deterministic selection policies per group.

Example usage:
  photodedup scan ./photos                       # Find duplicate groups
  photodedup list                                # Show the groups
  photodedup select --strategy KEEP_BEST_QUALITY # Preview automatic selection
  photodedup review                              # Decide group by group`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("threshold") {
			cfg.Threshold = threshold
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath = dbPath
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return logging.Init(logging.Config{
			Level:   cfg.LogLevel,
			Path:    cfg.LogPath,
			Console: verbose,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", config.DefaultThreshold,
		"Hamming distance threshold (0-64, lower = stricter)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Number of parallel workers for hashing (0 = one per CPU)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
		"Path to the results database (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Mirror log output to the console")
}
