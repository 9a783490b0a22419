// Package detect orchestrates a duplicate-check run: parallel metadata
// extraction, exact-hash collapse, BK-tree radius search, and
// incremental clustering into duplicate groups.
package detect

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"photodedup/internal/config"
	"photodedup/internal/group"
	"photodedup/internal/hash"
	"photodedup/internal/index"
	"photodedup/internal/logging"
	"photodedup/internal/models"
)

// extractTimeout bounds the decode+hash of a single file.
const extractTimeout = 30 * time.Second

// ProgressFunc receives percent [0, 100] and a status message. Calls may
// arrive from worker goroutines; percent is monotonic and reaches 100
// exactly when the run finishes.
type ProgressFunc func(percent int, message string)

// Detector runs the duplicate detection pipeline.
type Detector struct {
	cfg       *config.Config
	extractor *hash.Extractor
}

// New creates a Detector bound to the given configuration.
func New(cfg *config.Config) *Detector {
	return &Detector{cfg: cfg, extractor: hash.NewExtractor(cfg)}
}

// Run hashes all candidate paths in parallel, groups perceptual matches
// at the given Hamming threshold, and returns run statistics, the
// per-path metadata map, and the final duplicate groups.
//
// Per-file failures are absorbed and counted; any other failure aborts
// the run and is returned to the caller.
func (d *Detector) Run(ctx context.Context, paths []string, threshold int, progress ProgressFunc) (*models.Stats, map[string]*models.FileMetadata, [][]string, error) {
	if threshold < 0 || threshold > config.MaxThreshold {
		return nil, nil, nil, fmt.Errorf("threshold must be in [0, %d], got %d", config.MaxThreshold, threshold)
	}
	if progress == nil {
		progress = func(int, string) {}
	}
	logger := logging.Get("detect")

	stats := &models.Stats{FilesProcessed: len(paths)}
	allFileData := make(map[string]*models.FileMetadata, len(paths))

	if len(paths) == 0 {
		progress(100, "No image files to check.")
		return stats, allFileData, nil, nil
	}

	// Phase 1: validation and hashing, in parallel.
	start := time.Now()
	results, err := d.extractAll(ctx, paths, progress)
	if err != nil {
		return nil, nil, nil, err
	}

	// Results land in submission order so map population, and therefore
	// hash representatives below, are deterministic.
	for _, meta := range results {
		if meta != nil {
			allFileData[meta.Path] = meta
		}
	}
	stats.HashingTime = time.Since(start)
	stats.ImagesHashed = len(allFileData)
	stats.FailedFiles = len(paths) - len(allFileData)
	logger.Info("validation and hashing completed",
		"hashed", stats.ImagesHashed, "failed", stats.FailedFiles,
		"elapsed", stats.HashingTime)

	// Phase 2: comparison and grouping.
	start = time.Now()
	progress(75, "Building BK-tree for fast search...")

	if len(allFileData) == 0 {
		progress(100, "No images could be hashed.")
		stats.ComparisonTime = time.Since(start)
		return stats, allFileData, nil, nil
	}

	// Exact duplicates collapse to one representative before the
	// similarity search: only distinct hash values enter the tree.
	hashToPaths := make(map[uint64][]string, len(allFileData))
	var uniqueHashes []uint64
	for _, meta := range results {
		if meta == nil {
			continue
		}
		if _, seen := hashToPaths[meta.Hash]; !seen {
			uniqueHashes = append(uniqueHashes, meta.Hash)
		}
		hashToPaths[meta.Hash] = append(hashToPaths[meta.Hash], meta.Path)
	}

	tree := index.New()
	for _, h := range uniqueHashes {
		tree.Insert(h)
	}

	progress(80, "Comparing images and building groups...")

	engine := compareHashes(tree, uniqueHashes, hashToPaths, threshold, progress)

	// Expand representative-level groups back to full path-level groups:
	// every path sharing a collapsed hash value rejoins its group.
	var groups [][]string
	for _, g := range engine.Groups() {
		expanded := make(map[string]struct{})
		for _, path := range g {
			meta, ok := allFileData[path]
			if !ok {
				continue
			}
			for _, p := range hashToPaths[meta.Hash] {
				expanded[p] = struct{}{}
			}
		}
		if len(expanded) < 2 {
			continue
		}
		members := make([]string, 0, len(expanded))
		for p := range expanded {
			members = append(members, p)
		}
		sort.Strings(members)
		groups = append(groups, members)
	}

	stats.ComparisonTime = time.Since(start)
	stats.GroupsFound = len(groups)
	logger.Info("comparison completed",
		"groups", len(groups), "elapsed", stats.ComparisonTime)
	progress(100, "Check complete.")

	return stats, allFileData, groups, nil
}

// compareHashes queries the tree once per unprocessed distinct hash and
// feeds representative-path pairs into the clustering engine. Hashes
// seen as match results are skipped as future query anchors: this trades
// a little recall in pathological chain configurations for far fewer
// radius queries. Grouping still reaches everything the executed queries
// linked transitively.
func compareHashes(tree *index.BKTree, uniqueHashes []uint64, hashToPaths map[uint64][]string, threshold int, progress ProgressFunc) *group.Engine {
	engine := group.NewEngine()
	processed := make(map[uint64]struct{}, len(uniqueHashes))
	for i, h := range uniqueHashes {
		if _, done := processed[h]; done {
			continue
		}
		matches := tree.Find(h, threshold)
		for _, m := range matches {
			path1 := hashToPaths[h][0]
			path2 := hashToPaths[m.Hash][0]
			if path1 != path2 {
				engine.AddMatch(path1, path2)
			}
		}
		for _, m := range matches {
			processed[m.Hash] = struct{}{}
		}
		if (i+1)%50 == 0 {
			progress(80+20*(i+1)/len(uniqueHashes),
				fmt.Sprintf("Comparing group %d/%d...", i+1, len(uniqueHashes)))
		}
	}
	return engine
}

// extractAll hashes paths with a bounded worker pool. The returned slice
// is indexed by submission order; failed files are nil. A cancelled
// context is the only error.
func (d *Detector) extractAll(ctx context.Context, paths []string, progress ProgressFunc) ([]*models.FileMetadata, error) {
	logger := logging.Get("extract")
	workers := d.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*models.FileMetadata, len(paths))

	// The completion counter is decoupled from result aggregation:
	// results land in their submission-order slot while progress follows
	// completion order under a lock, keeping reported counts monotonic.
	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			meta, err := d.extractor.ExtractWithTimeout(path, extractTimeout)
			switch {
			case errors.Is(err, hash.ErrTooSmall):
				logger.Debug("skipping small file", "file", filepath.Base(path))
			case err != nil:
				logger.Warn("could not process file", "file", filepath.Base(path), "err", err)
			default:
				results[i] = meta
			}

			mu.Lock()
			completed++
			progress(10+65*completed/len(paths),
				fmt.Sprintf("Processing image %d of %d...", completed, len(paths)))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extraction aborted: %w", err)
	}
	// The derived context is canceled once Wait returns; only the
	// caller's context tells whether the run itself was canceled.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction aborted: %w", err)
	}
	return results, nil
}
