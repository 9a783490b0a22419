// Package selector applies deterministic policies that decide which
// files inside each duplicate group survive.
package selector

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"photodedup/internal/config"
	"photodedup/internal/logging"
	"photodedup/internal/models"
)

// Strategy identifies an automatic selection policy.
type Strategy int

// The closed set of selection strategies.
const (
	KeepBestQuality Strategy = iota
	KeepLastEdited
	KeepUniqueVersions
)

// ErrUnknownStrategy is returned for unrecognized strategy identifiers.
var ErrUnknownStrategy = errors.New("unknown selection strategy")

// ParseStrategy maps a strategy identifier to its Strategy value.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "KEEP_BEST_QUALITY":
		return KeepBestQuality, nil
	case "KEEP_LAST_EDITED":
		return KeepLastEdited, nil
	case "KEEP_ALL_UNIQUE_VERSIONS":
		return KeepUniqueVersions, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// String returns the canonical identifier of the strategy.
func (s Strategy) String() string {
	switch s {
	case KeepBestQuality:
		return "KEEP_BEST_QUALITY"
	case KeepLastEdited:
		return "KEEP_LAST_EDITED"
	case KeepUniqueVersions:
		return "KEEP_ALL_UNIQUE_VERSIONS"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// editSuffixRe recognizes filename stems of copies and edits: trailing
// numeric suffixes (-3, _12), -edit/_edited/-copy/_copy, or a trailing
// parenthesized number like (1).
var editSuffixRe = regexp.MustCompile(`(?i)[-_]\d+$|[-_]edit(ed)?$|[-_]copy$|\(\d+\)$`)

// IsLikelyOriginal reports whether a filename looks like an original
// rather than a copy or an edited export. Only the stem is examined.
func IsLikelyOriginal(path string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return !editSuffixRe.MatchString(stem)
}

// Selector applies selection strategies to duplicate groups.
type Selector struct {
	cfg *config.Config
}

// New creates a Selector using the given configuration's format
// priority table.
func New(cfg *config.Config) *Selector {
	return &Selector{cfg: cfg}
}

// Compare ranks two files by the hierarchical quality model. It returns
// a negative value when a is better, positive when b is better. Each
// tie-break only applies when all previous steps tied; the final path
// comparison makes the order strict and total.
func (s *Selector) Compare(a, b *models.FileMetadata) int {
	// 1. Highest resolution.
	if a.Resolution != b.Resolution {
		return b.Resolution - a.Resolution
	}

	// 2. Largest file size.
	if a.Size != b.Size {
		if a.Size > b.Size {
			return -1
		}
		return 1
	}

	// 3. Format priority, lower rank wins.
	pa := s.cfg.FormatPriority(filepath.Ext(a.Path))
	pb := s.cfg.FormatPriority(filepath.Ext(b.Path))
	if pa != pb {
		return pa - pb
	}

	// 4. A name without an edit/copy suffix beats one with.
	origA, origB := IsLikelyOriginal(a.Path), IsLikelyOriginal(b.Path)
	if origA != origB {
		if origA {
			return -1
		}
		return 1
	}

	// 5. Older modification time wins (likely the original).
	if !a.ModTime.Equal(b.ModTime) {
		if a.ModTime.Before(b.ModTime) {
			return -1
		}
		return 1
	}

	return strings.Compare(a.Path, b.Path)
}

// BestInGroup returns the objectively best file by the quality cascade.
func (s *Selector) BestInGroup(metas []*models.FileMetadata) *models.FileMetadata {
	if len(metas) == 0 {
		return nil
	}
	best := metas[0]
	for _, m := range metas[1:] {
		if s.Compare(m, best) < 0 {
			best = m
		}
	}
	return best
}

// lastEdited returns the most recently modified file. Ties resolve to
// the earliest submission, so the result is stable for a fixed input.
func lastEdited(metas []*models.FileMetadata) *models.FileMetadata {
	last := metas[0]
	for _, m := range metas[1:] {
		if m.ModTime.After(last.ModTime) {
			last = m
		}
	}
	return last
}

// Select applies the strategy to every group and returns the aggregated
// removal list and role records. Groups with fewer than two resolvable
// metadata entries are skipped with a warning.
func (s *Selector) Select(groups [][]string, allFileData map[string]*models.FileMetadata, strategy Strategy) (models.Selection, error) {
	logger := logging.Get("selector")

	switch strategy {
	case KeepBestQuality, KeepLastEdited, KeepUniqueVersions:
	default:
		logger.Error("unknown strategy, cannot perform automatic selection", "strategy", int(strategy))
		return models.Selection{}, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(strategy))
	}

	removal := make(map[string]struct{})
	var sortPairs []models.SortPair

	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		metas := make([]*models.FileMetadata, 0, len(g))
		for _, path := range g {
			if meta, ok := allFileData[path]; ok {
				metas = append(metas, meta)
			}
		}
		if len(metas) < 2 {
			logger.Warn("not enough valid metadata for group, skipping", "group", g)
			continue
		}

		keep := make(map[string]struct{})
		switch strategy {
		case KeepBestQuality:
			keep[s.BestInGroup(metas).Path] = struct{}{}
		case KeepLastEdited:
			keep[lastEdited(metas).Path] = struct{}{}
		case KeepUniqueVersions:
			best := s.BestInGroup(metas)
			last := lastEdited(metas)
			keep[best.Path] = struct{}{}
			keep[last.Path] = struct{}{}
			sortPairs = append(sortPairs, models.SortPair{Original: best.Path, Edited: last.Path})
		}

		for _, meta := range metas {
			if _, kept := keep[meta.Path]; !kept {
				removal[meta.Path] = struct{}{}
			}
		}
	}

	remove := make([]string, 0, len(removal))
	for path := range removal {
		remove = append(remove, path)
	}
	sort.Strings(remove)

	return models.Selection{Remove: remove, Sort: sortPairs}, nil
}
