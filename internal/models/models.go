package models

import "time"

// FileMetadata holds perceptual hash and filesystem metadata for one
// candidate image. It is created once per run by the extractor and
// discarded when the run ends.
type FileMetadata struct {
	Path       string    `json:"path"`
	Hash       uint64    `json:"hash"`
	Resolution int       `json:"resolution"` // width * height in pixels
	Size       int64     `json:"size"`
	ModTime    time.Time `json:"mod_time"`
}

// DuplicateGroup is a set of at least two paths judged visually similar,
// directly or transitively, at the run's distance threshold. Groups are
// disjoint after clustering.
type DuplicateGroup struct {
	ID    int      `json:"id"`
	Paths []string `json:"paths"`
}

// SortPair tags the two representative files of a group for the
// keep-unique-versions strategy. Original and Edited may name the same
// file when the best-quality and most-recently-modified file coincide.
type SortPair struct {
	Original string `json:"original"`
	Edited   string `json:"edited"`
}

// Selection is the aggregated output of automatic selection across all
// groups: the union of files marked for removal (set semantics, a path
// appears at most once) and one role record per unique-versions group.
type Selection struct {
	Remove []string   `json:"remove"`
	Sort   []SortPair `json:"sort"`
}

// Stats summarizes one duplicate-check run for display and the
// performance log.
type Stats struct {
	FilesProcessed int           `json:"files_processed"`
	FailedFiles    int           `json:"failed_files"`
	ImagesHashed   int           `json:"images_hashed"`
	ScanTime       time.Duration `json:"scan_time"`
	HashingTime    time.Duration `json:"hashing_time"`
	ComparisonTime time.Duration `json:"comparison_time"`
	SelectionTime  time.Duration `json:"selection_time"`
	GroupsFound    int           `json:"groups_found"`
}
