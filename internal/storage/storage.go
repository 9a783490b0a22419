// Package storage persists the results of the most recent duplicate
// check to SQLite so list, select, and review can operate on them. The
// detection pipeline itself never touches storage.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"photodedup/internal/models"
)

// Storage wraps the SQLite database holding run results.
type Storage struct {
	db     *sql.DB
	dbPath string
}

// RunInfo describes a recorded duplicate-check run.
type RunInfo struct {
	ID        int64
	Folder    string
	CheckedAt time.Time
	Threshold int
	Stats     models.Stats
}

// NewStorage opens (creating if needed) the database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Current schema version.
const schemaVersion = 1

func (s *Storage) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		hash INTEGER NOT NULL,
		resolution INTEGER NOT NULL,
		file_size INTEGER NOT NULL,
		mod_time_ns INTEGER NOT NULL,
		group_id INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash);
	CREATE INDEX IF NOT EXISTS idx_files_group_id ON files(group_id);

	CREATE TABLE IF NOT EXISTS run_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL,
		checked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		threshold INTEGER NOT NULL,
		files_processed INTEGER NOT NULL,
		failed_files INTEGER NOT NULL,
		images_hashed INTEGER NOT NULL,
		groups_found INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun replaces the stored results with this run's metadata and
// groups and appends a run_history row. Paths outside any group get
// group_id 0.
func (s *Storage) SaveRun(folder string, threshold int, stats *models.Stats, allFileData map[string]*models.FileMetadata, groups [][]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files`); err != nil {
		return fmt.Errorf("failed to clear previous run: %w", err)
	}

	groupOf := make(map[string]int, len(allFileData))
	for i, g := range groups {
		for _, path := range g {
			groupOf[path] = i + 1
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO files (path, hash, resolution, file_size, mod_time_ns, group_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for path, meta := range allFileData {
		// uint64 hashes are stored as their int64 bit pattern.
		if _, err := stmt.Exec(path, int64(meta.Hash), meta.Resolution,
			meta.Size, meta.ModTime.UnixNano(), groupOf[path]); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", path, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO run_history (folder, threshold, files_processed, failed_files, images_hashed, groups_found)
		VALUES (?, ?, ?, ?, ?, ?)
	`, folder, threshold, stats.FilesProcessed, stats.FailedFiles, stats.ImagesHashed, stats.GroupsFound); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return tx.Commit()
}

// FileData returns the stored metadata map of the last run.
func (s *Storage) FileData() (map[string]*models.FileMetadata, error) {
	rows, err := s.db.Query(`
		SELECT path, hash, resolution, file_size, mod_time_ns FROM files ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	data := make(map[string]*models.FileMetadata)
	for rows.Next() {
		var meta models.FileMetadata
		var hashInt, modNs int64
		if err := rows.Scan(&meta.Path, &hashInt, &meta.Resolution, &meta.Size, &modNs); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		meta.Hash = uint64(hashInt)
		meta.ModTime = time.Unix(0, modNs)
		data[meta.Path] = &meta
	}
	return data, rows.Err()
}

// Groups returns the stored duplicate groups of the last run, ordered
// by group id with members sorted by path.
func (s *Storage) Groups() ([]models.DuplicateGroup, error) {
	rows, err := s.db.Query(`
		SELECT group_id, path FROM files WHERE group_id > 0 ORDER BY group_id, path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []models.DuplicateGroup
	for rows.Next() {
		var id int
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(groups) == 0 || groups[len(groups)-1].ID != id {
			groups = append(groups, models.DuplicateGroup{ID: id})
		}
		g := &groups[len(groups)-1]
		g.Paths = append(g.Paths, path)
	}
	return groups, rows.Err()
}

// LastRun returns the most recent run record, or nil if none exists.
func (s *Storage) LastRun() (*RunInfo, error) {
	row := s.db.QueryRow(`
		SELECT id, folder, checked_at, threshold, files_processed, failed_files, images_hashed, groups_found
		FROM run_history ORDER BY id DESC LIMIT 1
	`)
	var run RunInfo
	var checkedAt string
	err := row.Scan(&run.ID, &run.Folder, &checkedAt, &run.Threshold,
		&run.Stats.FilesProcessed, &run.Stats.FailedFiles,
		&run.Stats.ImagesHashed, &run.Stats.GroupsFound)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	run.CheckedAt, _ = time.Parse("2006-01-02 15:04:05", checkedAt)
	return &run, nil
}
