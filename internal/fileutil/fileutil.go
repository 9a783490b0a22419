// Package fileutil performs the file actions that selection output
// feeds: moving files into sort destinations, relocating remains, and
// recycling via the platform trash.
package fileutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"photodedup/internal/logging"
	"photodedup/internal/models"
)

// Subfolders that keep-unique-versions routing sorts into.
const (
	OriginalsFolder  = "Originals"
	LastEditedFolder = "Last Edited"
)

// commandTimeout bounds external trash helper invocations.
const commandTimeout = 30 * time.Second

// MoveFile moves path into destDir, suffixing the name (_1, _2, ...)
// when the destination already exists. A vanished source is skipped, not
// an error.
func MoveFile(path, destDir string) error {
	logger := logging.Get("fileutil")
	if _, err := os.Stat(path); err != nil {
		logger.Warn("file no longer exists, skipping", "file", path)
		return nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create destination folder: %w", err)
	}

	name := filepath.Base(path)
	dest := filepath.Join(destDir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}

	if err := os.Rename(path, dest); err != nil {
		// Cross-device moves need a copy; fall back through a temp copy.
		if err := copyFile(path, dest); err != nil {
			return fmt.Errorf("failed to move %s: %w", name, err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove source after copy: %w", err)
		}
	}
	logger.Info("moved file", "file", name, "dest", filepath.Base(destDir))
	return nil
}

// SortPairs routes each pair's original into baseDir/Originals and its
// edited version into baseDir/"Last Edited". When both roles name the
// same file it is moved once, as an original.
func SortPairs(pairs []models.SortPair, baseDir string) error {
	originals := filepath.Join(baseDir, OriginalsFolder)
	edits := filepath.Join(baseDir, LastEditedFolder)
	for _, pair := range pairs {
		if pair.Original != "" {
			if err := MoveFile(pair.Original, originals); err != nil {
				return err
			}
		}
		if pair.Edited != "" && pair.Edited != pair.Original {
			if err := MoveFile(pair.Edited, edits); err != nil {
				return err
			}
		}
	}
	return nil
}

// Recycle moves a file to the platform trash: Recycle Bin on Windows,
// Finder Trash on macOS, gio/trash-put on Linux. Without any trash
// support the file is deleted permanently.
func Recycle(path string) error {
	logger := logging.Get("fileutil")
	if _, err := os.Stat(path); err != nil {
		logger.Warn("file no longer exists, skipping", "file", path)
		return nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	switch runtime.GOOS {
	case "windows":
		err = moveToWindowsTrash(absPath)
	case "darwin":
		err = moveToTrashDarwin(absPath)
	case "linux":
		err = moveToTrashLinux(absPath)
	default:
		err = os.Remove(absPath)
	}
	if err != nil {
		return fmt.Errorf("failed to recycle %s: %w", filepath.Base(path), err)
	}
	logger.Info("recycled file", "file", filepath.Base(path))
	return nil
}

// moveToTrashDarwin asks Finder to delete the file, which lands it in
// the Trash with Put Back support.
func moveToTrashDarwin(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return os.Remove(path)
	}
	return nil
}

// moveToTrashLinux tries gio, then trash-put, then deletes permanently.
func moveToTrashLinux(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if gio, err := exec.LookPath("gio"); err == nil {
		if err := exec.CommandContext(ctx, gio, "trash", path).Run(); err == nil {
			return nil
		}
	}
	if trashPut, err := exec.LookPath("trash-put"); err == nil {
		if err := exec.CommandContext(ctx, trashPut, path).Run(); err == nil {
			return nil
		}
	}
	return os.Remove(path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
