//go:build !windows

package fileutil

import "errors"

// moveToWindowsTrash is a stub for non-Windows platforms; Recycle never
// dispatches here off Windows.
func moveToWindowsTrash(string) error {
	return errors.New("Windows Recycle Bin is not available on this platform")
}
