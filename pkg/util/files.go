package util

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CleanupFiles removes multiple files, ignoring errors
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

// GetExtension returns the file extension
func GetExtension(path string) string {
	return filepath.Ext(path)
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SafeFilename replaces characters that are unsafe in filenames and
// truncates the result to maxLen runes.
func SafeFilename(name string, maxLen int) string {
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	safe = strings.TrimSpace(safe)
	runes := []rune(safe)
	if maxLen > 0 && len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return safe
}

// DirSize returns the total size in bytes of all regular files under dir.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
