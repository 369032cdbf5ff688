package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	DirStrict  = 0o750 // rwxr-x---
	FileStrict = 0o600 // rw-------

	DirGit  = 0o755 // rwxr-xr-x
	FileGit = 0o644 // rw-r--r--
)

// DirectoryExists checks if a directory exists
func DirectoryExists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// FileExists checks if path exists and is a file (not a directory)
func FileExists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// PathExists checks if any path exists (file or directory)
func PathExists(fsys afero.Fs, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

// WriteFileAtomic writes to a sibling temp file and renames it over path, so
// readers never see a partial file.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	tmpPath := fmt.Sprintf("%s.tmp.%d.%d", path, os.Getpid(), time.Now().UnixNano())
	if err := afero.WriteFile(fsys, tmpPath, data, perm); err != nil {
		return err
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		_ = fsys.Remove(tmpPath)
		return err
	}
	return nil
}

// CanonicalPath returns an absolute, cleaned path with symlinks resolved
// where possible. Unresolvable paths are returned cleaned.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// PathsEqual compares two cleaned paths for equality.
// On Windows, comparison is case-insensitive since the filesystem is case-insensitive.
func PathsEqual(path1, path2 string) bool {
	clean1 := filepath.Clean(path1)
	clean2 := filepath.Clean(path2)

	if runtime.GOOS == "windows" {
		return strings.EqualFold(clean1, clean2)
	}
	return clean1 == clean2
}

// PathHasPrefix checks if path starts with prefix, accounting for path separators.
func PathHasPrefix(path, prefix string) bool {
	cleanPath := filepath.Clean(path)
	cleanPrefix := filepath.Clean(prefix) + string(filepath.Separator)

	if runtime.GOOS == "windows" {
		return strings.HasPrefix(strings.ToLower(cleanPath), strings.ToLower(cleanPrefix))
	}
	return strings.HasPrefix(cleanPath, cleanPrefix)
}
