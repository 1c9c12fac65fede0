package util

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if DirExists(dir) {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// SanitizeFilename replaces anything outside [A-Za-z0-9._-] with '_'.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// FastaExt returns the lower-cased extension of name, keeping a trailing
// .gz together with the one before it ("reads.fa.gz" gives ".fa.gz").
func FastaExt(name string) string {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	if ext == ".gz" {
		return filepath.Ext(strings.TrimSuffix(lower, ext)) + ext
	}
	return ext
}
