package db

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/yumyai/biodiv/internal/util"
)

var ErrUnsupportedExt = errors.New("unsupported file extension")

// AllowedExtensions are the upload suffixes accepted, with or without .gz.
var AllowedExtensions = []string{".fasta", ".fa", ".fas", ".fna", ".ffn", ".faa", ".txt"}

// UploadDir is the folder which hosts uploaded FASTA files, one per file ID.
type UploadDir struct {
	Dir string
}

func NewUploadDir(dir string) (*UploadDir, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("upload dir %s: %w", dir, err)
	}
	return &UploadDir{Dir: dir}, nil
}

// StoredName is the on-disk name for an upload: the file ID followed by the
// sanitized extension of the original name.
func StoredName(fileID, originalName string) (string, error) {
	ext := util.FastaExt(util.SanitizeFilename(originalName))
	base := ext
	if filepath.Ext(ext) == ".gz" {
		base = filepath.Ext(ext[:len(ext)-len(".gz")])
	}
	if !slices.Contains(AllowedExtensions, base) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExt, originalName)
	}
	return fileID + ext, nil
}

// Save streams r to the file for fileID and returns its path and size. A
// partial file is removed on error.
func (u *UploadDir) Save(fileID, originalName string, r io.Reader) (string, int64, error) {
	name, err := StoredName(fileID, originalName)
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(u.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return path, n, nil
}

// Remove deletes an uploaded file. A missing file is not an error.
func (u *UploadDir) Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
