package fasta

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

type readCloser struct {
	reader io.Reader
	close  func() error
}

func (r readCloser) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r readCloser) Close() error {
	return r.close()
}

// openInput opens path for reading, decompressing .gz files on the fly.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &ParseError{Path: path, Err: err}
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			if errors.Is(err, io.EOF) {
				// zero-byte .gz: nothing to read, same as an empty file
				return io.NopCloser(strings.NewReader("")), nil
			}
			return nil, &ParseError{Path: path, Err: fmt.Errorf("gzip: %w", err)}
		}
		return readCloser{
			reader: gz,
			close: func() error {
				_ = gz.Close()
				return f.Close()
			},
		}, nil
	}
	return f, nil
}
