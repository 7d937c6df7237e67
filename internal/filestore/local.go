// Package filestore implements the byte-stream provider for stored book
// files on the local filesystem. Paths recorded on book file descriptors are
// relative to the store's base directory.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local serves book files from a directory on disk.
type Local struct {
	baseDir string
}

// NewLocal creates a local file store rooted at baseDir, creating the
// directory when absent.
func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create files directory %s: %w", baseDir, err)
	}
	return &Local{baseDir: baseDir}, nil
}

// resolve maps a stored path onto the base directory, rejecting traversal
// outside it.
func (l *Local) resolve(path string) (string, error) {
	full := filepath.Join(l.baseDir, filepath.FromSlash(path))
	base, err := filepath.Abs(l.baseDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes file store", path)
	}
	return full, nil
}

// Exists reports whether the path resolves to a regular file.
func (l *Local) Exists(path string) (bool, error) {
	full, err := l.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Open returns a readable stream over the stored file.
func (l *Local) Open(path string) (io.ReadCloser, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// BaseDir returns the store's root directory.
func (l *Local) BaseDir() string {
	return l.baseDir
}
