package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEscapesDir is returned when a requested filename would resolve outside
// the upload directory.
var ErrEscapesDir = errors.New("filename escapes upload directory")

// DiskStore owns the upload directory and hands out collision-resistant
// filenames for incoming payloads.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed and returns a store
// rooted at it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *DiskStore) Dir() string {
	return s.dir
}

// GenerateFilename builds a unique on-disk name from the original upload
// name: millisecond timestamp, a random suffix and the sanitized original.
func GenerateFilename(originalName string) string {
	base := filepath.Base(strings.TrimSpace(originalName))
	base = strings.ReplaceAll(base, " ", "_")
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), suffix, base)
}

// Save writes src under a freshly generated name and returns that name.
func (s *DiskStore) Save(src io.Reader, originalName string) (string, error) {
	filename := GenerateFilename(originalName)
	path, err := s.resolve(filename)
	if err != nil {
		return "", err
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path) // Don't leave partial files behind
		return "", fmt.Errorf("write file: %w", err)
	}
	return filename, nil
}

// Remove deletes the named file. Missing files are reported via the returned
// error so callers can decide whether that matters.
func (s *DiskStore) Remove(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Exists reports whether the named file is present on disk.
func (s *DiskStore) Exists(filename string) bool {
	path, err := s.resolve(filename)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// resolve joins filename onto the store root, rejecting names that would
// escape it.
func (s *DiskStore) resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", ErrEscapesDir
	}
	return filepath.Join(s.dir, filename), nil
}
