// Package storage keeps archived report exports on disk and issues signed
// download tokens for them.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ArchiveStore persists export files under a base directory.
type ArchiveStore struct {
	baseDir string
}

// NewArchiveStore ensures the base directory exists and returns a handle.
func NewArchiveStore(baseDir string) (*ArchiveStore, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create exports directory: %w", err)
	}
	return &ArchiveStore{baseDir: baseDir}, nil
}

// Save writes the given bytes to the relative path under the base dir.
func (s *ArchiveStore) Save(relPath string, data []byte) error {
	path := s.resolve(relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// Open returns a read-only handle for a stored export.
func (s *ArchiveStore) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	return file, nil
}

// CleanupOlderThan removes exports older than the TTL and returns how many
// files were deleted.
func (s *ArchiveStore) CleanupOlderThan(ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := 0
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		deleted++
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("cleanup exports: %w", err)
	}
	return deleted, nil
}

func (s *ArchiveStore) resolve(relPath string) string {
	return filepath.Join(s.baseDir, filepath.Clean("/"+relPath))
}
