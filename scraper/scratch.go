package scraper

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

func (s *Scraper) scratchDir(handle string) string {
	return filepath.Join(s.baseDir, handle)
}

// prepareScratch clears any residue from a previous run and recreates the
// directory.
func prepareScratch(dir string) error {
	if err := forceRemoveAll(dir); err != nil {
		return fmt.Errorf("clear scratch dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	return nil
}

// forceRemoveAll removes the tree even when it holds read-only entries:
// on the first failure every entry is made writable and the removal is
// retried. A missing path is a no-op.
func forceRemoveAll(path string) error {
	err := os.RemoveAll(path)
	if err == nil {
		return nil
	}

	// Chmod failures are ignored here; whatever stays stuck surfaces from
	// the second RemoveAll.
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		mode := os.FileMode(0o600)
		if d.IsDir() {
			mode = 0o700
		}
		_ = os.Chmod(p, mode)
		return nil
	})

	return os.RemoveAll(path)
}
