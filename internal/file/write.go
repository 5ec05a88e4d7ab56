// Package file holds filesystem write helpers.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteAtomic writes data to path via a temp file in the same directory plus
// an atomic rename. A crash mid-write leaves the destination either absent or
// holding its prior contents, never a torn file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", path, err)
	}

	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return fmt.Errorf("failed to stage write for %q: %w", path, err)
	}
	defer pf.Cleanup() //nolint:errcheck // no-op after CloseAtomicallyReplace

	if _, err := pf.Write(data); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to finalize %q: %w", path, err)
	}
	return nil
}
