// Package paths sets up and holds the main program file/dir locations.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	// HomeMirrarrDir is the program state directory (~/.mirrarr).
	HomeMirrarrDir string

	// DBFilePath is the application SQLite database.
	DBFilePath string

	// JobStoreDirPath is the scheduler's durable job store.
	JobStoreDirPath string

	// LogFilePath is the program log file.
	LogFilePath string
)

// InitProgFilesDirs resolves and creates the program directories.
func InitProgFilesDirs() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	HomeMirrarrDir = filepath.Join(home, ".mirrarr")
	if err := os.MkdirAll(HomeMirrarrDir, 0o755); err != nil {
		return fmt.Errorf("failed to make directory %q: %w", HomeMirrarrDir, err)
	}

	DBFilePath = filepath.Join(HomeMirrarrDir, "mirrarr.db")
	JobStoreDirPath = filepath.Join(HomeMirrarrDir, "jobstore")
	LogFilePath = filepath.Join(HomeMirrarrDir, "mirrarr.log")
	return nil
}
