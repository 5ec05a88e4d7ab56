package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"
)

// applyRetention deletes the oldest completed videos beyond the channel's
// limit. At least one video always survives. Individual deletion failures are
// logged and do not stop the rest.
func (o *Orchestrator) applyRetention(c *models.Channel) error {
	rows, err := o.downloads.GetCompletedExisting(c.ID)
	if err != nil {
		return fmt.Errorf("failed to load downloads for retention: %w", err)
	}

	keep := c.GetLimit()
	if len(rows) <= keep {
		return nil
	}

	var (
		removed    int
		bytesFreed int64
	)
	for _, row := range rows[keep:] {
		freed, err := o.removeVideo(row)
		if err != nil {
			logging.E("Retention failed for video %q: %v", row.VideoID, err)
			continue
		}
		if err := o.downloads.MarkFileMissing(row.VideoID); err != nil {
			logging.E("Failed to tombstone %q after deletion: %v", row.VideoID, err)
			continue
		}
		removed++
		bytesFreed += freed
	}

	o.pruneEmptyYearDirs(c)

	logging.I("Retention for channel %q: removed %d videos, freed %d bytes",
		c.Name, removed, bytesFreed)
	return nil
}

// removeVideo deletes every file in the video's own directory and the
// directory itself once empty. Returns bytes freed.
func (o *Orchestrator) removeVideo(row *models.Download) (int64, error) {
	if row.FilePath == "" {
		return 0, fmt.Errorf("download %q has no file path", row.VideoID)
	}

	videoDir := filepath.Dir(row.FilePath)
	if !underRoot(o.mediaRoot, videoDir) {
		return 0, fmt.Errorf("refusing to delete %q: outside media root %q", videoDir, o.mediaRoot)
	}

	entries, err := os.ReadDir(videoDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var freed int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(videoDir, e.Name())
		if fi, err := e.Info(); err == nil {
			freed += fi.Size()
		}
		if err := os.Remove(path); err != nil {
			logging.E("Failed to delete %q: %v", path, err)
		}
	}

	// Remove fails if anything survived; that is fine, the dir stays.
	if err := os.Remove(videoDir); err != nil {
		logging.D(1, "Video directory %q not removed: %v", videoDir, err)
	}
	return freed, nil
}

// pruneEmptyYearDirs removes year folders that no longer contain any video
// directory, along with their season.nfo.
func (o *Orchestrator) pruneEmptyYearDirs(c *models.Channel) {
	channelDir := filepath.Join(o.mediaRoot, c.DirName())

	entries, err := os.ReadDir(channelDir)
	if err != nil {
		return
	}

	for _, e := range entries {
		if !e.IsDir() || !isYearDir(e.Name()) {
			continue
		}
		yearDir := filepath.Join(channelDir, e.Name())
		if !underRoot(o.mediaRoot, yearDir) {
			continue
		}

		children, err := os.ReadDir(yearDir)
		if err != nil {
			continue
		}
		hasVideoDir := false
		for _, ch := range children {
			if ch.IsDir() {
				hasVideoDir = true
				break
			}
		}
		if hasVideoDir {
			continue
		}

		seasonNFO := filepath.Join(yearDir, "season.nfo")
		if err := os.Remove(seasonNFO); err != nil && !os.IsNotExist(err) {
			logging.E("Failed to delete %q: %v", seasonNFO, err)
		}
		if err := os.Remove(yearDir); err != nil {
			logging.D(1, "Year directory %q not removed: %v", yearDir, err)
		} else {
			logging.D(1, "Pruned empty year directory %q", yearDir)
		}
	}
}

// underRoot reports whether target resolves inside root.
func underRoot(root, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isYearDir(name string) bool {
	if len(name) != 4 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
