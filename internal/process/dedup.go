package process

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"mirrarr/internal/domain/consts"
	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"
)

// bracketedID captures the last [token] in a filename.
var bracketedID = regexp.MustCompile(`\[([^\[\]]+)\]`)

// diskIndex is a one-pass snapshot of the video ids witnessed on disk under a
// channel directory. Built once per channel job so repeated lookups are O(1).
type diskIndex struct {
	// paths maps video id to one file bearing its witness substring.
	paths map[string]string
}

// buildDiskIndex walks channelDir collecting every non-partial file whose
// name carries a bracketed id. A missing directory yields an empty index.
func buildDiskIndex(channelDir string) *diskIndex {
	idx := &diskIndex{paths: make(map[string]string)}

	err := filepath.WalkDir(channelDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.D(1, "Skipping unreadable path %q: %v", path, err)
			return nil
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".part") {
			return nil
		}

		matches := bracketedID.FindAllStringSubmatch(d.Name(), -1)
		if len(matches) == 0 {
			return nil
		}
		id := matches[len(matches)-1][1]
		if _, seen := idx.paths[id]; !seen {
			idx.paths[id] = path
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		logging.W("Disk walk of %q failed: %v", channelDir, err)
	}
	return idx
}

func (idx *diskIndex) lookup(videoID string) (string, bool) {
	p, ok := idx.paths[videoID]
	return p, ok
}

// shouldDownload decides whether a candidate video needs fetching, combining
// the download row (if any) with the on-disk witness. Decision order:
//
//  1. Completed row with an existing file: skip.
//  2. Tombstoned row (file gone): re-download.
//  3. File on disk but no usable row: adopt it as completed, skip.
//  4. Nothing known: download.
func (o *Orchestrator) shouldDownload(videoID string, c *models.Channel, idx *diskIndex) (bool, *models.Download, error) {
	row, found, err := o.downloads.GetByVideoID(videoID)
	if err != nil {
		return false, nil, err
	}

	if found {
		if row.Status == consts.DLStatusCompleted && row.FileExists {
			return false, row, nil
		}
		if !row.FileExists {
			return true, row, nil
		}
	}

	if path, onDisk := idx.lookup(videoID); onDisk {
		adopted := &models.Download{
			ChannelID: c.ID,
			VideoID:   videoID,
			Title:     "Found on disk",
			FilePath:  path,
		}
		adopted.MarkCompleted(path, fileSize(path))
		if err := o.downloads.Upsert(adopted); err != nil {
			return false, nil, err
		}
		logging.I("Adopted on-disk video %q for channel %q", videoID, c.Name)
		return false, adopted, nil
	}

	return true, row, nil
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
