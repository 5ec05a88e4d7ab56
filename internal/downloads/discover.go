package downloads

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"mirrarr/internal/domain/command"
	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"
)

// ListRecent lists a channel's most recent uploads without fetching any
// media. Listing uses flat-playlist mode, so one subprocess call covers the
// whole channel regardless of limit.
func (y *YTDLP) ListRecent(ctx context.Context, c *models.Channel, limit int) ([]models.PlaylistEntry, error) {
	if limit < 1 {
		limit = 1
	}

	args := append(y.commonArgs(),
		command.FlatPlaylist,
		command.PlaylistEnd, strconv.Itoa(limit),
		command.SkipDownload,
		command.PrintJSON,
		c.URL,
	)

	out, err := y.runWithRetry(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel %q: %w", c.Name, err)
	}

	var playlist models.Playlist
	if err := json.Unmarshal(out, &playlist); err != nil {
		return nil, fmt.Errorf("failed to parse playlist for channel %q: %w", c.Name, err)
	}

	// Entries come newest-first. Missing ids happen on deleted or private
	// videos still listed in the tab; skip those.
	entries := make([]models.PlaylistEntry, 0, len(playlist.Entries))
	for _, e := range playlist.Entries {
		if e.ID == "" {
			logging.D(1, "Skipping playlist entry with no video id for channel %q", c.Name)
			continue
		}
		entries = append(entries, e)
		if len(entries) == limit {
			break
		}
	}

	logging.D(1, "Listed %d recent videos for channel %q", len(entries), c.Name)
	return entries, nil
}
