package process

import (
	"context"
	"fmt"
	"path/filepath"

	"mirrarr/internal/domain/consts"
	"mirrarr/internal/models"
	"mirrarr/internal/parsing"
	"mirrarr/internal/utils/logging"
)

// ProcessChannel runs one channel job end to end: discovery, dedup, the
// sequential download loop, descriptors, retention, and history bookkeeping.
// Returns the number of videos downloaded.
func (o *Orchestrator) ProcessChannel(ctx context.Context, c *models.Channel) (int, error) {
	logging.I("Processing channel %q (limit %d)", c.Name, c.GetLimit())

	histID, err := o.history.BeginRun(c.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to open history row for channel %q: %w", c.Name, err)
	}

	hist := &models.DownloadHistory{ChannelID: c.ID}

	entries, err := o.discoverer.ListRecent(ctx, c, c.GetLimit())
	if err != nil {
		hist.Status = consts.HistStatusFailed
		hist.ErrorMessage = err.Error()
		o.finishRun(histID, hist, c)
		return 0, fmt.Errorf("discovery failed for channel %q: %w", c.Name, err)
	}
	hist.Found = len(entries)

	channelDir := filepath.Join(o.mediaRoot, c.DirName())
	idx := buildDiskIndex(channelDir)

	for _, entry := range entries {
		if ctx.Err() != nil {
			hist.Status = consts.HistStatusFailed
			hist.ErrorMessage = ctx.Err().Error()
			o.finishRun(histID, hist, c)
			return hist.Downloaded, ctx.Err()
		}

		needed, existing, err := o.shouldDownload(entry.ID, c, idx)
		if err != nil {
			logging.E("Dedup check failed for video %q: %v", entry.ID, err)
			hist.Failed++
			continue
		}
		if !needed {
			logging.D(1, "Skipping already-present video %q", entry.ID)
			hist.Skipped++
			continue
		}

		info, err := o.downloadOne(ctx, c, entry, existing)
		if err != nil {
			logging.E("Download failed for video %q on channel %q: %v", entry.ID, c.Name, err)
			hist.Failed++
			continue
		}
		hist.Downloaded++
		if hist.Downloaded == 1 {
			o.refreshChannelAssets(ctx, c, info)
		}
	}

	if err := o.applyRetention(c); err != nil {
		logging.E("Retention failed for channel %q: %v", c.Name, err)
	}

	hist.Status = consts.HistStatusCompleted
	o.finishRun(histID, hist, c)

	logging.S("Channel %q: found=%d downloaded=%d skipped=%d failed=%d",
		c.Name, hist.Found, hist.Downloaded, hist.Skipped, hist.Failed)
	return hist.Downloaded, nil
}

// downloadOne takes a candidate through pending → downloading → terminal
// state and writes its descriptors on success.
func (o *Orchestrator) downloadOne(ctx context.Context, c *models.Channel, entry models.PlaylistEntry, existing *models.Download) (*models.VideoInfo, error) {
	row := existing
	if row == nil {
		row = &models.Download{
			ChannelID: c.ID,
			VideoID:   entry.ID,
			Title:     entry.Title,
		}
	}
	row.Status = consts.DLStatusPending
	if err := o.downloads.Upsert(row); err != nil {
		return nil, err
	}
	if err := o.downloads.SetStatus(entry.ID, consts.DLStatusDownloading); err != nil {
		return nil, err
	}

	filePath, info, err := o.downloader.Download(ctx, c, entry)
	if err != nil {
		row.MarkFailed(err.Error())
		if upErr := o.downloads.Upsert(row); upErr != nil {
			logging.E("Failed to record failure for video %q: %v", entry.ID, upErr)
		}
		return nil, err
	}

	if info.Title != "" {
		row.Title = info.Title
	}
	row.UploadDate = info.UploadDate
	row.Duration = info.DurationSeconds()
	row.MarkCompleted(filePath, fileSize(filePath))
	if err := o.downloads.Upsert(row); err != nil {
		return nil, err
	}

	o.writeDescriptors(c, filePath, info)
	return info, nil
}

// writeDescriptors emits episode, season, and tvshow descriptors for a fresh
// download. Descriptor failures are logged; the download already succeeded.
func (o *Orchestrator) writeDescriptors(c *models.Channel, filePath string, info *models.VideoInfo) {
	if !o.nfoWriter.Enabled() {
		return
	}

	if err := o.nfoWriter.WriteEpisode(filePath, c, info); err != nil {
		logging.E("Failed to write episode descriptor for %q: %v", filePath, err)
	}

	if year := parsing.YearOf(info.UploadDate); year != "" {
		// filePath sits in <channel>/<year>/<video dir>/; season.nfo
		// belongs in the year folder.
		yearDir := filepath.Dir(filepath.Dir(filePath))
		if err := o.nfoWriter.WriteSeason(yearDir, year); err != nil {
			logging.E("Failed to write season descriptor for %q: %v", yearDir, err)
		}
	}

	channelDir := filepath.Join(o.mediaRoot, c.DirName())
	if err := o.nfoWriter.WriteTVShow(channelDir, c, info); err != nil {
		logging.E("Failed to write tvshow descriptor for %q: %v", c.Name, err)
	}
}

// finishRun terminally updates the history row and stamps last_check; both
// are best-effort at this point.
func (o *Orchestrator) finishRun(histID int64, hist *models.DownloadHistory, c *models.Channel) {
	if err := o.history.FinishRun(histID, hist); err != nil {
		logging.E("Failed to finish history row %d: %v", histID, err)
	}
	if err := o.channels.UpdateLastCheck(c.ID); err != nil {
		logging.E("Failed to update last check for channel %q: %v", c.Name, err)
	}
}
