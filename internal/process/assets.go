package process

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"mirrarr/internal/file"
	"mirrarr/internal/models"
	"mirrarr/internal/parsing"
	"mirrarr/internal/utils/logging"
)

// refreshChannelAssets fills in the channel-level extras after a successful
// download: cover artwork scraped off the channel page and an info-JSON
// document at the channel root. Both are best-effort.
func (o *Orchestrator) refreshChannelAssets(ctx context.Context, c *models.Channel, info *models.VideoInfo) {
	channelDir := filepath.Join(o.mediaRoot, c.DirName())

	if err := o.scraper.FetchChannelArtwork(ctx, c, channelDir); err != nil {
		logging.W("Failed to fetch artwork for channel %q: %v", c.Name, err)
	}

	o.writeChannelInfo(channelDir, c, info)
}

// writeChannelInfo writes "<channel>.info.json" at the channel root if it
// does not exist yet.
func (o *Orchestrator) writeChannelInfo(channelDir string, c *models.Channel, info *models.VideoInfo) {
	path := filepath.Join(channelDir, parsing.SanitizeName(c.Name)+".info.json")
	if _, err := os.Stat(path); err == nil {
		return
	}

	doc := models.VideoInfo{
		ID:        c.ChannelID,
		Channel:   c.Name,
		ChannelID: c.ChannelID,
	}
	if info != nil {
		doc.Uploader = info.Uploader
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logging.E("Failed to encode channel info for %q: %v", c.Name, err)
		return
	}
	if err := file.WriteAtomic(path, b, 0o644); err != nil {
		logging.E("Failed to write channel info for %q: %v", c.Name, err)
	}
}
