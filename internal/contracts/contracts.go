// Package contracts defines the store and tool interfaces the orchestration
// core is built against, so callers can be tested with fakes.
package contracts

import (
	"context"
	"time"

	"mirrarr/internal/domain/consts"
	"mirrarr/internal/models"
)

// ChannelStore reads channel rows and maintains sweep bookkeeping.
type ChannelStore interface {
	GetEnabledChannels() ([]*models.Channel, error)
	GetChannelByProviderID(channelID string) (*models.Channel, bool, error)
	UpdateLastCheck(id int64) error
}

// DownloadStore manages per-video download rows.
type DownloadStore interface {
	GetByVideoID(videoID string) (*models.Download, bool, error)
	Upsert(d *models.Download) error
	SetStatus(videoID string, status consts.DLStatus) error
	GetCompletedExisting(channelID int64) ([]*models.Download, error)
	MarkFileMissing(videoID string) error
	DemoteInterrupted() (int64, error)
}

// HistoryStore records one audit row per channel-run.
type HistoryStore interface {
	BeginRun(channelID int64) (int64, error)
	FinishRun(id int64, h *models.DownloadHistory) error
	GetRecentRuns(channelID int64, limit int) ([]*models.DownloadHistory, error)
}

// SettingsStore is a typed key/value store with atomic read-modify-write.
type SettingsStore interface {
	Get(key string) (string, error)
	GetOrDefault(key, def string) (string, error)
	Put(key, value, description string) error
	Update(key string, fn func(value string) (string, error)) error
	UpdatedAt(key string) (time.Time, error)
}

// Discoverer lists a channel's recent uploads without downloading media.
type Discoverer interface {
	ListRecent(ctx context.Context, c *models.Channel, limit int) ([]models.PlaylistEntry, error)
}

// VideoDownloader fetches one video into the channel's media directory and
// returns the final media file path plus the parsed sidecar metadata.
type VideoDownloader interface {
	Download(ctx context.Context, c *models.Channel, entry models.PlaylistEntry) (filePath string, info *models.VideoInfo, err error)
}
