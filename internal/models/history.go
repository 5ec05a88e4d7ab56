package models

import (
	"time"

	"mirrarr/internal/domain/consts"
)

// DownloadHistory is the durable audit record for one channel-run.
//
// Created with status "running" before any work, terminally updated after.
type DownloadHistory struct {
	ID           int64                `db:"id"`
	ChannelID    int64                `db:"channel_id"`
	RunAt        time.Time            `db:"run_at"`
	Found        int                  `db:"found"`
	Downloaded   int                  `db:"downloaded"`
	Skipped      int                  `db:"skipped"`
	Failed       int                  `db:"failed"`
	Status       consts.HistoryStatus `db:"status"`
	ErrorMessage string               `db:"error_message"`
	CompletedAt  time.Time            `db:"completed_at"`
}

// SweepSummary is written to settings after every sweep as JSON.
type SweepSummary struct {
	TotalChannels      int       `json:"total_channels"`
	SuccessfulChannels int       `json:"successful_channels"`
	FailedChannels     int       `json:"failed_channels"`
	TotalVideos        int       `json:"total_videos"`
	StartTime          time.Time `json:"start_time"`
	DurationSeconds    float64   `json:"duration_seconds"`
}
