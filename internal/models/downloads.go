package models

import (
	"time"

	"mirrarr/internal/domain/consts"
)

// Download is one record per (channel, video-id) pair the core has observed.
//
// A row with FileExists=false is a tombstone: the video was seen before but
// its file is gone, and the next sweep may resurrect it by re-downloading.
type Download struct {
	ID           int64           `db:"id"`
	ChannelID    int64           `db:"channel_id"`
	VideoID      string          `db:"video_id"`
	Title        string          `db:"title"`
	UploadDate   string          `db:"upload_date"` // YYYYMMDD
	Duration     int             `db:"duration"`    // seconds
	FilePath     string          `db:"file_path"`
	FileSize     int64           `db:"file_size"`
	Status       consts.DLStatus `db:"status"`
	ErrorMessage string          `db:"error_message"`
	FileExists   bool            `db:"file_exists"`
	CreatedAt    time.Time       `db:"created_at"`
	CompletedAt  time.Time       `db:"completed_at"`
}

// MarkCompleted fills the terminal success fields.
func (d *Download) MarkCompleted(filePath string, fileSize int64) {
	d.Status = consts.DLStatusCompleted
	d.FilePath = filePath
	d.FileSize = fileSize
	d.FileExists = true
	d.ErrorMessage = ""
	d.CompletedAt = time.Now().UTC()
}

// MarkFailed fills the terminal failure fields, capping the stored message.
func (d *Download) MarkFailed(errMsg string) {
	d.Status = consts.DLStatusFailed
	if len(errMsg) > consts.MaxErrorMessageLen {
		errMsg = errMsg[:consts.MaxErrorMessageLen]
	}
	d.ErrorMessage = errMsg
	d.CompletedAt = time.Now().UTC()
}
