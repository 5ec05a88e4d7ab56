package consts

// Tables
const (
	DBChannels  = "channels"
	DBDownloads = "downloads"
	DBHistory   = "download_history"
	DBSettings  = "settings"
)

// Channels
const (
	QChanID        = "id"
	QChanChannelID = "channel_id"
	QChanName      = "name"
	QChanURL       = "url"
	QChanLimit     = "video_limit"
	QChanEnabled   = "enabled"
	QChanLastCheck = "last_check"
	QChanMediaDir  = "media_dir_name"
	QChanCreatedAt = "created_at"
	QChanUpdatedAt = "updated_at"
)

// Downloads
const (
	QDLID          = "id"
	QDLChanID      = "channel_id"
	QDLVideoID     = "video_id"
	QDLTitle       = "title"
	QDLUploadDate  = "upload_date"
	QDLDuration    = "duration"
	QDLFilePath    = "file_path"
	QDLFileSize    = "file_size"
	QDLStatus      = "status"
	QDLError       = "error_message"
	QDLFileExists  = "file_exists"
	QDLCreatedAt   = "created_at"
	QDLCompletedAt = "completed_at"
)

// Download history
const (
	QHistID          = "id"
	QHistChanID      = "channel_id"
	QHistRunAt       = "run_at"
	QHistFound       = "found"
	QHistDownloaded  = "downloaded"
	QHistSkipped     = "skipped"
	QHistFailed      = "failed"
	QHistStatus      = "status"
	QHistError       = "error_message"
	QHistCompletedAt = "completed_at"
)

// Settings
const (
	QSetKey         = "key"
	QSetValue       = "value"
	QSetDescription = "description"
	QSetUpdatedAt   = "updated_at"
)

// DLStatus holds constant download status strings.
type DLStatus string

const (
	DLStatusPending     DLStatus = "pending"
	DLStatusDownloading DLStatus = "downloading"
	DLStatusCompleted   DLStatus = "completed"
	DLStatusFailed      DLStatus = "failed"
)

// HistoryStatus holds constant per-run history status strings.
type HistoryStatus string

const (
	HistStatusRunning   HistoryStatus = "running"
	HistStatusCompleted HistoryStatus = "completed"
	HistStatusFailed    HistoryStatus = "failed"
)
