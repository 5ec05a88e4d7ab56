package consts

// Settings keys the orchestration core reads and writes.
const (
	SetCronSchedule       = "cron_schedule"
	SetSchedulerEnabled   = "scheduler_enabled"
	SetSchedulerRunning   = "scheduler_running"
	SetSchedulerLastRun   = "scheduler_last_run"
	SetSchedulerNextRun   = "scheduler_next_run"
	SetManualTriggerQueue = "manual_trigger_queue"
	SetDefaultVideoLimit  = "default_video_limit"
	SetOverwriteNFO       = "overwrite_existing_nfo"
	SetNFOEnabled         = "nfo_enabled"

	// Suffixes composed with a lock name, e.g. "scheduled_downloads_running".
	SetSuffixRunning        = "_running"
	SetSuffixLastRun        = "_last_run"
	SetSuffixLastRunSummary = "_last_run_summary"
)

// LockScheduledDownloads is the single-flight lock name guarding sweeps.
const LockScheduledDownloads = "scheduled_downloads"

// MainDownloadJobID is the sole persistent scheduler job.
const MainDownloadJobID = "main_download_job"

// Defaults for reserved settings.
const (
	DefaultCronSchedule = "0 0 * * *"
	DefaultVideoLimit   = 10
)
