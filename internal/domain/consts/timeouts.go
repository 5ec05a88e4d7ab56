package consts

import "time"

// Orchestration timing rules.
const (
	// MinCronInterval is the smallest permitted gap between scheduled fires.
	MinCronInterval = 5 * time.Minute

	// StaleLockAge is how old a held lock must be before startup clears it.
	StaleLockAge = 2 * time.Hour

	// StaleQueueEntryAge is how old a manual trigger may grow before the
	// sweep drops it unprocessed.
	StaleQueueEntryAge = 30 * time.Minute

	// MisfireGrace coalesces a missed fire into one immediate run at startup.
	MisfireGrace = 5 * time.Minute

	// DLRetryAttempts and DLRetryDelay govern transient-failure retries for
	// discovery and downloads.
	DLRetryAttempts = 2
	DLRetryDelay    = 30 * time.Second
)

// MaxErrorMessageLen caps stored download error messages.
const MaxErrorMessageLen = 500
