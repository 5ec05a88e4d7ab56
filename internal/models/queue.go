package models

import "time"

// QueueEntry is one pending manual download request, serialized into the
// manual_trigger_queue settings key as part of a JSON array.
type QueueEntry struct {
	ChannelID string    `json:"channel_id"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}
