// Package queue implements the durable manual-trigger queue. The queue lives
// in the manual_trigger_queue settings key as a JSON array, so pending manual
// requests survive restarts and are drained by the next sweep.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"mirrarr/internal/contracts"
	"mirrarr/internal/domain/consts"
	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"
)

// Queue appends, lists, and drains manual download triggers.
type Queue struct {
	settings contracts.SettingsStore
}

// New returns a queue backed by the given settings store.
func New(settings contracts.SettingsStore) *Queue {
	return &Queue{settings: settings}
}

// Enqueue appends a trigger for channelID and returns its 1-based position.
// A channel already queued is not added again; the existing position comes
// back instead.
func (q *Queue) Enqueue(channelID, user string) (int, error) {
	position := 0
	err := q.settings.Update(consts.SetManualTriggerQueue, func(value string) (string, error) {
		entries, err := decode(value)
		if err != nil {
			logging.W("Resetting corrupt manual trigger queue: %v", err)
			entries = nil
		}

		for i, e := range entries {
			if e.ChannelID == channelID {
				position = i + 1
				return encode(entries)
			}
		}

		entries = append(entries, models.QueueEntry{
			ChannelID: channelID,
			User:      user,
			Timestamp: time.Now().UTC(),
		})
		position = len(entries)
		return encode(entries)
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}

// DrainStale drops queued triggers older than maxAge, warning per entry.
// Returns the number dropped.
func (q *Queue) DrainStale(maxAge time.Duration) (int, error) {
	dropped := 0
	err := q.settings.Update(consts.SetManualTriggerQueue, func(value string) (string, error) {
		entries, err := decode(value)
		if err != nil {
			logging.W("Dropping corrupt manual trigger queue: %v", err)
			return "[]", nil
		}

		cutoff := time.Now().UTC().Add(-maxAge)
		kept := entries[:0]
		for _, e := range entries {
			if e.Timestamp.Before(cutoff) {
				logging.W("Dropping stale manual trigger for channel %q (queued %s)",
					e.ChannelID, e.Timestamp.Format(time.RFC3339))
				dropped++
				continue
			}
			kept = append(kept, e)
		}
		return encode(kept)
	})
	if err != nil {
		return 0, err
	}
	return dropped, nil
}

// Pop removes and returns the head of the queue; ok is false when empty.
// Triggers enqueued mid-sweep are observed by later Pop calls, so a drain
// loop processes them in strict FIFO order.
func (q *Queue) Pop() (models.QueueEntry, bool, error) {
	var (
		head models.QueueEntry
		ok   bool
	)
	err := q.settings.Update(consts.SetManualTriggerQueue, func(value string) (string, error) {
		entries, err := decode(value)
		if err != nil {
			logging.W("Dropping corrupt manual trigger queue: %v", err)
			return "[]", nil
		}
		if len(entries) == 0 {
			return "[]", nil
		}
		head, ok = entries[0], true
		return encode(entries[1:])
	})
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	return head, ok, nil
}

// Pending returns the queue without modifying it.
func (q *Queue) Pending() ([]models.QueueEntry, error) {
	v, err := q.settings.Get(consts.SetManualTriggerQueue)
	if err != nil {
		return nil, err
	}
	entries, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("manual trigger queue is corrupt: %w", err)
	}
	return entries, nil
}

func decode(value string) ([]models.QueueEntry, error) {
	if value == "" {
		return nil, nil
	}
	var entries []models.QueueEntry
	if err := json.Unmarshal([]byte(value), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func encode(entries []models.QueueEntry) (string, error) {
	if len(entries) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to encode manual trigger queue: %w", err)
	}
	return string(b), nil
}
