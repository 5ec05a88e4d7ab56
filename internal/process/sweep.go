package process

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"mirrarr/internal/domain/consts"
	"mirrarr/internal/lock"
	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"
)

// RunSweep executes one scheduled sweep under the single-flight lock. A held
// lock downgrades to a warning. Panics inside the sweep are contained here so
// nothing escapes to the scheduler runtime.
func (o *Orchestrator) RunSweep(ctx context.Context) {
	err := o.sweepLock.WithLock(func() error {
		o.sweepBody(ctx)
		return nil
	})
	switch {
	case errors.Is(err, lock.ErrBusy):
		logging.W("Sweep already running, skipping this fire")
	case err != nil:
		logging.E("Sweep failed: %v", err)
	}
}

func (o *Orchestrator) sweepBody(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			logging.E("Panic during sweep: %v", p)
		}
	}()

	start := time.Now().UTC()
	summary := models.SweepSummary{StartTime: start}

	if _, err := o.queue.DrainStale(consts.StaleQueueEntryAge); err != nil {
		logging.E("Failed to drain stale manual triggers: %v", err)
	}

	channels, err := o.channels.GetEnabledChannels()
	if err != nil {
		logging.E("Failed to load enabled channels: %v", err)
		o.writeSummary(&summary, start)
		return
	}
	if len(channels) == 0 {
		logging.I("No enabled channels to sweep")
	}

	for _, c := range channels {
		summary.TotalChannels++
		downloaded, err := o.ProcessChannel(ctx, c)
		summary.TotalVideos += downloaded
		if err != nil {
			summary.FailedChannels++
			continue
		}
		summary.SuccessfulChannels++
	}

	o.drainManualTriggers(ctx, &summary)
	o.writeSummary(&summary, start)
}

// drainManualTriggers pops queued manual requests FIFO until the queue is
// empty, so triggers enqueued during the sweep run right after it.
func (o *Orchestrator) drainManualTriggers(ctx context.Context, summary *models.SweepSummary) {
	for {
		entry, ok, err := o.queue.Pop()
		if err != nil {
			logging.E("Failed to pop manual trigger: %v", err)
			return
		}
		if !ok {
			return
		}

		c, found, err := o.channels.GetChannelByProviderID(entry.ChannelID)
		if err != nil {
			logging.E("Failed to look up channel %q for manual trigger: %v", entry.ChannelID, err)
			continue
		}
		if !found || !c.Enabled {
			logging.W("Skipping manual trigger for missing or disabled channel %q", entry.ChannelID)
			continue
		}

		logging.I("Running manual trigger for channel %q (queued by %q)", c.Name, entry.User)
		summary.TotalChannels++
		downloaded, err := o.ProcessChannel(ctx, c)
		summary.TotalVideos += downloaded
		if err != nil {
			summary.FailedChannels++
			continue
		}
		summary.SuccessfulChannels++
	}
}

func (o *Orchestrator) writeSummary(summary *models.SweepSummary, start time.Time) {
	summary.DurationSeconds = time.Since(start).Seconds()

	b, err := json.Marshal(summary)
	if err != nil {
		logging.E("Failed to encode sweep summary: %v", err)
		return
	}

	key := consts.LockScheduledDownloads + consts.SetSuffixLastRunSummary
	if err := o.settings.Put(key, string(b), "Summary of the most recent sweep"); err != nil {
		logging.E("Failed to store sweep summary: %v", err)
	}

	logging.S("Sweep complete: %d channels (%d ok, %d failed), %d videos in %.1fs",
		summary.TotalChannels, summary.SuccessfulChannels, summary.FailedChannels,
		summary.TotalVideos, summary.DurationSeconds)
}

// TriggerChannel is the manual download entrypoint. While a sweep holds the
// single-flight lock, the request is durably queued and its 1-based position
// returned; otherwise the channel job runs inline.
func (o *Orchestrator) TriggerChannel(ctx context.Context, channelID, user string) (queued bool, position int, err error) {
	running, err := o.settings.Get(consts.LockScheduledDownloads + consts.SetSuffixRunning)
	if err != nil {
		return false, 0, err
	}

	if running == "true" {
		pos, err := o.queue.Enqueue(channelID, user)
		if err != nil {
			return false, 0, err
		}
		logging.I("Sweep in progress; queued manual trigger for channel %q at position %d", channelID, pos)
		return true, pos, nil
	}

	c, found, err := o.channels.GetChannelByProviderID(channelID)
	if err != nil {
		return false, 0, err
	}
	if !found {
		return false, 0, errors.New("channel not found: " + channelID)
	}
	if !c.Enabled {
		return false, 0, errors.New("channel is disabled: " + channelID)
	}

	_, err = o.ProcessChannel(ctx, c)
	return false, 0, err
}
