// Package process orchestrates channel sweeps: discovery, dedup, downloads,
// descriptors, retention, and history bookkeeping.
package process

import (
	"mirrarr/internal/contracts"
	"mirrarr/internal/domain/consts"
	"mirrarr/internal/lock"
	"mirrarr/internal/nfo"
	"mirrarr/internal/queue"
	"mirrarr/internal/scraper"
)

// Orchestrator wires the stores and tool adapters into channel jobs and the
// scheduled sweep.
type Orchestrator struct {
	channels  contracts.ChannelStore
	downloads contracts.DownloadStore
	history   contracts.HistoryStore
	settings  contracts.SettingsStore

	discoverer contracts.Discoverer
	downloader contracts.VideoDownloader

	nfoWriter *nfo.Writer
	queue     *queue.Queue
	sweepLock *lock.Lock
	scraper   *scraper.Scraper

	mediaRoot string
}

// Deps carries everything an Orchestrator needs.
type Deps struct {
	Channels  contracts.ChannelStore
	Downloads contracts.DownloadStore
	History   contracts.HistoryStore
	Settings  contracts.SettingsStore

	Discoverer contracts.Discoverer
	Downloader contracts.VideoDownloader

	MediaRoot string
}

// New returns an orchestrator over the given dependencies.
func New(d Deps) *Orchestrator {
	return &Orchestrator{
		channels:   d.Channels,
		downloads:  d.Downloads,
		history:    d.History,
		settings:   d.Settings,
		discoverer: d.Discoverer,
		downloader: d.Downloader,
		nfoWriter:  nfo.NewWriter(d.Settings),
		queue:      queue.New(d.Settings),
		sweepLock:  lock.New(consts.LockScheduledDownloads, d.Settings),
		scraper:    scraper.New(),
		mediaRoot:  d.MediaRoot,
	}
}

// Queue exposes the manual-trigger queue for collaborator surfaces.
func (o *Orchestrator) Queue() *queue.Queue { return o.queue }

// SweepLock exposes the single-flight lock for startup stale clearing.
func (o *Orchestrator) SweepLock() *lock.Lock { return o.sweepLock }
