// Package app wires the stores, tool adapters, orchestrator, and scheduler
// into one runnable application.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"mirrarr/internal/cookies"
	"mirrarr/internal/database"
	"mirrarr/internal/domain/keys"
	"mirrarr/internal/domain/paths"
	"mirrarr/internal/downloads"
	"mirrarr/internal/process"
	"mirrarr/internal/repo"
	"mirrarr/internal/scheduler"
	"mirrarr/internal/utils/logging"

	"github.com/spf13/viper"
)

// App is the fully wired application.
type App struct {
	DB    *sql.DB
	Store *repo.Store
	Orch  *process.Orchestrator
	Sched *scheduler.Scheduler
}

// New builds the application from viper configuration. The media root is
// required; everything else has defaults under ~/.mirrarr.
func New(ctx context.Context) (*App, error) {
	logging.Level = viper.GetInt(keys.DebugLevel)

	mediaRoot := viper.GetString(keys.MediaRoot)
	if mediaRoot == "" {
		return nil, errors.New("media root is required (--media-root or MIRRARR_MEDIA_ROOT)")
	}
	if err := os.MkdirAll(mediaRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root %q: %w", mediaRoot, err)
	}

	dbPath := viper.GetString(keys.DBPath)
	if dbPath == "" {
		dbPath = paths.DBFilePath
	}
	db, err := database.InitDB(dbPath)
	if err != nil {
		return nil, err
	}
	store := repo.InitStores(db.DB)

	// Rows stuck in "downloading" mark a process killed mid-sweep; fail them
	// so the next sweep can resurrect the videos.
	if n, err := store.DownloadStore().DemoteInterrupted(); err != nil {
		logging.E("Startup recovery failed: %v", err)
	} else if n > 0 {
		logging.W("Startup recovery: marked %d interrupted downloads as failed", n)
	}

	ytdlp := downloads.New(downloads.Options{
		MediaRoot:           mediaRoot,
		TempRoot:            viper.GetString(keys.TempRoot),
		CookieFile:          resolveCookieFile(ctx),
		FragmentConcurrency: viper.GetInt(keys.FragmentConc),
		OutputExt:           viper.GetString(keys.OutputExt),
		SubLangs:            viper.GetString(keys.SubtitleLangs),
	})

	orch := process.New(process.Deps{
		Channels:   store.ChannelStore(),
		Downloads:  store.DownloadStore(),
		History:    store.HistoryStore(),
		Settings:   store.SettingsStore(),
		Discoverer: ytdlp,
		Downloader: ytdlp,
		MediaRoot:  mediaRoot,
	})

	jobStorePath := viper.GetString(keys.JobStorePath)
	if jobStorePath == "" {
		jobStorePath = paths.JobStoreDirPath
	}
	sched, err := scheduler.New(jobStorePath, store.SettingsStore(), orch)
	if err != nil {
		return nil, err
	}

	return &App{DB: db.DB, Store: store, Orch: orch, Sched: sched}, nil
}

// resolveCookieFile prefers an explicit cookie file; with the browser flag
// set it sources cookies from installed browsers instead.
func resolveCookieFile(ctx context.Context) string {
	if path := viper.GetString(keys.CookieFile); path != "" {
		return path
	}
	if !viper.GetBool(keys.CookiesFromBrowser) {
		return ""
	}

	path, err := cookies.NewManager().FileFor(ctx, "https://www.youtube.com", paths.HomeMirrarrDir)
	if err != nil {
		logging.W("Failed to source browser cookies: %v", err)
		return ""
	}
	return path
}

// RunDaemon starts the scheduler and blocks until ctx is cancelled.
func (a *App) RunDaemon(ctx context.Context) error {
	if err := a.Sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.Sched.Shutdown()
	return nil
}

// Close releases the application database.
func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		logging.E("Failed to close database: %v", err)
	}
}
