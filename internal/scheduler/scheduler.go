// Package scheduler owns the persistent cron engine driving scheduled
// sweeps. Job state lives in a Badger store separate from the application
// database so trigger times survive restarts.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mirrarr/internal/contracts"
	"mirrarr/internal/domain/consts"
	"mirrarr/internal/process"
	"mirrarr/internal/schedule"
	"mirrarr/internal/utils/logging"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the single persistent download job.
type Scheduler struct {
	engine   *cron.Cron
	store    *JobStore
	settings contracts.SettingsStore
	orch     *process.Orchestrator

	mu        sync.Mutex
	entryID   cron.EntryID
	haveEntry bool
	running   bool
}

// New opens the job store at storeDir and builds the cron engine. The engine
// runs in UTC; a fire that overlaps a still-running one is skipped (the
// persistent single-flight lock guards cross-process overlap).
func New(storeDir string, settings contracts.SettingsStore, orch *process.Orchestrator) (*Scheduler, error) {
	store, err := OpenJobStore(storeDir)
	if err != nil {
		return nil, err
	}

	clog := cronLogger{}
	engine := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithParser(cron.NewParser(
			cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow,
		)),
		cron.WithChain(
			cron.Recover(clog),
			cron.SkipIfStillRunning(clog),
		),
	)

	return &Scheduler{
		engine:   engine,
		store:    store,
		settings: settings,
		orch:     orch,
	}, nil
}

// Start clears stale lock state, registers the download job from settings,
// and starts the engine. With scheduler_enabled=false no job is registered;
// re-enabling requires UpdateDownloadSchedule or a restart.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.orch.SweepLock().ClearStale(consts.StaleLockAge); err != nil {
		logging.E("Failed to clear stale sweep lock: %v", err)
	}

	expr, err := s.settings.GetOrDefault(consts.SetCronSchedule, consts.DefaultCronSchedule)
	if err != nil {
		return fmt.Errorf("failed to read cron schedule: %w", err)
	}
	enabled, err := s.settings.GetOrDefault(consts.SetSchedulerEnabled, "true")
	if err != nil {
		return fmt.Errorf("failed to read scheduler enabled flag: %w", err)
	}

	recovered, err := s.store.List()
	if err != nil {
		logging.E("Failed to list recovered jobs: %v", err)
	}
	for _, rec := range recovered {
		logging.I("Recovered job %q (%s), next fire was %s",
			rec.ID, rec.Expression, rec.NextRun.Format(time.RFC3339))
	}

	if enabled != "true" {
		logging.W("Scheduler disabled; %s not registered", consts.MainDownloadJobID)
	} else {
		misfired := s.checkMisfire(ctx)
		if err := s.registerJob(expr); err != nil {
			return err
		}
		if misfired {
			logging.I("Coalescing missed fire of %s into one immediate run", consts.MainDownloadJobID)
			go s.fire(ctx)
		}
	}

	s.engine.Start()
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	if err := s.settings.Put(consts.SetSchedulerRunning, "true", ""); err != nil {
		logging.E("Failed to record scheduler running flag: %v", err)
	}
	logging.S("Scheduler started with schedule %q (%s)", expr, schedule.Describe(expr))
	return nil
}

// checkMisfire reports whether the recorded next fire was missed while the
// process was down. Only misses within the grace window trigger a catch-up
// run; older ones wait for the next regular fire.
func (s *Scheduler) checkMisfire(ctx context.Context) bool {
	rec, found, err := s.store.Get(consts.MainDownloadJobID)
	if err != nil {
		logging.E("Failed to read job record: %v", err)
		return false
	}
	if !found || rec.NextRun.IsZero() {
		return false
	}

	overdue := time.Since(rec.NextRun)
	if overdue <= 0 {
		return false
	}
	if overdue > consts.MisfireGrace {
		logging.W("Missed fire of %s at %s is outside the grace window, waiting for next fire",
			consts.MainDownloadJobID, rec.NextRun.Format(time.RFC3339))
		return false
	}
	return true
}

// registerJob validates expr and (re)creates the single download job,
// replacing any previous registration.
func (s *Scheduler) registerJob(expr string) error {
	sched, err := schedule.Validate(expr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.haveEntry {
		s.engine.Remove(s.entryID)
	}
	s.entryID = s.engine.Schedule(sched, cron.FuncJob(func() {
		s.fire(context.Background())
	}))
	s.haveEntry = true
	s.mu.Unlock()

	next := sched.Next(time.Now().UTC())
	rec := &JobRecord{
		ID:         consts.MainDownloadJobID,
		Expression: expr,
		NextRun:    next,
	}
	if prev, found, err := s.store.Get(consts.MainDownloadJobID); err == nil && found {
		rec.LastRun = prev.LastRun
	}
	if err := s.store.Put(rec); err != nil {
		return err
	}

	if err := s.settings.Put(consts.SetSchedulerNextRun, next.Format(time.RFC3339), ""); err != nil {
		logging.E("Failed to record next run time: %v", err)
	}
	return nil
}

// fire runs one sweep and rolls the job record forward.
func (s *Scheduler) fire(ctx context.Context) {
	now := time.Now().UTC()
	if err := s.settings.Put(consts.SetSchedulerLastRun, now.Format(time.RFC3339), ""); err != nil {
		logging.E("Failed to record last run time: %v", err)
	}

	s.orch.RunSweep(ctx)

	rec, found, err := s.store.Get(consts.MainDownloadJobID)
	if err != nil || !found {
		return
	}
	rec.LastRun = now
	if sched, err := schedule.Validate(rec.Expression); err == nil {
		rec.NextRun = sched.Next(time.Now().UTC())
		if err := s.settings.Put(consts.SetSchedulerNextRun, rec.NextRun.Format(time.RFC3339), ""); err != nil {
			logging.E("Failed to record next run time: %v", err)
		}
	}
	if err := s.store.Put(rec); err != nil {
		logging.E("Failed to update job record: %v", err)
	}
}

// UpdateDownloadSchedule validates and persists a new cron expression, then
// re-registers the job with it.
func (s *Scheduler) UpdateDownloadSchedule(expr string) error {
	if _, err := schedule.Validate(expr); err != nil {
		return err
	}
	if err := s.settings.Put(consts.SetCronSchedule, expr, "Cron schedule for the download sweep"); err != nil {
		return err
	}
	if err := s.registerJob(expr); err != nil {
		return err
	}
	logging.S("Download schedule updated to %q (%s)", expr, schedule.Describe(expr))
	return nil
}

// Shutdown stops the engine, waits for an in-flight fire to finish, and
// closes the job store. Errors are logged, not returned, so process exit is
// never blocked.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if wasRunning {
		stopCtx := s.engine.Stop()
		<-stopCtx.Done()
	}

	if err := s.settings.Put(consts.SetSchedulerRunning, "false", ""); err != nil {
		logging.E("Failed to clear scheduler running flag: %v", err)
	}
	if err := s.store.Close(); err != nil {
		logging.E("Failed to close job store: %v", err)
	}
	logging.I("Scheduler stopped")
}

// Status is a snapshot of the scheduler's observable state.
type Status struct {
	Running      bool      `json:"running"`
	Enabled      bool      `json:"enabled"`
	Schedule     string    `json:"schedule"`
	Description  string    `json:"description"`
	NextRun      time.Time `json:"next_run"`
	LastRun      time.Time `json:"last_run"`
	SweepRunning bool      `json:"sweep_running"`
	TotalJobs    int       `json:"total_jobs"`
}

// GetStatus collects the current schedule, fire times, and sweep flag.
func (s *Scheduler) GetStatus() (*Status, error) {
	st := &Status{}

	s.mu.Lock()
	st.Running = s.running
	s.mu.Unlock()

	expr, err := s.settings.GetOrDefault(consts.SetCronSchedule, consts.DefaultCronSchedule)
	if err != nil {
		return nil, err
	}
	st.Schedule = expr
	st.Description = schedule.Describe(expr)

	enabled, err := s.settings.GetOrDefault(consts.SetSchedulerEnabled, "true")
	if err != nil {
		return nil, err
	}
	st.Enabled = enabled == "true"

	sweepRunning, err := s.settings.Get(consts.LockScheduledDownloads + consts.SetSuffixRunning)
	if err != nil {
		return nil, err
	}
	st.SweepRunning = sweepRunning == "true"

	if rec, found, err := s.store.Get(consts.MainDownloadJobID); err == nil && found {
		st.NextRun = rec.NextRun
		st.LastRun = rec.LastRun
	}

	jobs, err := s.store.List()
	if err != nil {
		return nil, err
	}
	st.TotalJobs = len(jobs)
	return st, nil
}

// cronLogger adapts the engine's logging to ours.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	logging.D(2, "cron: %s %v", msg, kv)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	logging.E("cron: %s: %v %v", msg, err, kv)
}
