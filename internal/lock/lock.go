// Package lock implements a persistent single-flight lock on top of the
// settings store. The lock survives restarts: a crash leaves the flag set,
// and ClearStale resets it once it is old enough to be abandoned.
package lock

import (
	"errors"
	"time"

	"mirrarr/internal/contracts"
	"mirrarr/internal/domain/consts"
	"mirrarr/internal/utils/logging"
)

// ErrBusy is returned when the lock is already held.
var ErrBusy = errors.New("lock already held")

// Lock is a named single-flight lock persisted in the settings table.
type Lock struct {
	name     string
	settings contracts.SettingsStore
}

// New returns a lock persisted under "{name}_running".
func New(name string, settings contracts.SettingsStore) *Lock {
	return &Lock{name: name, settings: settings}
}

func (l *Lock) runningKey() string { return l.name + consts.SetSuffixRunning }
func (l *Lock) lastRunKey() string { return l.name + consts.SetSuffixLastRun }

// TryAcquire atomically flips the running flag to "true" and stamps
// "{name}_last_run". Returns ErrBusy if another holder already set it.
func (l *Lock) TryAcquire() error {
	err := l.settings.Update(l.runningKey(), func(value string) (string, error) {
		if value == "true" {
			return "", ErrBusy
		}
		return "true", nil
	})
	if err != nil {
		return err
	}
	if err := l.settings.Put(l.lastRunKey(), time.Now().UTC().Format(time.RFC3339), ""); err != nil {
		// The caller never got the lock, so the flag must not stay up.
		if relErr := l.Release(); relErr != nil {
			logging.E("Failed to release lock %q after stamp failure: %v", l.name, relErr)
		}
		return err
	}
	return nil
}

// Release flips the running flag back. Release of an unheld lock is harmless.
func (l *Lock) Release() error {
	return l.settings.Put(l.runningKey(), "false", "")
}

// LastRun returns the completion time of the previous holder, or zero.
func (l *Lock) LastRun() (time.Time, error) {
	v, err := l.settings.Get(l.lastRunKey())
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// ClearStale resets a held lock whose last acquisition is older than maxAge.
// Called once at startup, before the scheduler begins firing, so a crash
// during a sweep cannot wedge every future sweep.
func (l *Lock) ClearStale(maxAge time.Duration) error {
	v, err := l.settings.Get(l.runningKey())
	if err != nil {
		return err
	}
	if v != "true" {
		return nil
	}

	at, err := l.LastRun()
	if err != nil {
		return err
	}
	if at.IsZero() {
		// Flag set without a last-run stamp; fall back to the flag's own age.
		if at, err = l.settings.UpdatedAt(l.runningKey()); err != nil {
			return err
		}
	}
	if at.IsZero() || time.Since(at) < maxAge {
		logging.D(1, "Lock %q held but not stale (set %v ago)", l.name, time.Since(at))
		return nil
	}

	logging.W("Clearing stale lock %q (held since %s)", l.name, at.Format(time.RFC3339))
	return l.settings.Put(l.runningKey(), "false", "")
}

// WithLock runs fn while holding the lock. The flag is always released, even
// if fn panics; the panic is re-raised after release.
func (l *Lock) WithLock(fn func() error) error {
	if err := l.TryAcquire(); err != nil {
		return err
	}

	// Deferred so the flag clears even when fn panics.
	defer func() {
		if relErr := l.Release(); relErr != nil {
			logging.E("Failed to release lock %q: %v", l.name, relErr)
		}
	}()

	return fn()
}
