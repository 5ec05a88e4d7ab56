package lock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"mirrarr/internal/domain/consts"
)

// fakeSettings is an in-memory settings store.
type fakeSettings struct {
	mu    sync.Mutex
	vals  map[string]string
	times map[string]time.Time
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		vals:  make(map[string]string),
		times: make(map[string]time.Time),
	}
}

func (f *fakeSettings) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vals[key], nil
}

func (f *fakeSettings) GetOrDefault(key, def string) (string, error) {
	v, _ := f.Get(key)
	if v == "" {
		return def, nil
	}
	return v, nil
}

func (f *fakeSettings) Put(key, value, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vals[key] = value
	f.times[key] = time.Now().UTC()
	return nil
}

func (f *fakeSettings) Update(key string, fn func(string) (string, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	updated, err := fn(f.vals[key])
	if err != nil {
		return err
	}
	f.vals[key] = updated
	f.times[key] = time.Now().UTC()
	return nil
}

func (f *fakeSettings) UpdatedAt(key string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.times[key], nil
}

func TestWithLockSingleFlight(t *testing.T) {
	fs := newFakeSettings()
	l := New("test_lock", fs)

	ran := false
	err := l.WithLock(func() error {
		ran = true

		// A second acquisition attempt while held must report busy.
		second := New("test_lock", fs)
		if err := second.TryAcquire(); !errors.Is(err, ErrBusy) {
			t.Errorf("expected ErrBusy while held, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock failed: %v", err)
	}
	if !ran {
		t.Fatal("body never ran")
	}

	v, _ := fs.Get("test_lock" + consts.SetSuffixRunning)
	if v != "false" {
		t.Fatalf("expected flag released, got %q", v)
	}
}

func TestWithLockReleasesOnError(t *testing.T) {
	fs := newFakeSettings()
	l := New("test_lock", fs)

	wantErr := errors.New("body failed")
	if err := l.WithLock(func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("expected body error back, got %v", err)
	}

	v, _ := fs.Get("test_lock" + consts.SetSuffixRunning)
	if v != "false" {
		t.Fatalf("expected flag released after error, got %q", v)
	}
}

func TestWithLockReleasesOnPanic(t *testing.T) {
	fs := newFakeSettings()
	l := New("test_lock", fs)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		_ = l.WithLock(func() error { panic("boom") })
	}()

	v, _ := fs.Get("test_lock" + consts.SetSuffixRunning)
	if v != "false" {
		t.Fatalf("expected flag released after panic, got %q", v)
	}
}

func TestWithLockBusySkipsBody(t *testing.T) {
	fs := newFakeSettings()
	l := New("test_lock", fs)

	if err := l.TryAcquire(); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	ran := false
	err := l.WithLock(func() error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if ran {
		t.Fatal("body must not run while the lock is held")
	}
}

// failingPutSettings fails Put for one key, after optionally letting a number
// of calls through.
type failingPutSettings struct {
	*fakeSettings
	failKey string
}

func (f *failingPutSettings) Put(key, value, desc string) error {
	if key == f.failKey {
		return errors.New("settings write failed")
	}
	return f.fakeSettings.Put(key, value, desc)
}

func TestTryAcquireReleasesOnStampFailure(t *testing.T) {
	fs := &failingPutSettings{
		fakeSettings: newFakeSettings(),
		failKey:      "test_lock" + consts.SetSuffixLastRun,
	}
	l := New("test_lock", fs)

	if err := l.TryAcquire(); err == nil {
		t.Fatal("expected the stamp failure to surface")
	}

	// The flag must not stay up when the caller never got the lock.
	v, _ := fs.Get("test_lock" + consts.SetSuffixRunning)
	if v != "false" {
		t.Fatalf("expected flag released after stamp failure, got %q", v)
	}

	// A later acquisition with a healthy store succeeds immediately.
	healthy := New("test_lock", fs.fakeSettings)
	if err := healthy.TryAcquire(); err != nil {
		t.Fatalf("expected acquire to succeed after failed stamp: %v", err)
	}
}

func TestClearStale(t *testing.T) {
	fs := newFakeSettings()
	l := New("test_lock", fs)

	// Seed a flag held for 3 hours.
	if err := fs.Put("test_lock"+consts.SetSuffixRunning, "true", ""); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().UTC().Add(-3 * time.Hour)
	if err := fs.Put("test_lock"+consts.SetSuffixLastRun, stale.Format(time.RFC3339), ""); err != nil {
		t.Fatal(err)
	}

	if err := l.ClearStale(consts.StaleLockAge); err != nil {
		t.Fatalf("ClearStale failed: %v", err)
	}

	v, _ := fs.Get("test_lock" + consts.SetSuffixRunning)
	if v != "false" {
		t.Fatalf("expected stale flag cleared, got %q", v)
	}

	// The next acquisition must succeed.
	if err := l.TryAcquire(); err != nil {
		t.Fatalf("expected acquire to succeed after stale clear: %v", err)
	}
}

func TestClearStaleKeepsFreshLock(t *testing.T) {
	fs := newFakeSettings()
	l := New("test_lock", fs)

	if err := l.TryAcquire(); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := l.ClearStale(consts.StaleLockAge); err != nil {
		t.Fatalf("ClearStale failed: %v", err)
	}

	v, _ := fs.Get("test_lock" + consts.SetSuffixRunning)
	if v != "true" {
		t.Fatalf("fresh lock must stay held, got %q", v)
	}
}
