package queue

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"mirrarr/internal/domain/consts"
	"mirrarr/internal/models"
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

func TestEnqueueReturnsPosition(t *testing.T) {
	q := New(newFakeSettings())

	for i, ch := range []string{"UC-one", "UC-two", "UC-three"} {
		pos, err := q.Enqueue(ch, "tester")
		if err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
		if pos != i+1 {
			t.Errorf("expected position %d for %q, got %d", i+1, ch, pos)
		}
	}
}

func TestEnqueueDeduplicatesChannel(t *testing.T) {
	q := New(newFakeSettings())

	if _, err := q.Enqueue("UC-one", "a"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if _, err := q.Enqueue("UC-two", "a"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	pos, err := q.Enqueue("UC-one", "b")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if pos != 1 {
		t.Errorf("expected existing position 1, got %d", pos)
	}

	pending, err := q.Pending()
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(pending))
	}
}

func TestPopFIFO(t *testing.T) {
	q := New(newFakeSettings())

	channels := []string{"UC-a", "UC-b", "UC-c"}
	for _, ch := range channels {
		if _, err := q.Enqueue(ch, "tester"); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	for _, want := range channels {
		entry, ok, err := q.Pop()
		if err != nil {
			t.Fatalf("pop failed: %v", err)
		}
		if !ok {
			t.Fatalf("expected an entry for %q, queue empty", want)
		}
		if entry.ChannelID != want {
			t.Errorf("expected %q, got %q", want, entry.ChannelID)
		}
	}

	if _, ok, err := q.Pop(); err != nil || ok {
		t.Fatalf("expected empty queue, got ok=%v err=%v", ok, err)
	}
}

func TestDrainStaleDropsOldEntries(t *testing.T) {
	fs := newFakeSettings()
	q := New(fs)

	entries := []models.QueueEntry{
		{ChannelID: "UC-old", User: "a", Timestamp: time.Now().UTC().Add(-45 * time.Minute)},
		{ChannelID: "UC-fresh", User: "b", Timestamp: time.Now().UTC()},
	}
	b, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := fs.Put(consts.SetManualTriggerQueue, string(b), ""); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	dropped, err := q.DrainStale(consts.StaleQueueEntryAge)
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if dropped != 1 {
		t.Errorf("expected 1 dropped entry, got %d", dropped)
	}

	pending, err := q.Pending()
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ChannelID != "UC-fresh" {
		t.Fatalf("expected only the fresh entry, got %+v", pending)
	}
}

func TestCorruptQueueIsReset(t *testing.T) {
	fs := newFakeSettings()
	q := New(fs)

	if err := fs.Put(consts.SetManualTriggerQueue, "{not json", ""); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	pos, err := q.Enqueue("UC-one", "tester")
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if pos != 1 {
		t.Errorf("expected position 1 after reset, got %d", pos)
	}
}
