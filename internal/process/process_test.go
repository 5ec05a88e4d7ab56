package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
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

// fakeChannels serves a fixed channel list.
type fakeChannels struct {
	mu         sync.Mutex
	channels   []*models.Channel
	lastChecks map[int64]int
}

func newFakeChannels(channels ...*models.Channel) *fakeChannels {
	return &fakeChannels{channels: channels, lastChecks: make(map[int64]int)}
}

func (f *fakeChannels) GetEnabledChannels() ([]*models.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Channel
	for _, c := range f.channels {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChannels) GetChannelByProviderID(channelID string) (*models.Channel, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.channels {
		if c.ChannelID == channelID {
			return c, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeChannels) UpdateLastCheck(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastChecks[id]++
	return nil
}

// fakeDownloads is an in-memory download-row store keyed by video id.
type fakeDownloads struct {
	mu     sync.Mutex
	rows   map[string]*models.Download
	nextID int64
}

func newFakeDownloads() *fakeDownloads {
	return &fakeDownloads{rows: make(map[string]*models.Download)}
}

func (f *fakeDownloads) GetByVideoID(videoID string) (*models.Download, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[videoID]
	if !ok {
		return nil, false, nil
	}
	cp := *row
	return &cp, true, nil
}

func (f *fakeDownloads) Upsert(d *models.Download) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.rows[d.VideoID]; ok {
		d.ID = existing.ID
	} else {
		f.nextID++
		d.ID = f.nextID
	}
	cp := *d
	f.rows[d.VideoID] = &cp
	return nil
}

func (f *fakeDownloads) SetStatus(videoID string, status consts.DLStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[videoID]
	if !ok {
		return fmt.Errorf("no download row for video %q", videoID)
	}
	row.Status = status
	return nil
}

func (f *fakeDownloads) GetCompletedExisting(channelID int64) ([]*models.Download, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Download
	for _, row := range f.rows {
		if row.ChannelID == channelID && row.Status == consts.DLStatusCompleted && row.FileExists {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadDate != out[j].UploadDate {
			return out[i].UploadDate > out[j].UploadDate
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeDownloads) MarkFileMissing(videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[videoID]
	if !ok {
		return fmt.Errorf("no download row for video %q", videoID)
	}
	row.FileExists = false
	return nil
}

func (f *fakeDownloads) DemoteInterrupted() (int64, error) {
	return 0, nil
}

// fakeHistory records run rows in order.
type fakeHistory struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.DownloadHistory
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{rows: make(map[int64]*models.DownloadHistory)}
}

func (f *fakeHistory) BeginRun(channelID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.rows[f.nextID] = &models.DownloadHistory{
		ID:        f.nextID,
		ChannelID: channelID,
		RunAt:     time.Now().UTC(),
		Status:    consts.HistStatusRunning,
	}
	return f.nextID, nil
}

func (f *fakeHistory) FinishRun(id int64, h *models.DownloadHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("no history row %d", id)
	}
	row.Found = h.Found
	row.Downloaded = h.Downloaded
	row.Skipped = h.Skipped
	row.Failed = h.Failed
	row.Status = h.Status
	row.ErrorMessage = h.ErrorMessage
	row.CompletedAt = time.Now().UTC()
	return nil
}

func (f *fakeHistory) GetRecentRuns(channelID int64, limit int) ([]*models.DownloadHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DownloadHistory
	for _, row := range f.rows {
		if row.ChannelID == channelID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeHistory) byChannel(channelID int64) []*models.DownloadHistory {
	rows, _ := f.GetRecentRuns(channelID, 0)
	return rows
}

// fakeDiscoverer maps channel provider ids to canned listings.
type fakeDiscoverer struct {
	mu      sync.Mutex
	entries map[string][]models.PlaylistEntry
	errs    map[string]error
	calls   int
}

func newFakeDiscoverer() *fakeDiscoverer {
	return &fakeDiscoverer{
		entries: make(map[string][]models.PlaylistEntry),
		errs:    make(map[string]error),
	}
}

func (f *fakeDiscoverer) ListRecent(_ context.Context, c *models.Channel, limit int) ([]models.PlaylistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[c.ChannelID]; err != nil {
		return nil, err
	}
	entries := f.entries[c.ChannelID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// fakeDownloader delegates to a function so tests can script outcomes.
type fakeDownloader struct {
	fn func(c *models.Channel, entry models.PlaylistEntry) (string, *models.VideoInfo, error)
}

func (f *fakeDownloader) Download(_ context.Context, c *models.Channel, entry models.PlaylistEntry) (string, *models.VideoInfo, error) {
	return f.fn(c, entry)
}

// writingDownloader materializes a media file in the expected layout so
// descriptor and retention code has something real to act on.
func writingDownloader(t *testing.T, mediaRoot, uploadDate string) *fakeDownloader {
	t.Helper()
	return &fakeDownloader{fn: func(c *models.Channel, entry models.PlaylistEntry) (string, *models.VideoInfo, error) {
		base := fmt.Sprintf("%s - %s - %s [%s]", c.Name, uploadDate, entry.Title, entry.ID)
		videoDir := filepath.Join(mediaRoot, c.DirName(), uploadDate[:4], base)
		if err := os.MkdirAll(videoDir, 0o755); err != nil {
			return "", nil, err
		}
		path := filepath.Join(videoDir, base+".mkv")
		if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
			return "", nil, err
		}
		info := &models.VideoInfo{
			ID:         entry.ID,
			Title:      entry.Title,
			UploadDate: uploadDate,
			Duration:   90,
		}
		return path, info, nil
	}}
}

type testHarness struct {
	orch       *Orchestrator
	settings   *fakeSettings
	channels   *fakeChannels
	downloads  *fakeDownloads
	history    *fakeHistory
	discoverer *fakeDiscoverer
	mediaRoot  string
}

func newHarness(t *testing.T, dl *fakeDownloader, channels ...*models.Channel) *testHarness {
	t.Helper()
	h := &testHarness{
		settings:   newFakeSettings(),
		channels:   newFakeChannels(channels...),
		downloads:  newFakeDownloads(),
		history:    newFakeHistory(),
		discoverer: newFakeDiscoverer(),
		mediaRoot:  t.TempDir(),
	}
	if dl == nil {
		dl = &fakeDownloader{fn: func(_ *models.Channel, entry models.PlaylistEntry) (string, *models.VideoInfo, error) {
			return "", nil, errors.New("unexpected download of " + entry.ID)
		}}
	}
	h.orch = New(Deps{
		Channels:   h.channels,
		Downloads:  h.downloads,
		History:    h.history,
		Settings:   h.settings,
		Discoverer: h.discoverer,
		Downloader: dl,
		MediaRoot:  h.mediaRoot,
	})

	// A cover file at the channel root short-circuits the artwork scrape so
	// tests never touch the network.
	for _, c := range channels {
		dir := filepath.Join(h.mediaRoot, c.DirName())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return h
}

func enabledChannel(id int64, providerID, name string) *models.Channel {
	return &models.Channel{
		ID:         id,
		ChannelID:  providerID,
		Name:       name,
		URL:        "https://example.com/@" + providerID,
		VideoLimit: 10,
		Enabled:    true,
	}
}

func (h *testHarness) summary(t *testing.T) models.SweepSummary {
	t.Helper()
	raw, _ := h.settings.Get(consts.LockScheduledDownloads + consts.SetSuffixLastRunSummary)
	if raw == "" {
		t.Fatal("no sweep summary stored")
	}
	var s models.SweepSummary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("summary does not parse: %v", err)
	}
	return s
}

func TestRunSweepHappyPath(t *testing.T) {
	c1 := enabledChannel(1, "UC-one", "Channel One")
	c2 := enabledChannel(2, "UC-two", "Channel Two")

	h := newHarness(t, nil, c1, c2)
	h.orch.downloader = writingDownloader(t, h.mediaRoot, "20260102")

	h.discoverer.entries["UC-one"] = []models.PlaylistEntry{
		{ID: "v1", Title: "First"},
		{ID: "v2", Title: "Second"},
	}
	h.discoverer.entries["UC-two"] = []models.PlaylistEntry{
		{ID: "v3", Title: "Third"},
	}

	h.orch.RunSweep(context.Background())

	s := h.summary(t)
	if s.TotalChannels != 2 || s.SuccessfulChannels != 2 || s.FailedChannels != 0 {
		t.Fatalf("unexpected channel counts: %+v", s)
	}
	if s.TotalVideos != 3 {
		t.Fatalf("expected 3 videos downloaded, got %d", s.TotalVideos)
	}

	for _, id := range []string{"v1", "v2", "v3"} {
		row, ok, _ := h.downloads.GetByVideoID(id)
		if !ok || row.Status != consts.DLStatusCompleted || !row.FileExists {
			t.Errorf("video %q: expected completed row, got %+v", id, row)
		}
		if row.FilePath == "" || row.FileSize == 0 {
			t.Errorf("video %q: file fields not populated: %+v", id, row)
		}
	}

	// Each run row was terminally updated and last_check stamped.
	for _, c := range []*models.Channel{c1, c2} {
		runs := h.history.byChannel(c.ID)
		if len(runs) != 1 || runs[0].Status != consts.HistStatusCompleted {
			t.Errorf("channel %q: expected one completed run, got %+v", c.Name, runs)
		}
		if h.channels.lastChecks[c.ID] != 1 {
			t.Errorf("channel %q: last_check not updated", c.Name)
		}
	}

	// Descriptors landed next to the media and in the year/channel dirs.
	base := "Channel One - 20260102 - First [v1]"
	videoDir := filepath.Join(h.mediaRoot, c1.DirName(), "2026", base)
	for _, want := range []string{
		filepath.Join(videoDir, base+".nfo"),
		filepath.Join(h.mediaRoot, c1.DirName(), "2026", "season.nfo"),
		filepath.Join(h.mediaRoot, c1.DirName(), "tvshow.nfo"),
		filepath.Join(h.mediaRoot, c1.DirName(), "Channel One.info.json"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("expected descriptor %q: %v", want, err)
		}
	}

	// The single-flight flag must be back down.
	running, _ := h.settings.Get(consts.LockScheduledDownloads + consts.SetSuffixRunning)
	if running != "false" {
		t.Fatalf("sweep lock not released: %q", running)
	}
}

func TestRunSweepSkipsWhileLockHeld(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	h := newHarness(t, nil, c)
	h.discoverer.entries["UC-one"] = []models.PlaylistEntry{{ID: "v1", Title: "First"}}

	if err := h.settings.Put(consts.LockScheduledDownloads+consts.SetSuffixRunning, "true", ""); err != nil {
		t.Fatal(err)
	}

	h.orch.RunSweep(context.Background())

	if h.discoverer.calls != 0 {
		t.Fatal("sweep body ran despite a held lock")
	}
	if raw, _ := h.settings.Get(consts.LockScheduledDownloads + consts.SetSuffixLastRunSummary); raw != "" {
		t.Fatal("skipped sweep must not write a summary")
	}
}

func TestRunSweepMixedChannelErrors(t *testing.T) {
	good := enabledChannel(1, "UC-good", "Good Channel")
	bad := enabledChannel(2, "UC-bad", "Bad Channel")

	h := newHarness(t, nil, good, bad)
	h.orch.downloader = writingDownloader(t, h.mediaRoot, "20260110")

	h.discoverer.entries["UC-good"] = []models.PlaylistEntry{{ID: "g1", Title: "Fine"}}
	h.discoverer.errs["UC-bad"] = errors.New("HTTP Error 403: channel terminated")

	h.orch.RunSweep(context.Background())

	s := h.summary(t)
	if s.SuccessfulChannels != 1 || s.FailedChannels != 1 {
		t.Fatalf("expected 1 ok / 1 failed, got %+v", s)
	}

	// The failed channel still got a terminal history row with the error.
	runs := h.history.byChannel(bad.ID)
	if len(runs) != 1 || runs[0].Status != consts.HistStatusFailed {
		t.Fatalf("expected failed run row, got %+v", runs)
	}
	if !strings.Contains(runs[0].ErrorMessage, "403") {
		t.Fatalf("expected error message recorded, got %q", runs[0].ErrorMessage)
	}
	if h.channels.lastChecks[bad.ID] != 1 {
		t.Fatal("failed channel must still stamp last_check")
	}
}

func TestProcessChannelDedupAndResurrection(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	h := newHarness(t, nil, c)
	h.orch.downloader = writingDownloader(t, h.mediaRoot, "20260115")

	// v1: completed with its file intact — must be skipped.
	done := &models.Download{ChannelID: c.ID, VideoID: "v1", Title: "Done"}
	done.MarkCompleted(filepath.Join(h.mediaRoot, "x"), 1)
	if err := h.downloads.Upsert(done); err != nil {
		t.Fatal(err)
	}

	// v2: tombstone (file gone) — must be re-downloaded.
	gone := &models.Download{ChannelID: c.ID, VideoID: "v2", Title: "Gone"}
	gone.MarkCompleted(filepath.Join(h.mediaRoot, "y"), 1)
	gone.FileExists = false
	if err := h.downloads.Upsert(gone); err != nil {
		t.Fatal(err)
	}

	// v3: on disk with a bracketed id but no row — must be adopted, not fetched.
	witnessDir := filepath.Join(h.mediaRoot, c.DirName(), "2025", "old video [v3]")
	if err := os.MkdirAll(witnessDir, 0o755); err != nil {
		t.Fatal(err)
	}
	witness := filepath.Join(witnessDir, "old video [v3].mkv")
	if err := os.WriteFile(witness, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}

	h.discoverer.entries["UC-one"] = []models.PlaylistEntry{
		{ID: "v1", Title: "Done"},
		{ID: "v2", Title: "Gone"},
		{ID: "v3", Title: "Old"},
		{ID: "v4", Title: "New"},
	}

	downloaded, err := h.orch.ProcessChannel(context.Background(), c)
	if err != nil {
		t.Fatalf("ProcessChannel failed: %v", err)
	}
	if downloaded != 2 {
		t.Fatalf("expected v2 and v4 downloaded, got %d", downloaded)
	}

	runs := h.history.byChannel(c.ID)
	if len(runs) != 1 {
		t.Fatalf("expected one run row, got %d", len(runs))
	}
	run := runs[0]
	if run.Found != 4 || run.Downloaded != 2 || run.Skipped != 2 || run.Failed != 0 {
		t.Fatalf("unexpected run counts: %+v", run)
	}

	adopted, ok, _ := h.downloads.GetByVideoID("v3")
	if !ok || adopted.Status != consts.DLStatusCompleted || adopted.FilePath != witness {
		t.Fatalf("expected v3 adopted from disk, got %+v", adopted)
	}
	if adopted.Title != "Found on disk" {
		t.Fatalf("adopted row title: got %q", adopted.Title)
	}
}

func TestProcessChannelRecordsDownloadFailure(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	longMsg := strings.Repeat("unavailable ", 60)
	dl := &fakeDownloader{fn: func(_ *models.Channel, entry models.PlaylistEntry) (string, *models.VideoInfo, error) {
		if entry.ID == "v-bad" {
			return "", nil, errors.New(longMsg)
		}
		return "", nil, errors.New("should not reach " + entry.ID)
	}}
	h := newHarness(t, dl, c)

	h.discoverer.entries["UC-one"] = []models.PlaylistEntry{{ID: "v-bad", Title: "Broken"}}

	downloaded, err := h.orch.ProcessChannel(context.Background(), c)
	if err != nil {
		t.Fatalf("per-video failures must not fail the run: %v", err)
	}
	if downloaded != 0 {
		t.Fatalf("expected zero downloads, got %d", downloaded)
	}

	row, ok, _ := h.downloads.GetByVideoID("v-bad")
	if !ok || row.Status != consts.DLStatusFailed {
		t.Fatalf("expected failed row, got %+v", row)
	}
	if len(row.ErrorMessage) > consts.MaxErrorMessageLen {
		t.Fatalf("error message not capped: %d chars", len(row.ErrorMessage))
	}

	runs := h.history.byChannel(c.ID)
	if runs[0].Failed != 1 || runs[0].Status != consts.HistStatusCompleted {
		t.Fatalf("expected completed run with 1 failure, got %+v", runs[0])
	}
}

func TestRetentionKeepsNewestWithinLimit(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	c.VideoLimit = 2
	h := newHarness(t, nil, c)

	// Four completed videos on disk, oldest first.
	dates := []string{"20260101", "20260102", "20260103", "20260104"}
	paths := make(map[string]string)
	for i, date := range dates {
		id := fmt.Sprintf("v%d", i+1)
		base := fmt.Sprintf("%s - video [%s]", date, id)
		dir := filepath.Join(h.mediaRoot, c.DirName(), date[:4], base)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, base+".mkv")
		if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths[id] = path

		row := &models.Download{ChannelID: c.ID, VideoID: id, Title: id, UploadDate: date}
		row.MarkCompleted(path, 5)
		if err := h.downloads.Upsert(row); err != nil {
			t.Fatal(err)
		}
	}

	if err := h.orch.applyRetention(c); err != nil {
		t.Fatalf("applyRetention failed: %v", err)
	}

	// Newest two survive, oldest two are gone and tombstoned.
	for _, id := range []string{"v3", "v4"} {
		if _, err := os.Stat(paths[id]); err != nil {
			t.Errorf("video %q should survive retention: %v", id, err)
		}
		row, _, _ := h.downloads.GetByVideoID(id)
		if !row.FileExists {
			t.Errorf("video %q wrongly tombstoned", id)
		}
	}
	for _, id := range []string{"v1", "v2"} {
		if _, err := os.Stat(paths[id]); !os.IsNotExist(err) {
			t.Errorf("video %q should be deleted", id)
		}
		row, _, _ := h.downloads.GetByVideoID(id)
		if row.FileExists {
			t.Errorf("video %q not tombstoned", id)
		}
	}
}

func TestRetentionAlwaysKeepsOne(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	c.VideoLimit = 0 // clamps to 1
	h := newHarness(t, nil, c)

	base := "20260101 - only [v1]"
	dir := filepath.Join(h.mediaRoot, c.DirName(), "2026", base)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, base+".mkv")
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	row := &models.Download{ChannelID: c.ID, VideoID: "v1", UploadDate: "20260101"}
	row.MarkCompleted(path, 5)
	if err := h.downloads.Upsert(row); err != nil {
		t.Fatal(err)
	}

	if err := h.orch.applyRetention(c); err != nil {
		t.Fatalf("applyRetention failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal("the last remaining video must never be deleted")
	}
}

func TestRetentionPrunesEmptyYearDirs(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	c.VideoLimit = 1
	h := newHarness(t, nil, c)

	mk := func(date, id string) string {
		base := fmt.Sprintf("%s - video [%s]", date, id)
		dir := filepath.Join(h.mediaRoot, c.DirName(), date[:4], base)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, base+".mkv")
		if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
			t.Fatal(err)
		}
		row := &models.Download{ChannelID: c.ID, VideoID: id, UploadDate: date}
		row.MarkCompleted(path, 5)
		if err := h.downloads.Upsert(row); err != nil {
			t.Fatal(err)
		}
		return path
	}

	mk("20250601", "old1") // only occupant of 2025
	mk("20260601", "new1")

	year2025 := filepath.Join(h.mediaRoot, c.DirName(), "2025")
	if err := os.WriteFile(filepath.Join(year2025, "season.nfo"), []byte("<season/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.orch.applyRetention(c); err != nil {
		t.Fatalf("applyRetention failed: %v", err)
	}

	if _, err := os.Stat(year2025); !os.IsNotExist(err) {
		t.Fatal("expected emptied year directory to be pruned")
	}
	year2026 := filepath.Join(h.mediaRoot, c.DirName(), "2026")
	if _, err := os.Stat(year2026); err != nil {
		t.Fatal("occupied year directory must survive")
	}
}

func TestTriggerChannelQueuesWhileSweepRuns(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	h := newHarness(t, nil, c)

	if err := h.settings.Put(consts.LockScheduledDownloads+consts.SetSuffixRunning, "true", ""); err != nil {
		t.Fatal(err)
	}

	queued, pos, err := h.orch.TriggerChannel(context.Background(), "UC-one", "alice")
	if err != nil {
		t.Fatalf("TriggerChannel failed: %v", err)
	}
	if !queued || pos != 1 {
		t.Fatalf("expected queued at position 1, got queued=%v pos=%d", queued, pos)
	}
	if h.discoverer.calls != 0 {
		t.Fatal("queued trigger must not run inline")
	}

	// Re-triggering the same channel keeps its original position.
	queued, pos, err = h.orch.TriggerChannel(context.Background(), "UC-one", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !queued || pos != 1 {
		t.Fatalf("expected dedup to original position, got pos=%d", pos)
	}
}

func TestTriggerChannelRunsInlineWhenIdle(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	h := newHarness(t, nil, c)
	h.discoverer.entries["UC-one"] = nil

	queued, _, err := h.orch.TriggerChannel(context.Background(), "UC-one", "alice")
	if err != nil {
		t.Fatalf("TriggerChannel failed: %v", err)
	}
	if queued {
		t.Fatal("idle trigger must run inline, not queue")
	}
	if h.discoverer.calls != 1 {
		t.Fatalf("expected one inline run, discovery called %d times", h.discoverer.calls)
	}
}

func TestTriggerChannelRejectsUnknownAndDisabled(t *testing.T) {
	disabled := enabledChannel(1, "UC-off", "Off Channel")
	disabled.Enabled = false
	h := newHarness(t, nil, disabled)

	if _, _, err := h.orch.TriggerChannel(context.Background(), "UC-missing", "alice"); err == nil {
		t.Fatal("expected error for unknown channel")
	}
	if _, _, err := h.orch.TriggerChannel(context.Background(), "UC-off", "alice"); err == nil {
		t.Fatal("expected error for disabled channel")
	}
}

func TestSweepDrainsManualTriggers(t *testing.T) {
	c1 := enabledChannel(1, "UC-one", "Channel One")
	off := enabledChannel(2, "UC-off", "Off Channel")
	off.Enabled = false
	h := newHarness(t, nil, c1, off)
	h.orch.downloader = writingDownloader(t, h.mediaRoot, "20260120")

	h.discoverer.entries["UC-one"] = []models.PlaylistEntry{{ID: "m1", Title: "Manual"}}

	// Queue: a stale entry, a disabled channel, and a live one.
	staleJSON := fmt.Sprintf(
		`[{"channel_id":"UC-stale","user":"old","timestamp":%q},`+
			`{"channel_id":"UC-off","user":"x","timestamp":%q},`+
			`{"channel_id":"UC-one","user":"alice","timestamp":%q}]`,
		time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err := h.settings.Put(consts.SetManualTriggerQueue, staleJSON, ""); err != nil {
		t.Fatal(err)
	}

	h.orch.RunSweep(context.Background())

	// The stale entry was dropped, the disabled one skipped, the live one ran.
	// UC-one appears twice: once from the enabled sweep, once from the queue
	// (the second pass skips its already-downloaded video).
	s := h.summary(t)
	if s.TotalChannels != 2 {
		t.Fatalf("expected enabled sweep + one manual run, got %+v", s)
	}
	if s.TotalVideos != 1 {
		t.Fatalf("expected one video overall, got %d", s.TotalVideos)
	}

	pending, err := h.orch.Queue().Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("queue not fully drained: %+v", pending)
	}
}

func TestRunSweepEmptyChannelSet(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.RunSweep(context.Background())

	s := h.summary(t)
	if s.TotalChannels != 0 || s.TotalVideos != 0 {
		t.Fatalf("expected zeroed summary, got %+v", s)
	}
}

func TestProcessChannelStopsOnCancel(t *testing.T) {
	c := enabledChannel(1, "UC-one", "Channel One")
	h := newHarness(t, nil, c)
	h.discoverer.entries["UC-one"] = []models.PlaylistEntry{{ID: "v1", Title: "First"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.orch.ProcessChannel(ctx, c); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}

	runs := h.history.byChannel(c.ID)
	if len(runs) != 1 || runs[0].Status != consts.HistStatusFailed {
		t.Fatalf("cancelled run must record a failed history row, got %+v", runs)
	}
}
