// Package nfo emits Kodi/Jellyfin-compatible XML descriptors next to
// downloaded media.
package nfo

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mirrarr/internal/contracts"
	"mirrarr/internal/domain/consts"
	"mirrarr/internal/file"
	"mirrarr/internal/models"
	"mirrarr/internal/parsing"
	"mirrarr/internal/utils/logging"
)

const (
	studioName = "YouTube"
	idType     = "youtube"

	dateAddedLayout = "2006-01-02 15:04:05"
)

// Writer generates descriptor files, honoring the nfo_enabled and
// overwrite_existing_nfo settings.
type Writer struct {
	settings contracts.SettingsStore

	// now is swapped out by tests.
	now func() time.Time
}

// NewWriter returns a descriptor writer backed by the given settings store.
func NewWriter(settings contracts.SettingsStore) *Writer {
	return &Writer{settings: settings, now: time.Now}
}

// Enabled reports whether descriptor generation is switched on. Defaults to
// on when the setting is unset.
func (w *Writer) Enabled() bool {
	v, err := w.settings.GetOrDefault(consts.SetNFOEnabled, "true")
	if err != nil {
		logging.E("Failed to read %s: %v", consts.SetNFOEnabled, err)
		return true
	}
	return v != "false"
}

func (w *Writer) overwrite() bool {
	v, err := w.settings.GetOrDefault(consts.SetOverwriteNFO, "false")
	if err != nil {
		logging.E("Failed to read %s: %v", consts.SetOverwriteNFO, err)
		return false
	}
	return v == "true"
}

// WriteTVShow writes the channel-root tvshow.nfo.
func (w *Writer) WriteTVShow(channelDir string, c *models.Channel, info *models.VideoInfo) error {
	path := filepath.Join(channelDir, "tvshow.nfo")
	if !w.shouldWrite(path) {
		return nil
	}

	doc := TVShow{
		Title:    c.Name,
		UniqueID: UniqueID{Type: idType, Default: "true", Value: c.ChannelID},
		Studio:   studioName,
	}
	if info != nil {
		doc.Plot = info.Description
		doc.Tags = info.Tags
	}
	return w.emit(path, doc)
}

// WriteSeason writes the year-folder season.nfo.
func (w *Writer) WriteSeason(yearDir, year string) error {
	path := filepath.Join(yearDir, "season.nfo")
	if !w.shouldWrite(path) {
		return nil
	}

	doc := Season{
		DateAdded: w.now().UTC().Format(dateAddedLayout),
		Title:     year,
		SeasonNum: year,
	}
	return w.emit(path, doc)
}

// WriteEpisode writes the episodedetails descriptor beside mediaPath. A
// document missing a title or channel name is skipped with a warning rather
// than written half-empty.
func (w *Writer) WriteEpisode(mediaPath string, c *models.Channel, info *models.VideoInfo) error {
	if info == nil || info.Title == "" || c.Name == "" {
		logging.W("Skipping episode descriptor for %q: missing title or channel name", mediaPath)
		return nil
	}

	path := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".nfo"
	if !w.shouldWrite(path) {
		return nil
	}

	doc := Episode{
		Title:     info.Title,
		ShowTitle: c.Name,
		Plot:      info.Description,
		Language:  info.Language,
		Director:  info.Uploader,
		Studio:    studioName,
		UniqueID:  UniqueID{Type: idType, Default: "true", Value: info.ID},
		Genres:    info.Categories,
		Tags:      info.Tags,
		DateAdded: w.now().UTC().Format(dateAddedLayout),
	}
	if len(info.UploadDate) >= 4 {
		doc.Year = info.UploadDate[:4]
		doc.Aired = parsing.HyphenateYyyyMmDd(info.UploadDate)
	}
	if secs := info.DurationSeconds(); secs > 0 {
		doc.Runtime = secs / 60
	}
	return w.emit(path, doc)
}

// shouldWrite applies the overwrite setting: existing descriptors are kept
// unless overwriting is enabled.
func (w *Writer) shouldWrite(path string) bool {
	if w.overwrite() {
		return true
	}
	if _, err := os.Stat(path); err == nil {
		logging.D(2, "Descriptor %q exists, not overwriting", path)
		return false
	}
	return true
}

func (w *Writer) emit(path string, doc any) error {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor %q: %w", path, err)
	}

	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')
	if err := file.WriteAtomic(path, data, 0o644); err != nil {
		return err
	}
	logging.D(1, "Wrote descriptor %s", path)
	return nil
}
