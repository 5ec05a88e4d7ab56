// Package scraper fetches channel-level artwork from the channel's public
// page.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"mirrarr/internal/file"
	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"

	"github.com/gocolly/colly"
)

// Scraper pulls Open Graph artwork off channel pages.
type Scraper struct {
	client *http.Client
}

// New returns a new Scraper instance.
func New() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// FetchChannelArtwork scrapes the channel page for its og:image and writes
// it as cover.<ext> in channelDir. An existing cover is left alone.
func (s *Scraper) FetchChannelArtwork(ctx context.Context, c *models.Channel, channelDir string) error {
	if existing, _ := filepath.Glob(filepath.Join(channelDir, "cover.*")); len(existing) > 0 {
		logging.D(2, "Channel %q already has artwork", c.Name)
		return nil
	}

	var imageURL string
	collector := colly.NewCollector()
	collector.SetRequestTimeout(60 * time.Second)
	collector.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		if imageURL == "" {
			imageURL = e.Attr("content")
		}
	})

	if err := collector.Visit(c.URL); err != nil {
		return fmt.Errorf("error visiting webpage %q: %w", c.URL, err)
	}
	collector.Wait()

	if imageURL == "" {
		logging.D(1, "No og:image found for channel %q", c.Name)
		return nil
	}

	ext := path.Ext(imageURL)
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	dest := filepath.Join(channelDir, "cover"+ext)

	if err := s.downloadImage(ctx, imageURL, dest); err != nil {
		return err
	}
	logging.S("Fetched artwork for channel %q to %s", c.Name, dest)
	return nil
}

func (s *Scraper) downloadImage(ctx context.Context, imageURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch artwork %q: %w", imageURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.E("Failed to close artwork response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("artwork fetch returned %s for %q", resp.Status, imageURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return file.WriteAtomic(dest, data, os.FileMode(0o644))
}
