package downloads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mirrarr/internal/domain/command"
	"mirrarr/internal/models"
	"mirrarr/internal/utils/logging"
)

// Download fetches one video into the channel's media directory and returns
// the final media file path plus the metadata parsed from the info-JSON
// sidecar yt-dlp writes next to it.
func (y *YTDLP) Download(ctx context.Context, c *models.Channel, entry models.PlaylistEntry) (string, *models.VideoInfo, error) {
	target := entry.URL
	if target == "" {
		target = entry.ID
	}

	channelDir := filepath.Join(y.opts.MediaRoot, c.DirName())
	if err := os.MkdirAll(channelDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create channel directory %q: %w", channelDir, err)
	}

	args := y.buildDownloadArgs(channelDir, target)

	out, err := y.runWithRetry(ctx, args)
	if err != nil {
		return "", nil, err
	}

	filePath := finalFilePath(out)
	if filePath == "" {
		return "", nil, fmt.Errorf("%s printed no final file path for video %q", command.YTDLP, entry.ID)
	}

	info, err := readInfoJSON(filePath)
	if err != nil {
		// The media file is in place; missing metadata degrades the sidecar
		// but does not fail the download.
		logging.W("No info-JSON for %q: %v", filePath, err)
		info = &models.VideoInfo{ID: entry.ID, Title: entry.Title}
	}

	logging.S("Downloaded %q to %s", entry.ID, filePath)
	return filePath, info, nil
}

func (y *YTDLP) buildDownloadArgs(channelDir, target string) []string {
	args := append(y.commonArgs(),
		command.RestrictFilenames,
		command.WriteInfoJSON,
		command.WriteThumbnail,
		command.EmbedThumbnail,
		command.ConvertThumbnails, command.ThumbnailFormat,
		command.WriteSubs,
	)

	subLangs := y.opts.SubLangs
	if subLangs == "" {
		subLangs = command.DefaultSubLangs
	}
	args = append(args, command.SubLangs, subLangs)

	if y.opts.OutputExt != "" {
		args = append(args, command.MergeOutputFormat, y.opts.OutputExt)
	}
	args = append(args, y.fragmentArgs()...)

	// Fragments accumulate under temp; finished files move home atomically,
	// so .part files never pollute the media tree.
	args = append(args, command.Paths, "home:"+channelDir)
	if y.opts.TempRoot != "" {
		args = append(args, command.Paths, "temp:"+y.opts.TempRoot)
	}

	// year / per-video folder / file; the folder and file share the same
	// stem so every path element carries the bracketed id.
	outputTemplate := filepath.Join(
		command.VideoDirTemplate,
		command.VideoFileTemplate,
		command.VideoFileTemplate+".%(ext)s",
	)
	args = append(args,
		command.Output, outputTemplate,
		command.Print, command.AfterMove,
		target,
	)
	return args
}

// finalFilePath extracts the post-move media path from yt-dlp's stdout. The
// after_move print is the last non-empty line.
func finalFilePath(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(string(lines[i])); line != "" {
			return line
		}
	}
	return ""
}

// readInfoJSON parses the info-JSON sidecar written next to the media file.
func readInfoJSON(mediaPath string) (*models.VideoInfo, error) {
	ext := filepath.Ext(mediaPath)
	infoPath := strings.TrimSuffix(mediaPath, ext) + ".info.json"

	b, err := os.ReadFile(infoPath)
	if err != nil {
		return nil, err
	}

	var info models.VideoInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", infoPath, err)
	}
	return &info, nil
}
