// Package downloads wraps the yt-dlp subprocess for channel discovery and
// video downloads.
package downloads

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"mirrarr/internal/domain/command"
	"mirrarr/internal/domain/consts"
	"mirrarr/internal/utils/logging"
)

// Options configures the yt-dlp wrapper.
type Options struct {
	// MediaRoot is where channel directories live.
	MediaRoot string

	// TempRoot, when set, holds in-progress fragments so partial files never
	// land in the media tree.
	TempRoot string

	// CookieFile is a Netscape-format cookie file passed to yt-dlp.
	CookieFile string

	// FragmentConcurrency > 1 enables parallel fragment downloads.
	FragmentConcurrency int

	// OutputExt forces a merge container (e.g. "mkv"). Blank keeps the
	// source container.
	OutputExt string

	// SubLangs overrides the default subtitle language selection.
	SubLangs string
}

// YTDLP runs yt-dlp for discovery and downloads. It satisfies both the
// Discoverer and VideoDownloader contracts.
type YTDLP struct {
	opts       Options
	retryDelay time.Duration

	// runCommand is swapped out by tests.
	runCommand func(ctx context.Context, args []string) (stdout []byte, err error)
}

// New returns a yt-dlp wrapper with the given options.
func New(opts Options) *YTDLP {
	y := &YTDLP{opts: opts, retryDelay: consts.DLRetryDelay}
	y.runCommand = y.execute
	return y
}

// execute runs the yt-dlp binary and returns its stdout. Stderr rides along
// in the error so callers can classify the failure.
func (y *YTDLP) execute(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, command.YTDLP, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.D(2, "Running command: %s", cmd.String())
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s failed: %w: %s",
			command.YTDLP, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// runWithRetry retries transient failures with a fixed delay. Permanent
// failures and context cancellation return immediately.
func (y *YTDLP) runWithRetry(ctx context.Context, args []string) ([]byte, error) {
	var (
		out []byte
		err error
	)
	for attempt := 0; attempt <= consts.DLRetryAttempts; attempt++ {
		if attempt > 0 {
			logging.I("Retrying %s (attempt %d of %d) after transient error: %v",
				command.YTDLP, attempt+1, consts.DLRetryAttempts+1, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(y.retryDelay):
			}
		}

		out, err = y.runCommand(ctx, args)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsRetryable(err.Error()) {
			return out, err
		}
	}
	return out, err
}

// commonArgs are flags shared by discovery and download invocations.
func (y *YTDLP) commonArgs() []string {
	args := []string{command.NoProgress}
	if y.opts.CookieFile != "" {
		args = append(args, command.CookiePath, y.opts.CookieFile)
	}
	return args
}

func (y *YTDLP) fragmentArgs() []string {
	if y.opts.FragmentConcurrency > 1 {
		return []string{command.ConcurrentFrags, strconv.Itoa(y.opts.FragmentConcurrency)}
	}
	return nil
}
