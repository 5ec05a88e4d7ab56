// Package logging provides the program's logging facade.
//
// Console output keeps the colored tag style; the log file receives
// structured zerolog lines for later grepping.
package logging

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"mirrarr/internal/domain/consts"

	"github.com/rs/zerolog"
)

var (
	// Level is the debug verbosity. D calls with a level at or above this
	// are dropped.
	Level int

	mu       sync.Mutex
	loggable bool
	fileLog  zerolog.Logger
)

// Matches ANSI escape codes for stripping before file writes.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Setup opens the log file and initializes the structured file logger.
//
// Console logging works without Setup; only file persistence needs it.
func Setup(logFilePath string, debugLevel int) error {
	Level = debugLevel

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
	}

	fileLog = zerolog.New(f).With().Timestamp().Logger()
	loggable = true
	return nil
}

// I prints an informational message.
func I(format string, args ...any) {
	emit(consts.BlueInfo, zerolog.InfoLevel, format, args...)
}

// S prints a success message.
func S(format string, args ...any) {
	emit(consts.GreenSuccess, zerolog.InfoLevel, format, args...)
}

// W prints a warning message.
func W(format string, args ...any) {
	emit(consts.YellowWarn, zerolog.WarnLevel, format, args...)
}

// E prints an error message.
func E(format string, args ...any) {
	emit(consts.RedError, zerolog.ErrorLevel, format, args...)
}

// P prints a plain untagged message.
func P(format string, args ...any) {
	emit("", zerolog.InfoLevel, format, args...)
}

// D prints a debug message when the verbosity level admits it.
func D(l int, format string, args ...any) {
	if l >= Level {
		return
	}
	emit(consts.YellowDebug, zerolog.DebugLevel, format, args...)
}

func emit(tag string, lvl zerolog.Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	var msg string
	if len(args) != 0 {
		msg = fmt.Sprintf(format, args...)
	} else {
		msg = format
	}

	fmt.Println(tag + msg)

	if loggable {
		fileLog.WithLevel(lvl).Msg(ansiEscape.ReplaceAllString(msg, ""))
	}
}
