// Package schedule validates and inspects the 5-field cron expressions that
// drive the download scheduler.
package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"mirrarr/internal/domain/consts"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field expressions only; no @descriptors.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// fieldCharset matches the characters a single cron field may contain:
// digits, star, comma, slash, and dash.
var fieldCharset = regexp.MustCompile(`^[0-9*,/\-]+$`)

// Validate checks a cron expression for syntax and for the minimum fire
// interval. It returns the parsed schedule on success.
func Validate(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("cron expression is empty")
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression %q must have 5 fields, got %d", expr, len(fields))
	}
	for i, f := range fields {
		if !fieldCharset.MatchString(f) {
			return nil, fmt.Errorf("cron expression %q has invalid characters in field %d (%q)", expr, i+1, f)
		}
	}

	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	if err := checkMinInterval(sched, expr); err != nil {
		return nil, err
	}
	return sched, nil
}

// checkMinInterval samples consecutive fires and rejects schedules that run
// more often than MinCronInterval. Sampling starts from a fixed instant so
// validation is deterministic.
func checkMinInterval(sched cron.Schedule, expr string) error {
	const samples = 4

	t := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	prev := sched.Next(t)
	if prev.IsZero() {
		// Unreachable schedules (e.g. Feb 30) never fire at all.
		return fmt.Errorf("cron expression %q never fires", expr)
	}

	for i := 0; i < samples; i++ {
		next := sched.Next(prev)
		if next.IsZero() {
			return nil
		}
		if gap := next.Sub(prev); gap < consts.MinCronInterval {
			return fmt.Errorf("cron expression %q fires every %s; minimum interval is %s",
				expr, gap, consts.MinCronInterval)
		}
		prev = next
	}
	return nil
}

// NextRuns returns up to n upcoming fire times in UTC, starting after from.
// Fewer than n times come back when the schedule stops firing.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	sched, err := Validate(expr)
	if err != nil {
		return nil, err
	}

	runs := make([]time.Time, 0, n)
	t := from.UTC()
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		runs = append(runs, t)
	}
	return runs, nil
}

// Describe returns a human-readable summary for common expressions, falling
// back to "Custom schedule: <expr>".
func Describe(expr string) string {
	expr = strings.TrimSpace(expr)
	switch expr {
	case "0 0 * * *":
		return "daily at midnight"
	case "0 * * * *":
		return "hourly"
	case "0 0 * * 0":
		return "weekly on Sunday at midnight"
	case "0 0 1 * *":
		return "monthly on the 1st at midnight"
	}

	fields := strings.Fields(expr)
	if len(fields) == 5 {
		minute, hour := fields[0], fields[1]
		rest := fields[2] + " " + fields[3] + " " + fields[4]
		if rest == "* * *" && isNumeric(minute) && isNumeric(hour) {
			if len(minute) == 1 {
				minute = "0" + minute
			}
			return fmt.Sprintf("daily at %s:%s", hour, minute)
		}
		if rest == "* * *" && minute != "*" && hour == "*" && isNumeric(minute) {
			return fmt.Sprintf("hourly at minute %s", minute)
		}
		if strings.HasPrefix(hour, "*/") && isNumeric(minute) {
			return fmt.Sprintf("every %s hours at minute %s", hour[2:], minute)
		}
	}
	return "Custom schedule: " + expr
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
