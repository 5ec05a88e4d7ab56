package schedule

import (
	"strings"
	"testing"
	"time"
)

func TestValidateAccepts(t *testing.T) {
	exprs := []string{
		"0 0 * * *",
		"30 4 * * *",
		"0 */6 * * *",
		"15 2 1 * *",
		"0 12 * * 1-5",
		"*/10 * * * *",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			if _, err := Validate(expr); err != nil {
				t.Fatalf("expected %q to validate, got: %v", expr, err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		expr    string
		wantSub string
	}{
		{"", "empty"},
		{"0 0 * *", "5 fields"},
		{"0 0 * * * *", "5 fields"},
		{"* * * * *", "minimum interval"},
		{"*/1 * * * *", "minimum interval"},
		{"*/2 * * * *", "minimum interval"},
		{"@daily", "5 fields"},
		{"0 0 * * MON", "invalid characters"},
		{"a b c d e", "invalid characters"},
		{"99 0 * * *", "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Validate(tt.expr)
			if err == nil {
				t.Fatalf("expected %q to be rejected", tt.expr)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestNextRunsStrictlyIncreasing(t *testing.T) {
	from := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	runs, err := NextRuns("0 0 * * *", from, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 5 {
		t.Fatalf("expected 5 runs, got %d", len(runs))
	}

	prev := from
	for i, r := range runs {
		if !r.After(prev) {
			t.Errorf("run %d (%v) is not after %v", i, r, prev)
		}
		if r.Location() != time.UTC {
			t.Errorf("run %d is not UTC: %v", i, r.Location())
		}
		if r.Hour() != 0 || r.Minute() != 0 {
			t.Errorf("run %d is not midnight: %v", i, r)
		}
		prev = r
	}
}

func TestNextRunsAcrossYearBoundary(t *testing.T) {
	from := time.Date(2026, time.December, 31, 23, 0, 0, 0, time.UTC)

	runs, err := NextRuns("0 0 1 1 *", from, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	if len(runs) < 1 || !runs[0].Equal(want) {
		t.Fatalf("expected first run %v, got %v", want, runs)
	}
}

func TestNextRunsUnreachableDate(t *testing.T) {
	// February 30th never exists.
	if _, err := Validate("0 0 30 2 *"); err == nil {
		t.Fatal("expected an unreachable schedule to be rejected")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"0 0 * * *", "daily at midnight"},
		{"0 * * * *", "hourly"},
		{"0 0 * * 0", "weekly on Sunday at midnight"},
		{"0 0 1 * *", "monthly on the 1st at midnight"},
		{"30 4 * * *", "daily at 4:30"},
		{"17 3 2 * *", "Custom schedule: 17 3 2 * *"},
	}
	for _, tt := range tests {
		if got := Describe(tt.expr); got != tt.want {
			t.Errorf("Describe(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}
