package parsing

import (
	"strings"

	"github.com/araddon/dateparse"
)

// HyphenateYyyyMmDd converts a compact YYYYMMDD date to YYYY-MM-DD.
//
// Falls back to tolerant parsing for dates that arrive in other shapes.
func HyphenateYyyyMmDd(d string) string {
	d = strings.TrimSpace(d)
	compact := strings.ReplaceAll(strings.ReplaceAll(d, "-", ""), " ", "")

	if len(compact) == 8 && isDigits(compact) {
		return compact[0:4] + "-" + compact[4:6] + "-" + compact[6:8]
	}

	if t, err := dateparse.ParseAny(d); err == nil {
		return t.Format("2006-01-02")
	}
	return d
}

// YearOf returns the 4-digit year prefix of an upload date, or "".
func YearOf(uploadDate string) string {
	compact := strings.ReplaceAll(uploadDate, "-", "")
	if len(compact) >= 4 && isDigits(compact[0:4]) {
		return compact[0:4]
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
