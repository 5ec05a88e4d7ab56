package downloads

import "strings"

// retryableMarkers are substrings of extraction-tool errors worth retrying.
var retryableMarkers = []string{
	"network",
	"timeout",
	"connection",
	"temporary",
	"rate limit",
	"quota",
	"503",
	"502",
	"504",
}

// IsRetryable reports whether an error message looks transient. Matching is
// case-insensitive substring search; anything else (geo-block, removed video,
// members-only) fails permanently.
func IsRetryable(errMsg string) bool {
	msg := strings.ToLower(errMsg)
	for _, m := range retryableMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
