// Package parsing provides small parsing and normalization helpers.
package parsing

import "strings"

// fsReplacer maps characters unsafe in cross-platform filenames.
var fsReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "",
	"?", "",
	"\"", "'",
	"<", "(",
	">", ")",
	"|", "-",
)

// SanitizeName makes a display name safe to use as a directory name.
func SanitizeName(name string) string {
	name = fsReplacer.Replace(name)
	name = strings.TrimRight(name, ". ")
	return strings.TrimSpace(name)
}
