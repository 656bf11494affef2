package watcher

import "strings"

// filenameReplacer maps the characters that cannot appear in a filename, plus
// their full-width variants, to underscores.
var filenameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
	"＜", "_", "＞", "_", "：", "_", "＂", "_", "／", "_", "＼", "_", "｜", "_", "？", "_", "＊", "_",
)

// Sanitize makes a string safe to use as part of a filename. Pure and
// idempotent: sanitizing an already-sanitized string is a no-op.
func Sanitize(name string) string {
	return strings.TrimSpace(filenameReplacer.Replace(name))
}
