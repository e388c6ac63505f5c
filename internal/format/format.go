package format

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var units = []string{"B", "KB", "MB", "GB"}

// FileSize renders n bytes with one decimal and a binary unit, e.g. "1.5 MB".
func FileSize(n int64) string {
	size := float64(n)
	for _, u := range units {
		if size < 1024.0 && size > -1024.0 {
			return fmt.Sprintf("%.1f %s", size, u)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", size)
}

func Ratio(r float64) string {
	return fmt.Sprintf("%.1f%%", r)
}

// Summary is the multi-line report shown after a successful compression.
func Summary(original, compressed int64, ratio float64) string {
	var b strings.Builder
	b.WriteString("Compression successful!\n")
	b.WriteString("Original size: " + FileSize(original) + "\n")
	b.WriteString("Compressed size: " + FileSize(compressed) + "\n")
	b.WriteString("Compression ratio: " + Ratio(ratio))
	return b.String()
}

// Truncate cuts s to at most n bytes on a rune boundary and marks the cut
// with "...". Strings that already fit are returned unchanged.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
