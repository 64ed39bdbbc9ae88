package util

import (
	"io"
	"strings"
)

// Preview trims text to at most maxLines lines and maxBytes bytes, for
// debug traces and raw widget dumps. Limits of zero or less mean
// unlimited on that axis.
func Preview(text string, maxLines int, maxBytes int) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for i, line := range lines {
		if maxLines > 0 && i >= maxLines {
			break
		}
		sep := 0
		if b.Len() > 0 {
			sep = 1
		}
		if maxBytes > 0 && b.Len()+sep+len(line) > maxBytes {
			if b.Len() == 0 && maxBytes > 0 {
				return line[:maxBytes]
			}
			break
		}
		if sep == 1 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// Snippet reads at most max bytes from r and returns them trimmed.
// Used to excerpt HTTP error bodies without buffering the response.
func Snippet(r io.Reader, max int64) string {
	body, _ := io.ReadAll(io.LimitReader(r, max))
	return strings.TrimSpace(string(body))
}
