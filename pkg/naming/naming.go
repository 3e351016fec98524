// Package naming derives filesystem-safe artifact names from comic metadata.
package naming

import (
	"fmt"
	"strings"
)

const (
	// maxTokenLength caps sanitized titles to stay clear of filesystem path limits
	maxTokenLength = 80

	// fallbackToken substitutes for titles that sanitize down to nothing
	fallbackToken = "untitled"
)

// Sanitize turns a comic title into a filesystem-safe token.
// The same input always yields the same token, and the result is never empty.
func Sanitize(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastUnderscore := false
	for _, r := range title {
		var out rune
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			out = r
		case r == ' ', r == '_':
			out = '_'
		default:
			// Drop anything outside the safe set entirely
			continue
		}

		if out == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(out)
	}

	token := strings.Trim(b.String(), "_")

	if runes := []rune(token); len(runes) > maxTokenLength {
		token = strings.Trim(string(runes[:maxTokenLength]), "_")
	}

	if token == "" {
		return fallbackToken
	}
	return token
}

// ImageFilename derives the image artifact name for a comic.
// It is a pure function of (num, title, ext): regenerating it from stored
// metadata reproduces the same value byte for byte.
func ImageFilename(num int, title, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%04d_%s%s", num, Sanitize(title), ext)
}

// MetadataFilename derives the metadata artifact name for a comic
func MetadataFilename(num int) string {
	return fmt.Sprintf("%04d_metadata.json", num)
}
