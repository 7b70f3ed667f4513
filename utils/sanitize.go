package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Stored text is plain: markup is dropped, everything else is kept as typed.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips HTML tags from user supplied text and trims surrounding whitespace.
// The policy output is HTML-escaped and is unescaped again before storage.
func Sanitize(input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}

// SanitizeOptional sanitizes an optional field. Blank values become nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := Sanitize(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
