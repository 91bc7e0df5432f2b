// Package textsanitize cleans user-entered free text (transfer notes,
// rejection reasons, report notes) before it is stored.
package textsanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain strips all markup from s, keeps the text content and trims
// surrounding whitespace. Script and style contents are dropped.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// PlainMax is Plain truncated to at most max runes.
func PlainMax(s string, max int) string {
	s = Plain(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}
