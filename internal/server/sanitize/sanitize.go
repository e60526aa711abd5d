// Package sanitize cleans user-supplied HTML bodies and normalises page slugs.
package sanitize

import (
	"html"
	"strings"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
)

var ugc = bluemonday.UGCPolicy()

// HTML strips scripts, event handlers and other unsafe markup from body while
// keeping ordinary formatting.
func HTML(body string) string {
	return ugc.Sanitize(body)
}

var strict = bluemonday.StrictPolicy()

// Text removes all markup, leaving plain text. The result is unescaped, so
// storing it and running it through Text again yields the same string.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Slug returns the URL-safe form of s. The result is empty when s has no
// usable characters.
func Slug(s string) string {
	return slug.Make(strings.TrimSpace(s))
}
