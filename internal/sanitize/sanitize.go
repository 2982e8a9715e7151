// Package sanitize strips markup from user text before it is stored.
// Raw HTML is never persisted anywhere in the system.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text removes every HTML tag from s, decodes entities and trims
// surrounding whitespace.
func Text(s string) string {
	clean := policy.Sanitize(s)
	clean = html.UnescapeString(clean)
	return strings.TrimSpace(clean)
}
