// Package htmlsanitize cleans user-supplied profile text before it is
// stored, since the front end renders profile fields into HTML fragments.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Policies are safe for concurrent use once built.
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps basic formatting (paragraphs, emphasis, lists, links) and
// removes scripts, event handlers and unsafe URLs. Used for the profile bio.
func Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// maxTextPasses bounds the strip/decode loop in Text. Each pass peels one
// layer of entity encoding.
const maxTextPasses = 8

// Text strips all markup and returns plain text. Entities are decoded so
// "Tom & Jerry" is stored as typed, and the strip/decode pair repeats until
// the output is stable, so entity-encoded markup cannot decode into a tag.
// Input that is still changing after maxTextPasses is dropped.
func Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	for range maxTextPasses {
		next := html.UnescapeString(plainPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	return ""
}
