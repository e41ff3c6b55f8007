// Package slug derives URL-safe, human-readable slugs from display names.
// Slugs are a secondary lookup key with last-writer-wins semantics when two
// display names collapse to the same value; they are not unique.
package slug

import (
	"regexp"
	"strings"
)

var (
	disallowedRE = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
	hyphenRunRE  = regexp.MustCompile(`-+`)
)

// Build normalizes a display name into a slug: lowercase, strip characters
// outside [a-z0-9\s-], collapse whitespace runs to a single hyphen, collapse
// hyphen runs, and trim leading/trailing hyphens. Deterministic and pure;
// Build(Build(x)) == Build(x).
func Build(displayName string) string {
	s := strings.ToLower(displayName)
	s = disallowedRE.ReplaceAllString(s, "")
	s = whitespaceRE.ReplaceAllString(s, "-")
	s = hyphenRunRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
