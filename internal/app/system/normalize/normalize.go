// Package normalize canonicalizes user input before it is validated or
// stored, so lookups and uniqueness checks compare like with like.
package normalize

import "strings"

// Email trims surrounding whitespace and lower-cases the address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username trims surrounding whitespace. Case is preserved.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// Name trims and collapses internal runs of whitespace to a single space.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Key trims a follow-collection natural key (team id, sport id, ...).
func Key(s string) string {
	return strings.TrimSpace(s)
}

// List trims every element of ss and drops empty and repeated values,
// keeping first-seen order.
func List(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, 0, len(ss))
	seen := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
