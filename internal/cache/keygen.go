package cache

import "strings"

// Key builds a deterministic cache key from a normalized query: the kind
// name, the lower-cased trimmed query text, and the context fields in
// fixed order. Semantically identical queries collide on the same entry
// regardless of letter case, surrounding whitespace, or the order the
// caller supplied parameters in.
func Key(kind, text, country, city string) string {
	parts := []string{
		kind,
		norm(text),
		norm(country),
		norm(city),
	}
	return strings.Join(parts, "|")
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
