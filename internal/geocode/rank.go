package geocode

import (
	"sort"
	"strings"
)

// RankSuggestions turns raw free-text candidates into a deterministic
// suggestion list: extract the field matching the query kind, drop
// empties, dedupe on first occurrence, rank by relevance to the query,
// and truncate to limit.
func RankSuggestions(kind Kind, queryText string, limit int, places []Place) []string {
	suggestions := make([]string, 0, len(places))
	seen := make(map[string]struct{}, len(places))
	for _, p := range places {
		s := extractField(kind, p)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		suggestions = append(suggestions, s)
	}

	q := strings.ToLower(strings.TrimSpace(queryText))
	sort.SliceStable(suggestions, func(i, j int) bool {
		ri, rj := relevance(suggestions[i], q), relevance(suggestions[j], q)
		if ri != rj {
			return ri < rj
		}
		// Shorter reads as more specific; stable sort keeps
		// first-appearance order for equal lengths.
		return len(suggestions[i]) < len(suggestions[j])
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// relevance tiers a candidate against the lower-cased query: exact
// match, then prefix, then substring, then everything else.
func relevance(candidate, query string) int {
	c := strings.ToLower(candidate)
	switch {
	case c == query:
		return 0
	case strings.HasPrefix(c, query):
		return 1
	case strings.Contains(c, query):
		return 2
	default:
		return 3
	}
}

// extractField pulls the kind's field out of a raw record, falling back
// to the first comma-delimited segment of the display name when the
// structured field is absent.
func extractField(kind Kind, p Place) string {
	switch kind {
	case KindStreet:
		if p.Address.Road != "" {
			return p.Address.Road
		}
	case KindCity:
		switch {
		case p.Address.City != "":
			return p.Address.City
		case p.Address.Town != "":
			return p.Address.Town
		case p.Address.Village != "":
			return p.Address.Village
		}
	case KindCountry:
		if p.Address.Country != "" {
			return p.Address.Country
		}
	}
	return firstSegment(p.DisplayName)
}

func firstSegment(displayName string) string {
	if i := strings.Index(displayName, ","); i >= 0 {
		displayName = displayName[:i]
	}
	return strings.TrimSpace(displayName)
}

// ResolveAddress picks the first raw candidate as the single resolved
// address, or nil when the provider returned none.
func ResolveAddress(places []Place) *AddressResult {
	if len(places) == 0 {
		return nil
	}
	p := places[0]
	return &AddressResult{
		Lat:         p.Lat,
		Lng:         p.Lon,
		DisplayName: p.DisplayName,
		Address:     p.Address,
	}
}
