package geocode

import (
	"strings"
	"unicode/utf8"
)

// Kind selects which provider capability serves a query.
type Kind int

const (
	// KindAutocomplete is structured address completion (Geoapify).
	KindAutocomplete Kind = iota
	// KindStreet, KindCity and KindCountry are free-text suggestion
	// kinds; KindAddress resolves a single best-match address. All four
	// are served by the free-text provider (Nominatim).
	KindStreet
	KindCity
	KindCountry
	KindAddress
)

func (k Kind) String() string {
	switch k {
	case KindAutocomplete:
		return "autocomplete"
	case KindStreet:
		return "street"
	case KindCity:
		return "city"
	case KindCountry:
		return "country"
	case KindAddress:
		return "address"
	default:
		return "unknown"
	}
}

// ParseSearchKind maps the search endpoint's type parameter to a Kind.
// Only the free-text kinds are addressable from outside; autocomplete
// has its own endpoint.
func ParseSearchKind(s string) (Kind, bool) {
	switch s {
	case "street":
		return KindStreet, true
	case "city":
		return KindCity, true
	case "country":
		return KindCountry, true
	case "address":
		return KindAddress, true
	default:
		return 0, false
	}
}

const (
	// DefaultLimit matches the UI's suggestion page size.
	DefaultLimit = 5
	maxLimit     = 10

	minAutocompleteLen = 3
	minSearchLen       = 2
)

// Query is a normalized inbound geocoding request.
type Query struct {
	Text           string
	Kind           Kind
	Limit          int
	CountryContext string
	CityContext    string
}

// normalize trims the free-text fields and clamps the limit into
// [1, maxLimit], defaulting it when unset.
func (q *Query) normalize() {
	q.Text = strings.TrimSpace(q.Text)
	q.CountryContext = strings.TrimSpace(q.CountryContext)
	q.CityContext = strings.TrimSpace(q.CityContext)

	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
}

// validate enforces the per-kind minimum text length. It assumes
// normalize has run.
func (q Query) validate() *ValidationError {
	n := utf8.RuneCountInString(q.Text)
	if q.Kind == KindAutocomplete {
		if q.Text == "" {
			return &ValidationError{msg: "Missing required parameter: text"}
		}
		if n < minAutocompleteLen {
			return &ValidationError{msg: "Query must be at least 3 characters long"}
		}
		return nil
	}
	if n < minSearchLen {
		return &ValidationError{msg: "Query must be at least 2 characters long"}
	}
	return nil
}

// cacheKeyKind returns the kind segment used in cache keys.
func (q Query) cacheKeyKind() string { return q.Kind.String() }
