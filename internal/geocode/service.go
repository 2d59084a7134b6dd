package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/spotmapr/geoproxy/internal/cache"
	"github.com/spotmapr/geoproxy/internal/metrics"
	"github.com/spotmapr/geoproxy/internal/ratelimit"
)

// DefaultTTL is how long processed geocoding results stay cached.
const DefaultTTL = 10 * time.Minute

// AutocompleteProvider serves structured-address completion.
type AutocompleteProvider interface {
	Autocomplete(ctx context.Context, q Query) ([]AutocompleteResult, error)
}

// SearchProvider serves free-text search, returning raw unranked
// candidates.
type SearchProvider interface {
	Search(ctx context.Context, q Query) ([]Place, error)
}

// Service is the request pipeline in front of the providers: validate,
// rate-limit, cache lookup, provider call, processing, cache write. One
// limiter and one cache instance are shared by every query kind; the
// kind is part of the cache key.
//
// Concurrent misses on the same key each call the provider; the last
// writer wins the cache slot. Entries are immutable values, so that is
// harmless at this service's traffic.
type Service struct {
	limiter *ratelimit.Limiter
	cache   *cache.Cache[any]
	ttl     time.Duration

	auto   AutocompleteProvider
	search SearchProvider

	metrics *metrics.Metrics
	log     zerolog.Logger
	logText bool
}

// Options configures a Service. Limiter, Cache, Metrics and the two
// providers are required.
type Options struct {
	Limiter      *ratelimit.Limiter
	Cache        *cache.Cache[any]
	CacheTTL     time.Duration // DefaultTTL when zero
	Autocomplete AutocompleteProvider
	Search       SearchProvider
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger

	// LogQueryText enables logging of (truncated) query text on error
	// branches. Off in production profiles.
	LogQueryText bool
}

func NewService(opts Options) *Service {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		limiter: opts.Limiter,
		cache:   opts.Cache,
		ttl:     ttl,
		auto:    opts.Autocomplete,
		search:  opts.Search,
		metrics: opts.Metrics,
		log:     opts.Logger,
		logText: opts.LogQueryText,
	}
}

// Autocomplete runs the pipeline for the structured autocomplete kind.
func (s *Service) Autocomplete(ctx context.Context, clientKey string, q Query) ([]AutocompleteResult, error) {
	q.Kind = KindAutocomplete
	if err := s.admit(clientKey, &q); err != nil {
		s.metrics.RecordRequest("autocomplete", outcome(err))
		return nil, err
	}

	key := cache.Key(q.cacheKeyKind(), q.Text, "", "")
	if v, ok := s.cache.Get(key); ok {
		if results, ok := v.([]AutocompleteResult); ok {
			s.metrics.RecordCache(true)
			s.metrics.RecordRequest("autocomplete", "ok")
			return results, nil
		}
	}
	s.metrics.RecordCache(false)

	start := time.Now()
	results, err := s.auto.Autocomplete(ctx, q)
	s.metrics.RecordUpstream("geoapify", time.Since(start), failReason(err))
	if err != nil {
		s.logUpstream(q, err)
		s.metrics.RecordRequest("autocomplete", outcome(err))
		return nil, err
	}

	s.cache.Set(key, results, s.ttl)
	s.metrics.RecordRequest("autocomplete", "ok")
	return results, nil
}

// Suggest runs the pipeline for the street/city/country kinds and
// returns the ranked, deduplicated suggestion list.
func (s *Service) Suggest(ctx context.Context, clientKey string, q Query) ([]string, error) {
	if err := s.admit(clientKey, &q); err != nil {
		s.metrics.RecordRequest("search", outcome(err))
		return nil, err
	}

	key := cache.Key(q.cacheKeyKind(), q.Text, q.CountryContext, q.CityContext)
	if v, ok := s.cache.Get(key); ok {
		if suggestions, ok := v.([]string); ok {
			s.metrics.RecordCache(true)
			s.metrics.RecordRequest("search", "ok")
			return suggestions, nil
		}
	}
	s.metrics.RecordCache(false)

	places, err := s.fetchPlaces(ctx, q)
	if err != nil {
		s.metrics.RecordRequest("search", outcome(err))
		return nil, err
	}

	suggestions := RankSuggestions(q.Kind, q.Text, q.Limit, places)
	s.cache.Set(key, suggestions, s.ttl)
	s.metrics.RecordRequest("search", "ok")
	return suggestions, nil
}

// Address runs the pipeline for single-address resolution. A nil result
// with nil error means no candidate was found; that outcome is cached
// like any other.
func (s *Service) Address(ctx context.Context, clientKey string, q Query) (*AddressResult, error) {
	q.Kind = KindAddress
	if err := s.admit(clientKey, &q); err != nil {
		s.metrics.RecordRequest("search", outcome(err))
		return nil, err
	}

	key := cache.Key(q.cacheKeyKind(), q.Text, q.CountryContext, q.CityContext)
	if v, ok := s.cache.Get(key); ok {
		if addr, ok := v.(*AddressResult); ok {
			s.metrics.RecordCache(true)
			s.metrics.RecordRequest("search", "ok")
			return addr, nil
		}
	}
	s.metrics.RecordCache(false)

	places, err := s.fetchPlaces(ctx, q)
	if err != nil {
		s.metrics.RecordRequest("search", outcome(err))
		return nil, err
	}

	addr := ResolveAddress(places)
	s.cache.Set(key, addr, s.ttl)
	s.metrics.RecordRequest("search", "ok")
	return addr, nil
}

// admit is the front half of the pipeline: normalization and validation
// strictly before the rate-limit check, the limit check strictly before
// any cache or provider access.
func (s *Service) admit(clientKey string, q *Query) error {
	q.normalize()
	if verr := q.validate(); verr != nil {
		return verr
	}
	if !s.limiter.Allow(clientKey) {
		s.metrics.RateLimitDenials.Inc()
		return ErrRateLimited
	}
	return nil
}

func (s *Service) fetchPlaces(ctx context.Context, q Query) ([]Place, error) {
	start := time.Now()
	places, err := s.search.Search(ctx, q)
	s.metrics.RecordUpstream("nominatim", time.Since(start), failReason(err))
	if err != nil {
		s.logUpstream(q, err)
		return nil, err
	}
	return places, nil
}

// logUpstream records a provider failure server-side. Query text is
// included (truncated) only when the profile allows it; the raw error
// text never leaves the log.
func (s *Service) logUpstream(q Query, err error) {
	ev := s.log.Error().
		Str("kind", q.Kind.String()).
		Err(err)
	if s.logText {
		ev = ev.Str("query", truncate(q.Text, 40))
	}
	ev.Msg("upstream geocoding call failed")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func failReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstreamRateLimited):
		return "rate_limited"
	case IsConfiguration(err):
		return "configuration"
	default:
		return "failed"
	}
}

func outcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUpstreamRateLimited):
		return "upstream_rate_limited"
	case IsConfiguration(err):
		return "configuration_error"
	default:
		return "upstream_error"
	}
}
