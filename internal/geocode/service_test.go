package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/spotmapr/geoproxy/internal/cache"
	"github.com/spotmapr/geoproxy/internal/clock"
	"github.com/spotmapr/geoproxy/internal/metrics"
	"github.com/spotmapr/geoproxy/internal/ratelimit"
)

type stubAutocomplete struct {
	calls   int
	last    Query
	results []AutocompleteResult
	err     error
}

func (f *stubAutocomplete) Autocomplete(_ context.Context, q Query) ([]AutocompleteResult, error) {
	f.calls++
	f.last = q
	return f.results, f.err
}

type stubSearch struct {
	calls  int
	last   Query
	places []Place
	err    error
}

func (f *stubSearch) Search(_ context.Context, q Query) ([]Place, error) {
	f.calls++
	f.last = q
	return f.places, f.err
}

type fixture struct {
	svc    *Service
	clk    *clock.Manual
	auto   *stubAutocomplete
	search *stubSearch
}

func newFixture(t *testing.T, limit int) *fixture {
	t.Helper()
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	auto := &stubAutocomplete{}
	search := &stubSearch{}
	svc := NewService(Options{
		Limiter:      ratelimit.New(limit, time.Minute, clk),
		Cache:        cache.New[any](clk),
		CacheTTL:     DefaultTTL,
		Autocomplete: auto,
		Search:       search,
		Metrics:      metrics.New(prometheus.NewRegistry()),
		Logger:       zerolog.Nop(),
		LogQueryText: true,
	})
	return &fixture{svc: svc, clk: clk, auto: auto, search: search}
}

func TestCacheHitSuppressesProviderCall(t *testing.T) {
	f := newFixture(t, 100)
	f.auto.results = []AutocompleteResult{{Formatted: "Dizengoff 50, Tel Aviv", PlaceID: "p1"}}
	ctx := context.Background()

	first, err := f.svc.Autocomplete(ctx, "c1", Query{Text: "dizengoff"})
	require.NoError(t, err)
	require.Equal(t, 1, f.auto.calls)

	second, err := f.svc.Autocomplete(ctx, "c1", Query{Text: "dizengoff"})
	require.NoError(t, err)
	require.Equal(t, 1, f.auto.calls, "second identical query must be served from cache")
	require.Equal(t, first, second)

	f.clk.Advance(DefaultTTL + time.Second)
	_, err = f.svc.Autocomplete(ctx, "c1", Query{Text: "dizengoff"})
	require.NoError(t, err)
	require.Equal(t, 2, f.auto.calls, "expired entry must trigger a fresh provider call")
}

func TestCacheKeyIgnoresCaseAndWhitespace(t *testing.T) {
	f := newFixture(t, 100)
	f.auto.results = []AutocompleteResult{{Formatted: "x"}}
	ctx := context.Background()

	_, err := f.svc.Autocomplete(ctx, "c1", Query{Text: "Tel Aviv"})
	require.NoError(t, err)
	_, err = f.svc.Autocomplete(ctx, "c1", Query{Text: "  tel aviv  "})
	require.NoError(t, err)
	require.Equal(t, 1, f.auto.calls)
}

func TestKindsDoNotShareCacheEntries(t *testing.T) {
	f := newFixture(t, 100)
	f.search.places = []Place{{DisplayName: "Haifa", Address: Address{City: "Haifa", Country: "Israel"}}}
	ctx := context.Background()

	_, err := f.svc.Suggest(ctx, "c1", Query{Text: "haifa", Kind: KindCity})
	require.NoError(t, err)
	_, err = f.svc.Suggest(ctx, "c1", Query{Text: "haifa", Kind: KindCountry})
	require.NoError(t, err)
	require.Equal(t, 2, f.search.calls)
}

func TestValidationShortCircuits(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.Autocomplete(ctx, "c1", Query{Text: "ab"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Query must be at least 3 characters long", verr.Error())
	require.Zero(t, f.auto.calls)

	_, err = f.svc.Autocomplete(ctx, "c1", Query{Text: ""})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Missing required parameter: text", verr.Error())

	// Invalid requests must not consume rate-limit budget.
	f.auto.results = []AutocompleteResult{}
	_, err = f.svc.Autocomplete(ctx, "c1", Query{Text: "abc"})
	require.NoError(t, err)
}

func TestTwoCharQueryValidForSearchKinds(t *testing.T) {
	f := newFixture(t, 100)
	f.search.places = []Place{{DisplayName: "Lod", Address: Address{City: "Lod"}}}

	got, err := f.svc.Suggest(context.Background(), "c1", Query{Text: "lo", Kind: KindCity})
	require.NoError(t, err)
	require.Equal(t, []string{"Lod"}, got)
}

func TestRateLimitDeniesBeforeCacheAndProvider(t *testing.T) {
	f := newFixture(t, 1)
	f.auto.results = []AutocompleteResult{{Formatted: "x"}}
	ctx := context.Background()

	_, err := f.svc.Autocomplete(ctx, "c1", Query{Text: "abc"})
	require.NoError(t, err)

	// Denied even though the result is cached: the limit check runs
	// before the cache lookup.
	_, err = f.svc.Autocomplete(ctx, "c1", Query{Text: "abc"})
	require.ErrorIs(t, err, ErrRateLimited)
	require.Equal(t, 1, f.auto.calls)

	// Other clients are unaffected.
	_, err = f.svc.Autocomplete(ctx, "c2", Query{Text: "abc"})
	require.NoError(t, err)
}

func TestProviderFailureIsNotCached(t *testing.T) {
	f := newFixture(t, 100)
	f.auto.err = ErrUpstreamFailed
	ctx := context.Background()

	_, err := f.svc.Autocomplete(ctx, "c1", Query{Text: "abc"})
	require.ErrorIs(t, err, ErrUpstreamFailed)

	f.auto.err = nil
	f.auto.results = []AutocompleteResult{{Formatted: "x"}}
	got, err := f.svc.Autocomplete(ctx, "c1", Query{Text: "abc"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 2, f.auto.calls, "failure must not occupy the cache slot")
}

func TestSuggestRanksAndTruncates(t *testing.T) {
	f := newFixture(t, 100)
	f.search.places = []Place{
		{DisplayName: "Tel Aviv", Address: Address{City: "Tel Aviv"}},
		{DisplayName: "Hotel", Address: Address{City: "Hotel"}},
		{DisplayName: "Tel", Address: Address{City: "Tel"}},
	}

	got, err := f.svc.Suggest(context.Background(), "c1", Query{Text: "tel", Kind: KindCity, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"Tel", "Tel Aviv"}, got)
}

func TestLimitDefaultsAndClamps(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	_, err := f.svc.Autocomplete(ctx, "c1", Query{Text: "abc"})
	require.NoError(t, err)
	require.Equal(t, DefaultLimit, f.auto.last.Limit)

	_, err = f.svc.Autocomplete(ctx, "c1", Query{Text: "abcd", Limit: 500})
	require.NoError(t, err)
	require.Equal(t, maxLimit, f.auto.last.Limit)
}

func TestAddressResolution(t *testing.T) {
	f := newFixture(t, 100)
	f.search.places = []Place{
		{DisplayName: "1, Herzl, Tel Aviv", Lat: 32.06, Lon: 34.77, Address: Address{Road: "Herzl"}},
	}
	ctx := context.Background()

	got, err := f.svc.Address(ctx, "c1", Query{Text: "herzl 1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 32.06, got.Lat)
	require.Equal(t, 34.77, got.Lng)

	// Served from cache the second time.
	_, err = f.svc.Address(ctx, "c1", Query{Text: "herzl 1"})
	require.NoError(t, err)
	require.Equal(t, 1, f.search.calls)
}

func TestAddressNoCandidateIsCachedNil(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	got, err := f.svc.Address(ctx, "c1", Query{Text: "nowhere at all"})
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = f.svc.Address(ctx, "c1", Query{Text: "nowhere at all"})
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, 1, f.search.calls, "the null resolution is a cacheable success")
}

func TestSearchContextIsPartOfCacheKey(t *testing.T) {
	f := newFixture(t, 100)
	f.search.places = []Place{{DisplayName: "Allenby", Address: Address{Road: "Allenby"}}}
	ctx := context.Background()

	_, err := f.svc.Suggest(ctx, "c1", Query{Text: "allenby", Kind: KindStreet})
	require.NoError(t, err)
	_, err = f.svc.Suggest(ctx, "c1", Query{Text: "allenby", Kind: KindStreet, CityContext: "Tel Aviv"})
	require.NoError(t, err)
	require.Equal(t, 2, f.search.calls)
}
