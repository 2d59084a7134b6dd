// Package nominatim adapts the OpenStreetMap Nominatim free-text search
// API to the proxy's provider-agnostic shapes.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spotmapr/geoproxy/internal/geocode"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

const (
	defaultTimeout = 5 * time.Second

	// Nominatim's usage policy requires an identifying User-Agent.
	defaultUserAgent = "geoproxy/1.0 (github.com/spotmapr/geoproxy)"

	// The provider returns many near-duplicates, so suggestion kinds
	// fetch a multiple of the requested limit and let dedup/ranking
	// shrink it back down.
	headroomFactor = 5
	maxFetch       = 50
)

type Client struct {
	http      *http.Client
	baseURL   *url.URL
	userAgent string
	timeout   time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout bounds each outbound call independently of the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:      http.DefaultClient,
		baseURL:   u,
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Search fetches raw candidates for q. For suggestion kinds it requests
// dedup headroom beyond q.Limit; for address resolution a single record
// is enough.
func (c *Client) Search(ctx context.Context, q geocode.Query) ([]geocode.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fetch := 1
	if q.Kind != geocode.KindAddress {
		fetch = q.Limit * headroomFactor
		if fetch > maxFetch {
			fetch = maxFetch
		}
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, "/search")
	qq := u.Query()
	qq.Set("q", composeQuery(q))
	qq.Set("format", "jsonv2")
	qq.Set("addressdetails", "1")
	qq.Set("limit", strconv.Itoa(fetch))
	u.RawQuery = qq.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim search: %w: %v", geocode.ErrUpstreamFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim search: %w: %v", geocode.ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("nominatim search: %w", geocode.ErrUpstreamRateLimited)
	default:
		return nil, fmt.Errorf("nominatim search: %w: status %d", geocode.ErrUpstreamFailed, resp.StatusCode)
	}

	var raw []place
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("nominatim search: %w: decode: %v", geocode.ErrUpstreamFailed, err)
	}

	places := make([]geocode.Place, 0, len(raw))
	for _, p := range raw {
		lat, _ := strconv.ParseFloat(p.Lat, 64)
		lon, _ := strconv.ParseFloat(p.Lon, 64)
		places = append(places, geocode.Place{
			DisplayName: p.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Address: geocode.Address{
				Road:        p.Address.Road,
				HouseNumber: p.Address.HouseNumber,
				City:        p.Address.City,
				Town:        p.Address.Town,
				Village:     p.Address.Village,
				State:       p.Address.State,
				Postcode:    p.Address.Postcode,
				Country:     p.Address.Country,
				CountryCode: p.Address.CountryCode,
			},
		})
	}
	return places, nil
}

// composeQuery joins the free text with any city/country context so the
// provider scopes its matches.
func composeQuery(q geocode.Query) string {
	parts := []string{q.Text}
	if q.CityContext != "" {
		parts = append(parts, q.CityContext)
	}
	if q.CountryContext != "" {
		parts = append(parts, q.CountryContext)
	}
	return strings.Join(parts, ", ")
}
