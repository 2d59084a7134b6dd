// Package geoapify adapts the Geoapify structured-address API to the
// proxy's provider-agnostic shapes.
package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/spotmapr/geoproxy/internal/geocode"
)

const DefaultBaseURL = "https://api.geoapify.com"

const defaultTimeout = 5 * time.Second

type Client struct {
	http    *http.Client
	baseURL *url.URL
	apiKey  string
	timeout time.Duration
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

// WithTimeout bounds each outbound call independently of the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New builds a client. An empty apiKey is accepted here and surfaces as
// geocode.ErrNoCredential on the first call, so a misconfigured deploy
// still starts and fails per-request as a configuration error.
func New(apiKey string, opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:    http.DefaultClient,
		baseURL: u,
		apiKey:  apiKey,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Autocomplete fetches structured completions for q and maps them into
// the normalized result shape.
func (c *Client) Autocomplete(ctx context.Context, q geocode.Query) ([]geocode.AutocompleteResult, error) {
	if c.apiKey == "" {
		return nil, geocode.ErrNoCredential
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.baseURL
	u.Path = path.Join(u.Path, "/v1/geocode/autocomplete")
	qq := u.Query()
	qq.Set("text", q.Text)
	qq.Set("limit", strconv.Itoa(q.Limit))
	qq.Set("format", "json")
	qq.Set("apiKey", c.apiKey)
	u.RawQuery = qq.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("geoapify autocomplete: %w: %v", geocode.ErrUpstreamFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geoapify autocomplete: %w: %v", geocode.ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("geoapify autocomplete: %w: status %d", geocode.ErrBadCredential, resp.StatusCode)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("geoapify autocomplete: %w", geocode.ErrUpstreamRateLimited)
	default:
		return nil, fmt.Errorf("geoapify autocomplete: %w: status %d", geocode.ErrUpstreamFailed, resp.StatusCode)
	}

	var body autocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geoapify autocomplete: %w: decode: %v", geocode.ErrUpstreamFailed, err)
	}

	results := make([]geocode.AutocompleteResult, 0, len(body.Results))
	for _, r := range body.Results {
		results = append(results, geocode.AutocompleteResult{
			Formatted:   r.Formatted,
			Street:      r.Street,
			HouseNumber: r.HouseNumber,
			City:        r.City,
			Postcode:    r.Postcode,
			State:       r.State,
			Country:     r.Country,
			CountryCode: r.CountryCode,
			Lat:         r.Lat,
			Lon:         r.Lon,
			PlaceID:     r.PlaceID,
			ResultType:  r.ResultType,
		})
	}
	return results, nil
}
