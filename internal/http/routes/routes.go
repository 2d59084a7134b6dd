// Package routes wires the proxy's HTTP surface: the two geocoding
// query endpoints plus health and metrics.
package routes

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/spotmapr/geoproxy/internal/geocode"
	appmw "github.com/spotmapr/geoproxy/internal/http/middleware"
)

type Server struct {
	Router *chi.Mux
	Geo    *geocode.Service
	Log    zerolog.Logger
}

type ServerOptions struct {
	Geo *geocode.Service
	Log zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(appmw.AccessLog(opts.Log))

	s := &Server{Router: r, Geo: opts.Geo, Log: opts.Log}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			s.Log.Error().Err(err).Msg("writing health check response")
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/geocode", func(gr chi.Router) {
		gr.Get("/autocomplete", s.handleAutocomplete)
		gr.Get("/search", s.handleSearch)
	})

	return s
}

// Per-endpoint client-facing texts for the shared error taxonomy.
type endpointMessages struct {
	rateLimited string
	unavailable string
}

var (
	autocompleteMessages = endpointMessages{
		rateLimited: "Rate limit exceeded. Please try again in a moment.",
		unavailable: "Service temporarily unavailable due to high traffic. Please try again later.",
	}
	searchMessages = endpointMessages{
		rateLimited: "Rate limit exceeded. Please try again later.",
		unavailable: "Search service is temporarily unavailable due to high traffic. Please try again later.",
	}
)

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := geocode.Query{
		Text:  qs.Get("text"),
		Kind:  geocode.KindAutocomplete,
		Limit: intParam(qs.Get("limit")),
	}

	results, err := s.Geo.Autocomplete(r.Context(), clientKey(r), q)
	if err != nil {
		s.writeGeocodeError(w, autocompleteMessages, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	kind, ok := geocode.ParseSearchKind(qs.Get("type"))
	if !ok {
		s.writeJSON(w, http.StatusBadRequest, errBody{Error: "Invalid type parameter"})
		return
	}

	q := geocode.Query{
		Text:           qs.Get("q"),
		Kind:           kind,
		Limit:          intParam(qs.Get("limit")),
		CountryContext: qs.Get("country"),
		CityContext:    qs.Get("city"),
	}

	if kind == geocode.KindAddress {
		addr, err := s.Geo.Address(r.Context(), clientKey(r), q)
		if err != nil {
			s.writeGeocodeError(w, searchMessages, err)
			return
		}
		// addr is nil when nothing matched; the client gets null.
		s.writeJSON(w, http.StatusOK, addr)
		return
	}

	suggestions, err := s.Geo.Suggest(r.Context(), clientKey(r), q)
	if err != nil {
		s.writeGeocodeError(w, searchMessages, err)
		return
	}
	s.writeJSON(w, http.StatusOK, suggestions)
}

type errBody struct {
	Error      string `json:"error"`
	IncidentID string `json:"incidentId,omitempty"`
}

// writeGeocodeError translates the service's error taxonomy into the
// endpoint's status codes and sanitized bodies. 5xx responses carry an
// incident ID also present on the server-side log line; provider detail
// stays in the log.
func (s *Server) writeGeocodeError(w http.ResponseWriter, msgs endpointMessages, err error) {
	var verr *geocode.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, errBody{Error: verr.Error()})
	case errors.Is(err, geocode.ErrRateLimited):
		s.writeJSON(w, http.StatusTooManyRequests, errBody{Error: msgs.rateLimited})
	case errors.Is(err, geocode.ErrUpstreamRateLimited):
		s.writeJSON(w, http.StatusServiceUnavailable, errBody{Error: msgs.unavailable})
	case geocode.IsConfiguration(err):
		incident := uuid.NewString()
		s.Log.Error().Str("incident_id", incident).Err(err).Msg("geocoding provider credential problem")
		s.writeJSON(w, http.StatusInternalServerError, errBody{Error: "Service configuration error", IncidentID: incident})
	default:
		incident := uuid.NewString()
		s.Log.Error().Str("incident_id", incident).Err(err).Msg("geocoding request failed")
		s.writeJSON(w, http.StatusInternalServerError, errBody{Error: "Internal server error", IncidentID: incident})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Error().Err(err).Msg("encoding response")
	}
}

// clientKey identifies the requester for rate limiting: the RealIP
// middleware has already resolved X-Forwarded-For into RemoteAddr, so
// this just strips any port. Best effort, not trustworthy.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
