// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/spotmapr/geoproxy/internal/cache"
	"github.com/spotmapr/geoproxy/internal/clock"
	"github.com/spotmapr/geoproxy/internal/config"
	"github.com/spotmapr/geoproxy/internal/geocode"
	"github.com/spotmapr/geoproxy/internal/geocode/geoapify"
	"github.com/spotmapr/geoproxy/internal/geocode/nominatim"
	"github.com/spotmapr/geoproxy/internal/http/routes"
	"github.com/spotmapr/geoproxy/internal/metrics"
	"github.com/spotmapr/geoproxy/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		logger = logger.Level(lvl)
	}
	if cfg.GeoapifyAPIKey == "" {
		logger.Warn().Msg("GEOAPIFY_API_KEY not set; autocomplete will fail with a configuration error")
	}

	clk := clock.System{}

	// Shared result cache; the janitor's lifetime is tied to the process.
	store := cache.New[any](clk)
	store.StartJanitor(cfg.CacheCleanupInterval)
	defer store.StopJanitor()

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow, clk)

	httpc := &http.Client{Timeout: cfg.UpstreamTimeout}
	auto := geoapify.New(cfg.GeoapifyAPIKey,
		geoapify.WithHTTPClient(httpc),
		geoapify.WithBaseURL(cfg.GeoapifyBaseURL),
		geoapify.WithTimeout(cfg.UpstreamTimeout),
	)
	search := nominatim.New(
		nominatim.WithHTTPClient(httpc),
		nominatim.WithBaseURL(cfg.NominatimBaseURL),
		nominatim.WithTimeout(cfg.UpstreamTimeout),
	)

	svc := geocode.NewService(geocode.Options{
		Limiter:      limiter,
		Cache:        store,
		CacheTTL:     cfg.CacheTTL,
		Autocomplete: auto,
		Search:       search,
		Metrics:      metrics.New(prometheus.DefaultRegisterer),
		Logger:       logger,
		LogQueryText: !cfg.Production(),
	})

	s := routes.New(routes.ServerOptions{Geo: svc, Log: logger})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("starting geocoding proxy")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	logger.Info().Msg("shut down cleanly")
}
