package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"whatssound/internal/app/profiles"
	"whatssound/internal/app/requests"
	"whatssound/internal/app/search"
	"whatssound/internal/app/sessions"
	"whatssound/internal/app/users"
	"whatssound/internal/auth"
	"whatssound/internal/config"
	"whatssound/internal/http/middleware"
	"whatssound/internal/httpapi"
	"whatssound/internal/musicapi"
	"whatssound/internal/recent"
	"whatssound/internal/store"
)

// newServices wires the application services. The returned breaker guards
// track search and is reported at /health.
func newServices(cfg *config.Config, dataStore *store.Store, recentStore recent.Store) (httpapi.Services, *musicapi.BreakerClient) {
	deezer := musicapi.NewDeezerClient(cfg.Deezer.BaseURL, cfg.Deezer.Timeout)
	searcher := musicapi.NewBreakerClient(deezer, musicapi.DefaultBreakerSettings("deezer"))

	var otp users.OTPProvider
	if cfg.OTPEnabled() {
		otp = auth.NewOTPClient(cfg.Auth.URL, cfg.Auth.AnonKey)
		log.Info().Str("url", cfg.Auth.URL).Msg("phone login enabled")
	} else {
		log.Warn().Msg("SUPABASE_URL not set, phone login disabled")
	}

	return httpapi.Services{
		Users:    users.New(otp),
		Sessions: sessions.New(dataStore, nil),
		Requests: requests.New(dataStore),
		Search:   search.New(searcher, recentStore),
		Profiles: profiles.New(dataStore),
	}, searcher
}

// newRecentStore connects to Redis when configured and falls back to an
// in-process store otherwise. The returned func releases the connection.
func newRecentStore(ctx context.Context, redisURL string) (recent.Store, func() error, error) {
	if redisURL == "" {
		log.Info().Msg("REDIS_URL not set, keeping recent searches in memory")
		return recent.NewMemoryStore(), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().Str("addr", opts.Addr).Msg("recent searches stored in redis")
	return recent.NewRedisStore(client), client.Close, nil
}

func newHTTPServer(cfg *config.Config, svc httpapi.Services, verifier middleware.TokenVerifier, limiter *middleware.RateLimiter, searcher *musicapi.BreakerClient) *http.Server {
	api := httpapi.New(svc, verifier,
		httpapi.WithSearchLimiter(limiter),
		httpapi.WithDependency("deezer", searcher),
		httpapi.WithAllowedOrigins(cfg.CORS.AllowedOrigins),
		httpapi.WithMetricsHandler(promhttp.Handler()),
	)

	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.Routes(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
