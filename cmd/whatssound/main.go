package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"whatssound/internal/app/requests"
	"whatssound/internal/auth"
	"whatssound/internal/config"
	"whatssound/internal/http/middleware"
	"whatssound/internal/logging"
	"whatssound/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("whatssound stopped")
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	dataStore := store.New(db)

	recentStore, closeRecent, err := newRecentStore(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRecent(); err != nil {
			log.Warn().Err(err).Msg("close recent search store")
		}
	}()

	verifier, err := auth.NewTokenVerifier(cfg.Security.JWTSecret)
	if err != nil {
		return fmt.Errorf("token verifier: %w", err)
	}

	services, searcher := newServices(cfg, dataStore, recentStore)

	if cfg.SeedDemo {
		queueSvc := requests.New(dataStore)
		if err := bootstrapDemoSession(ctx, dataStore, queueSvc, verifier); err != nil {
			return err
		}
	}

	limiter := middleware.NewRateLimiter(cfg.Search.RatePerMinute)
	go limiter.StartCleanup(10 * time.Minute)
	defer limiter.Stop()

	server := newHTTPServer(cfg, services, verifier, limiter, searcher)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
