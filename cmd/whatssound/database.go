package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

// dbRetry bounds how long startup waits for Postgres, which usually comes up
// after the API container in local compose setups.
type dbRetry struct {
	pingTimeout time.Duration
	maxWait     time.Duration
	backoff     time.Duration
	maxBackoff  time.Duration
}

var defaultDBRetry = dbRetry{
	pingTimeout: 5 * time.Second,
	maxWait:     30 * time.Second,
	backoff:     500 * time.Millisecond,
	maxBackoff:  5 * time.Second,
}

// openDatabase opens a pgx-backed pool and pings it until it answers or the
// retry budget runs out.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := waitForDatabase(ctx, db, defaultDBRetry); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func waitForDatabase(ctx context.Context, db *sql.DB, policy dbRetry) error {
	deadline := time.Now().Add(policy.maxWait)
	wait := policy.backoff

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, policy.pingTimeout)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("database ready")
			return nil
		}

		if ctx.Err() != nil || time.Now().Add(wait).After(deadline) {
			return fmt.Errorf("ping database after %d attempts: %w", attempt, err)
		}

		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("database not ready")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("ping database: %w", ctx.Err())
		}
		wait = min(wait*2, policy.maxBackoff)
	}
}
