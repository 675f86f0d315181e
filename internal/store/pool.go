// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// pinger is satisfied by *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

// ConnectOptions control the startup connection check.
type ConnectOptions struct {
	// Attempts is the number of ping retries after the first try.
	Attempts uint64
	// Backoff is the base of the exponential delay between pings.
	Backoff time.Duration
}

// DefaultConnectOptions wait for a database that is still starting.
var DefaultConnectOptions = ConnectOptions{Attempts: 5, Backoff: 250 * time.Millisecond}

// Connect opens a pool and waits until the database answers a ping. The
// retry applies only to startup; request-time store errors are surfaced.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := waitReady(ctx, pool, opts, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitReady(ctx context.Context, db pinger, opts ConnectOptions, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	backoff := retry.WithMaxRetries(opts.Attempts, retry.NewExponential(opts.Backoff))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "ping").With("attempts", attempt).Wrap(err)
	}
	return nil
}
