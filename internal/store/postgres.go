// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package store manages the PostgreSQL connection pool and schema
// migrations backing the identity tables.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultConnectTimeout bounds how long Connect waits for the database.
const DefaultConnectTimeout = 30 * time.Second

// Connect opens a pool for databaseURL and waits, with exponential backoff,
// until the server answers a ping or timeout elapses. Only startup retries;
// request paths never do.
func Connect(ctx context.Context, databaseURL string, timeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitReady(ctx, pool.Ping, connectBackoff(timeout)); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("host", cfg.ConnConfig.Host).
			Wrap(err)
	}
	return pool, nil
}

func connectBackoff(timeout time.Duration) retry.Backoff {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	b := retry.NewExponential(100 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxDuration(timeout, b)
}

// waitReady calls ping until it succeeds or the backoff gives up.
func waitReady(ctx context.Context, ping func(context.Context) error, b retry.Backoff) error {
	attempt := 0
	//nolint:wrapcheck // caller wraps with operation context
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := ping(ctx); err != nil {
			slog.DebugContext(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
