// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/idkit/identityd/internal/config"
	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/internal/identity/memstore"
	"github.com/idkit/identityd/internal/identity/postgres"
	"github.com/idkit/identityd/internal/observability"
	"github.com/idkit/identityd/internal/store"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// Getenv reads environment variables.
	// Default: os.Getenv
	Getenv func(string) string

	// StoreOpener opens the configured credential store. The returned
	// func releases it.
	// Default: openStore
	StoreOpener func(ctx context.Context, cfg config.StoreConfig) (identity.CredentialStore, func(), error)

	// MigratorFactory creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, checker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// SignalNotifier delivers shutdown signals. The returned func stops delivery.
	// Default: SIGINT and SIGTERM via signal.Notify
	SignalNotifier func() (<-chan os.Signal, func())
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Status() (*store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
	Registry() *prometheus.Registry
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	if out.StoreOpener == nil {
		out.StoreOpener = openStore
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, checker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, checker)
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	if out.SignalNotifier == nil {
		out.SignalNotifier = func() (<-chan os.Signal, func()) {
			ch := make(chan os.Signal, 1)
			signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
			return ch, func() { signal.Stop(ch) }
		}
	}
	return &out
}

// openStore opens the credential store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (identity.CredentialStore, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memstore.New(), func() {}, nil
	case config.DriverPostgres:
		pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.ConnectTimeout)
		if err != nil {
			return nil, nil, err //nolint:wrapcheck // Connect errors carry codes
		}
		return postgres.NewStore(pool), pool.Close, nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").
			With("driver", cfg.Driver).
			Errorf("unknown store driver %q", cfg.Driver)
	}
}
