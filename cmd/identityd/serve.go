// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/idkit/identityd/internal/config"
	"github.com/idkit/identityd/internal/httpapi"
	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/internal/logging"
	"github.com/idkit/identityd/internal/observability"
	"github.com/idkit/identityd/internal/seed"
	"github.com/idkit/identityd/pkg/errutil"
)

const serviceName = "identityd"

// NewServeCmd creates the serve subcommand.
func NewServeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the identity HTTP API",
		Long: `Serve the /api/v1 registration, login and profile endpoints.
With the postgres driver, pending migrations are applied first unless
store.auto_migrate is false. A configured seed file is applied before
the listener opens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, deps)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg, deps)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, deps *Deps) error {
	logger, err := logging.SetDefault(serviceName, version, cfg.Log.Format)
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}

	verifier, err := identity.NewPasswordVerifier(cfg.Auth.PasswordScheme)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}

	if cfg.Store.Driver == config.DriverPostgres && cfg.Store.AutoMigrate {
		if err := autoMigrate(cfg.Store.DatabaseURL, deps, logger); err != nil {
			return err
		}
	}

	credStore, closeStore, err := deps.StoreOpener(ctx, cfg.Store)
	if err != nil {
		return oops.With("operation", "open credential store").With("driver", cfg.Store.Driver).Wrap(err)
	}
	defer closeStore()
	logger.Info("credential store ready", "driver", cfg.Store.Driver)

	svc, err := identity.NewService(credStore, verifier, identity.WithLogger(logger))
	if err != nil {
		return oops.With("operation", "create identity service").Wrap(err)
	}

	if cfg.Seed.File != "" {
		if err := applySeed(ctx, cfg.Seed.File, svc, credStore, logger); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metrics *observability.Metrics
	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, svc.Ping)
		observability.RegisterActiveSessions(obsServer.Registry(), svc.Sessions().Len)
		metrics = obsServer.Metrics()

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	api, err := httpapi.New(svc, httpapi.Config{
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, httpapi.WithMetrics(metrics), httpapi.WithLogger(logger))
	if err != nil {
		return oops.With("operation", "create http api").Wrap(err)
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer, cfg.HTTP.ShutdownTimeout)
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- api.Serve(listener)
	}()

	sigChan, stopSignals := deps.SignalNotifier()
	defer stopSignals()

	cmd.Printf("identityd listening on %s\n", listener.Addr())
	logger.Info("identityd ready",
		"addr", listener.Addr().String(),
		"metrics_addr", cfg.Metrics.Addr,
		"password_scheme", cfg.Auth.PasswordScheme)

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case serveErr = <-errChan:
		errutil.LogError(ctx, logger, "http server stopped unexpectedly", serveErr)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer, cfg.HTTP.ShutdownTimeout)

	logger.Info("shutdown complete", "active_sessions", svc.Sessions().Len())
	return serveErr
}

func autoMigrate(databaseURL string, deps *Deps, logger *slog.Logger) error {
	migrator, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.With("operation", "auto-migrate").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.With("operation", "auto-migrate").Wrap(err)
	}
	current, _, err := migrator.Version()
	if err != nil {
		return oops.With("operation", "auto-migrate").Wrap(err)
	}
	logger.Info("schema up to date", "version", current)
	return nil
}

func applySeed(ctx context.Context, path string, svc *identity.Service, finder seed.Finder, logger *slog.Logger) error {
	f, err := seed.Load(path)
	if err != nil {
		return err //nolint:wrapcheck // seed errors carry codes and path
	}
	res, err := seed.Apply(ctx, svc, finder, f, logger)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	logger.Info("seed applied", "path", path, "created", res.Created, "skipped", res.Skipped)
	return nil
}

func stopObservability(obsServer ObservabilityServer, timeout time.Duration) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
