// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/auth/memory"
	"github.com/holomush/authcore/internal/auth/postgres"
	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/logging"
	"github.com/holomush/authcore/internal/observability"
	"github.com/holomush/authcore/internal/store"
	"github.com/holomush/authcore/internal/web"
)

const shutdownTimeout = 10 * time.Second

// serveDeps holds the injectable pieces of runServe.
type serveDeps struct {
	lookupEnv config.LookupEnv
	// started, if set, receives the API address once it is listening.
	started func(apiAddr string)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth API and observability servers",
		Long: `Start the HTTP API under /api/auth and, unless metrics-addr is
empty, the metrics and health probe server. SIGINT or SIGTERM triggers a
graceful shutdown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, serveDeps{})
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, deps serveDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cmd.Flags(), path, deps.lookupEnv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.SetDefault(serviceName, version, cfg.LogFormat, cfg.LogLevel)
	if cfg.UsingInsecureSecret() {
		logger.Warn("secret-key is not set, signing tokens with the insecure development secret",
			"environment", cfg.Environment)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, closeStore, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	hasher, err := auth.NewPasswordHasher(cfg.PasswordAlgorithm, cfg.PasswordCost)
	if err != nil {
		return oops.With("operation", "create password hasher").Wrap(err)
	}
	svc, err := auth.NewAuthService(users, hasher,
		auth.WithLogger(logger),
		auth.WithHashConcurrency(cfg.HashConcurrency),
	)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenService(cfg.TokenConfig(), logger)
	cookies := auth.NewCookieManager(cfg.IsProduction(), cfg.CookieMaxAge)

	var (
		ready     atomic.Bool
		obsServer *observability.Server
		obsErr    <-chan error
		metrics   *observability.Metrics
	)
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, ready.Load)
		metrics = obsServer.Metrics()
		if obsErr, err = obsServer.Start(); err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
	}

	handler, err := web.NewHandler(svc, tokens, cookies,
		web.WithCookieName(cfg.CookieName),
		web.WithMetrics(metrics),
		web.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	api := web.NewServer(cfg.HTTPAddr, handler.Routes(), logger)
	apiErr, err := api.Start()
	if err != nil {
		stopServers(logger, nil, obsServer)
		return oops.With("operation", "start api server").Wrap(err)
	}
	ready.Store(true)

	logger.Info("authcore ready",
		"http_addr", api.Addr(),
		"store", cfg.Store,
		"environment", cfg.Environment,
	)
	if deps.started != nil {
		deps.started(api.Addr())
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-apiErr:
		runErr = oops.With("server", "api").Wrap(err)
	case err := <-obsErr:
		runErr = oops.With("server", "observability").Wrap(err)
	}

	ready.Store(false)
	stopServers(logger, api, obsServer)
	logger.Info("shutdown complete")
	return runErr
}

// openUserStore returns the configured repository and a release func that is
// always safe to call.
func openUserStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.UserRepository, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using the in-memory user store, accounts are lost on restart")
		return memory.NewUserRepository(), func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL, store.DefaultConnectOptions, logger)
	if err != nil {
		return nil, func() {}, err
	}
	return postgres.NewUserRepository(pool), pool.Close, nil
}

func stopServers(logger *slog.Logger, api *web.Server, obs *observability.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if api != nil {
		if err := api.Stop(ctx); err != nil {
			logger.Warn("error stopping api server", "error", err)
		}
	}
	if obs != nil {
		if err := obs.Stop(ctx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
}
