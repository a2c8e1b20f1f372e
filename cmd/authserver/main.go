// Command authserver serves the account endpoints and the protected sample
// routes over HTTP.
//
// Run with:
//
//	AUTH_JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/authserver
//
// Configuration comes from an optional YAML or JSON file (--config) and
// AUTH_* environment variables, which take precedence:
//
//	AUTH_ADDR=:9000 AUTH_STORE=postgres AUTH_POSTGRES_HOST=db go run ./cmd/authserver
//
// AUTH_CACHE_ENABLED=true puts a Redis identity cache (AUTH_CACHE_REDIS_*)
// in front of the store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/StricklySoft/stricklysoft-auth/pkg/api"
	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/postgres"
	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/redis"
	"github.com/StricklySoft/stricklysoft-auth/pkg/lifecycle"
	"github.com/StricklySoft/stricklysoft-auth/pkg/users"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "authserver: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	flagSet := pflag.NewFlagSet("authserver", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", os.Getenv(EnvPrefix+"_CONFIG_FILE"), "path to a YAML or JSON config file")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := loadConfig(configPath, nil)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, &cfg, logger)
	if err != nil {
		return err
	}

	svc, err := auth.NewService(cfg.Auth, store, nil, logger)
	if err != nil {
		closeStore()
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	proc, err := newProcess(srv, store, closeStore, logger)
	if err != nil {
		closeStore()
		return err
	}
	srv.Handler = api.New(svc, proc, logger).Handler()

	if err := proc.Start(ctx); err != nil {
		closeStore()
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("authserver: listening",
			"addr", cfg.Addr,
			"store", cfg.Store,
			"cache", cfg.Cache.Enabled,
			"strict", cfg.Auth.Strict,
		)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
			_ = proc.SetState(lifecycle.StateFailed)
		}
	case <-ctx.Done():
	}

	if serveErr != nil {
		closeStore()
		return serveErr
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return proc.Stop(shutdownCtx)
}

// newProcess ties the server to a lifecycle. Stopping drains connections
// before the store is released.
func newProcess(srv *http.Server, store userStore, closeStore func(), logger *slog.Logger) (*lifecycle.Process, error) {
	return lifecycle.NewBuilder("authserver", version).
		WithLogger(logger).
		WithOnStart(store.Health).
		WithOnStop(func(ctx context.Context) error {
			defer closeStore()
			return srv.Shutdown(ctx)
		}).
		WithHealthCheck("store", store.Health).
		Build()
}

// userStore is the store the server runs on: the account operations plus
// a health probe for /healthz.
type userStore interface {
	auth.UserStore
	api.HealthChecker
}

// openStore connects the configured backend and, when enabled, the
// identity cache in front of it. The returned func releases both.
func openStore(ctx context.Context, cfg *ServerConfig, logger *slog.Logger) (userStore, func(), error) {
	store, closeStore, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled {
		return store, closeStore, nil
	}

	cache, err := redis.NewClient(ctx, cfg.Cache.Redis)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	logger.InfoContext(ctx, "authserver: caching identities in redis",
		"host", cfg.Cache.Redis.Host,
		"ttl", cfg.Cache.TTL,
	)
	cached := users.NewCachedStore(store, cache, users.CacheOptions{
		TTL:       cfg.Cache.TTL,
		KeyPrefix: cfg.Cache.KeyPrefix,
	}, logger)
	return cached, func() {
		if err := cache.Close(); err != nil {
			logger.Warn("authserver: closing redis cache", "error", err)
		}
		closeStore()
	}, nil
}

func openBackend(ctx context.Context, cfg *ServerConfig, logger *slog.Logger) (userStore, func(), error) {
	switch cfg.Store {
	case StorePostgres:
		client, err := postgres.NewClient(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := users.NewPostgresStore(client)
		if err := store.Migrate(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		logger.InfoContext(ctx, "authserver: using postgres user store",
			"host", cfg.Postgres.Host,
			"database", cfg.Postgres.Database,
		)
		return store, client.Close, nil
	default:
		logger.WarnContext(ctx, "authserver: using in-memory user store; accounts are lost on restart")
		return users.NewMemoryStore(), func() {}, nil
	}
}
