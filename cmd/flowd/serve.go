package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"flowd/internal/catalog"
	"flowd/internal/config"
	"flowd/internal/httpapi"
	"flowd/internal/manager"
	"flowd/internal/plugins"
	"flowd/internal/session"
	"flowd/internal/weights"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), s)
		},
	}
	f := cmd.Flags()
	f.StringVar(&s.Addr, "addr", s.Addr, "HTTP listen address, e.g. :8080")
	f.StringVar(&s.WeightsDir, "weights-dir", s.WeightsDir, "directory for downloaded weights")
	f.StringVar(&s.SessionStore, "session-store", s.SessionStore, "session store: memory|redis")
	f.StringVar(&s.RedisAddr, "redis-addr", s.RedisAddr, "redis address for the redis session store")
	f.IntVar(&s.RedisDB, "redis-db", s.RedisDB, "redis database number")
	f.StringVar(&s.SessionTTL, "session-ttl", s.SessionTTL, "idle lifetime of a session")
	f.Int64Var(&s.MaxBodyBytes, "max-body-bytes", s.MaxBodyBytes, "maximum JSON request body size (0 = default)")
	f.BoolVar(&s.CORSEnabled, "cors-enabled", s.CORSEnabled, "enable CORS")
	f.StringVar(&s.corsOrigins, "cors-origins", "*", "comma-separated allowed origins")
	f.StringVar(&s.corsMethods, "cors-methods", "GET,POST,OPTIONS", "comma-separated allowed methods")
	f.StringVar(&s.corsHeaders, "cors-headers", "Content-Type,"+httpapi.SessionHeader, "comma-separated allowed headers")
	return cmd
}

func runServe(parent context.Context, s *settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	log, err := s.newLogger()
	if err != nil {
		return err
	}
	ttl, err := s.TTL(24 * time.Hour)
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := plugins.Builtin()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(s.CatalogPath, catalog.WithRegistry(reg))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	for _, e := range cat.Skipped {
		log.Warn().Err(e).Msg("catalog entry skipped")
	}

	store, closeStore, err := openStore(ctx, s.Config, ttl, log)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr, err := manager.New(manager.Config{
		Catalog:    cat,
		Registry:   reg,
		Sessions:   store,
		Weights:    weights.New(s.WeightsDir, weights.WithLogger(log.With().Str("component", "weights").Logger())),
		Logger:     log.With().Str("component", "manager").Logger(),
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return err
	}

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetDefaultLogLevel(s.LogLevel)
	httpapi.SetMaxBodyBytes(s.MaxBodyBytes)
	httpapi.SetSessionTTL(ttl)
	httpapi.SetCORSOptions(s.CORSEnabled, splitCSV(s.corsOrigins), splitCSV(s.corsMethods), splitCSV(s.corsHeaders))
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", s.Addr).
			Str("catalog", s.CatalogPath).
			Str("session_store", s.SessionStore).
			Strs("plugins", reg.Tags()).
			Int("revisions", len(cat.Revisions())).
			Msg("flowd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
		}
		if err := mgr.Unload(); err != nil {
			log.Warn().Err(err).Msg("release model on shutdown")
		}
		return nil
	})
	return g.Wait()
}

// openStore builds the configured session store. The returned func closes
// any client it opened.
func openStore(ctx context.Context, cfg config.Config, ttl time.Duration, log zerolog.Logger) (session.Store, func(), error) {
	if cfg.SessionStore != config.StoreRedis {
		return session.NewMemoryStore(ttl), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	store := session.NewRedisStore(client, ttl)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("using redis session store")
	return store, func() { _ = client.Close() }, nil
}
