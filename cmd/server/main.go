package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/supabase-admin/internal/admin"
	"github.com/noah-isme/supabase-admin/internal/app"
	"github.com/noah-isme/supabase-admin/internal/auth"
	"github.com/noah-isme/supabase-admin/internal/connectivity"
	"github.com/noah-isme/supabase-admin/internal/observability"
	"github.com/noah-isme/supabase-admin/internal/platform/cache"
	"github.com/noah-isme/supabase-admin/internal/platform/db"
	"github.com/noah-isme/supabase-admin/internal/supabase"
	"github.com/noah-isme/supabase-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:       cfg.DBMaxConns,
		IdleTimeout:    cfg.DBIdleTimeout,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		logger.Error("configure postgres pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseHTTPTimeout)
	if err != nil {
		logger.Error("configure supabase client", slog.Any("error", err))
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(cfg.SupabaseJWTSecret, cfg.AdminAllowedRoles...)
	if err != nil {
		logger.Error("configure admin auth", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	prober := connectivity.NewProber(dbpool, supabaseClient, logger,
		connectivity.WithRecorder(metrics),
		connectivity.WithTimeout(cfg.DBConnectTimeout+cfg.SupabaseHTTPTimeout),
	)
	prober.Start(ctx)

	adminHandler := admin.NewHandler(logger, supabaseClient, admin.NewRepository(dbpool))

	var jobHandler *jobs.Handler
	if cfg.JobsEnabled() {
		redisClient, inspector := connectJobs(ctx, cfg, logger)
		if redisClient != nil {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			defer func() {
				if err := inspector.Close(); err != nil {
					logger.Warn("inspector close", slog.Any("error", err))
				}
			}()
			jobHandler = jobs.NewHandler(inspector, jobs.NewStatusStore(redisClient, cfg.ProbeStatusTTL), logger)
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AdminHandler: adminHandler,
		Verifier:     verifier,
		JobHandler:   jobHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
	}
}

// connectJobs opens the Redis client and queue inspector backing the /jobs
// routes. Redis being down only disables those routes.
func connectJobs(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*redis.Client, *asynq.Inspector) {
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, jobs routes disabled", slog.Any("error", err))
		return nil, nil
	}
	opts, err := cache.Options(cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis options", slog.Any("error", err))
		_ = redisClient.Close()
		return nil, nil
	}
	inspector := asynq.NewInspector(jobs.RedisClientOpt(opts))
	return redisClient, inspector
}
