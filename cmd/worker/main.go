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

	"github.com/noah-isme/supabase-admin/internal/app"
	"github.com/noah-isme/supabase-admin/internal/connectivity"
	jobmetrics "github.com/noah-isme/supabase-admin/internal/jobs"
	"github.com/noah-isme/supabase-admin/internal/observability"
	"github.com/noah-isme/supabase-admin/internal/platform/cache"
	"github.com/noah-isme/supabase-admin/internal/platform/db"
	"github.com/noah-isme/supabase-admin/internal/supabase"
	"github.com/noah-isme/supabase-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	if !cfg.JobsEnabled() {
		slog.Default().Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:       cfg.DBMaxConns,
		IdleTimeout:    cfg.DBIdleTimeout,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		logger.Error("configure postgres pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseHTTPTimeout)
	if err != nil {
		logger.Error("configure supabase client", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	redisOpts := jobs.RedisClientOpt(redisClient.Options())

	metrics := observability.NewMetrics()
	prober := connectivity.NewProber(pool, supabaseClient, logger,
		connectivity.WithRecorder(metrics),
		connectivity.WithTimeout(cfg.DBConnectTimeout+cfg.SupabaseHTTPTimeout),
	)
	probeJob := jobs.NewConnectivityProbeJob(prober, jobs.NewStatusStore(redisClient, cfg.ProbeStatusTTL), logger, jobmetrics.NewMetrics(metrics.Registerer()))

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	cronTask, err := jobs.NewConnectivityProbeTask("cron")
	if err != nil {
		logger.Error("build probe task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskConnectivityProbe, Handler: probeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ProbeCron, Task: cronTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	client := jobs.NewClient(redisOpts)
	if _, err := client.EnqueueConnectivityProbe(ctx, "startup"); err != nil {
		logger.Warn("enqueue startup probe", slog.Any("error", err))
	}
	if err := client.Close(); err != nil {
		logger.Warn("asynq client close", slog.Any("error", err))
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
