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
	"github.com/subosito/gotenv"
	"golang.org/x/sync/errgroup"

	"github.com/storekeep-erp/storekeep-erp/internal/app"
	"github.com/storekeep-erp/storekeep-erp/internal/budget"
	"github.com/storekeep-erp/storekeep-erp/internal/finance"
	"github.com/storekeep-erp/storekeep-erp/internal/observability"
	"github.com/storekeep-erp/storekeep-erp/internal/platform/db"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
	"github.com/storekeep-erp/storekeep-erp/jobs"
)

func main() {
	_ = gotenv.Load()

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

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	enqueuer := jobs.NewEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("enqueuer close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	financeService := finance.NewService(finance.NewRepository(pool), enqueuer, auditLogger, logger)
	budgetService := budget.NewService(budget.NewRepository(pool), auditLogger, logger)

	metrics := observability.NewMetrics()
	postings := jobs.NewPostingHandlers(financeService, budgetService, idempotencyStore, metrics, logger)

	cleanup := func(ctx context.Context, _ *asynq.Task) error {
		return idempotencyStore.Cleanup(ctx, 30*24*time.Hour)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Postings:  postings,
		Cleanup:   cleanup,
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
