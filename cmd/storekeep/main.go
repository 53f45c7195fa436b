package main

import (
	"context"
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
	"github.com/storekeep-erp/storekeep-erp/internal/auth"
	"github.com/storekeep-erp/storekeep-erp/internal/budget"
	"github.com/storekeep-erp/storekeep-erp/internal/catalog"
	"github.com/storekeep-erp/storekeep-erp/internal/finance"
	"github.com/storekeep-erp/storekeep-erp/internal/observability"
	"github.com/storekeep-erp/storekeep-erp/internal/payroll"
	"github.com/storekeep-erp/storekeep-erp/internal/platform/cache"
	"github.com/storekeep-erp/storekeep-erp/internal/platform/db"
	"github.com/storekeep-erp/storekeep-erp/internal/purchases"
	"github.com/storekeep-erp/storekeep-erp/internal/sales"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
	"github.com/storekeep-erp/storekeep-erp/internal/stock"
	"github.com/storekeep-erp/storekeep-erp/jobs"
)

func main() {
	_ = gotenv.Load()

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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "storekeep_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(pool)

	enqueuer := jobs.NewEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("enqueuer close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	catalogService := catalog.NewService(catalog.NewRepository(pool), auditLogger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	stockService := stock.NewService(stock.NewRepository(pool), auditLogger, logger)
	stockHandler := stock.NewHandler(logger, stockService)

	purchaseService := purchases.NewService(purchases.NewRepository(pool), catalogService, stockService, enqueuer, auditLogger, logger)
	purchaseHandler := purchases.NewHandler(logger, purchaseService)

	salesService := sales.NewService(sales.NewRepository(pool), catalogService, stockService, auditLogger, logger)
	salesHandler := sales.NewHandler(logger, salesService)

	financeService := finance.NewService(finance.NewRepository(pool), enqueuer, auditLogger, logger)
	financeHandler := finance.NewHandler(logger, financeService)

	budgetService := budget.NewService(budget.NewRepository(pool), auditLogger, logger)
	budgetHandler := budget.NewHandler(logger, budgetService)

	payrollService := payroll.NewService(payroll.NewRepository(pool), auditLogger, logger)
	payrollHandler := payroll.NewHandler(logger, payrollService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthService:     authService,
		AuthHandler:     authHandler,
		CatalogHandler:  catalogHandler,
		StockHandler:    stockHandler,
		PurchaseHandler: purchaseHandler,
		SalesHandler:    salesHandler,
		FinanceHandler:  financeHandler,
		BudgetHandler:   budgetHandler,
		PayrollHandler:  payrollHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
