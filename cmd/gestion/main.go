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

	"github.com/FasoDigital6/gestion-rad-sub000/internal/app"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/clients"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/deliveries"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/expenses"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/invoices"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/observability"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/orders"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/payments"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/platform/cache"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/platform/db"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/quotes"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/sequence"
	"github.com/FasoDigital6/gestion-rad-sub000/internal/shared"
	"github.com/FasoDigital6/gestion-rad-sub000/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	numbers := sequence.NewAllocator(pool)
	audit := shared.NewAuditLogger(pool)

	clientRepo := clients.NewRepository(pool)
	clientService := clients.NewService(clientRepo)
	clientHandler := clients.NewHandler(logger, clientService)

	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(orderRepo, clientRepo, numbers)
	orderHandler := orders.NewHandler(logger, orderService)

	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, clientRepo, orderService, numbers, audit)
	quoteHandler := quotes.NewHandler(logger, quoteService)

	deliveryRepo := deliveries.NewRepository(pool)
	deliveryService := deliveries.NewService(deliveryRepo, numbers, audit)
	deliveryHandler := deliveries.NewHandler(logger, deliveryService)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, clientRepo, numbers, audit)
	invoiceHandler := invoices.NewHandler(logger, invoiceService)

	paymentRepo := payments.NewRepository(pool)
	paymentService := payments.NewService(paymentRepo, numbers, audit)
	paymentHandler := payments.NewHandler(logger, paymentService)

	expenseRepo := expenses.NewRepository(pool)
	expenseService := expenses.NewService(expenseRepo, numbers)
	expenseHandler := expenses.NewHandler(logger, expenseService)

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
		ClientHandler:   clientHandler,
		QuoteHandler:    quoteHandler,
		OrderHandler:    orderHandler,
		DeliveryHandler: deliveryHandler,
		InvoiceHandler:  invoiceHandler,
		PaymentHandler:  paymentHandler,
		ExpenseHandler:  expenseHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
		Pool:            pool,
		Redis:           redisClient,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
