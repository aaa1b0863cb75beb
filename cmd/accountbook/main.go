package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"accountbook/internal/amqp"
	"accountbook/internal/budget"
	"accountbook/internal/cache"
	"accountbook/internal/config"
	apphttp "accountbook/internal/http"
	applog "accountbook/internal/log"
	"accountbook/internal/services"
	"accountbook/internal/storage"
)

func main() {
	// Load .env for local development; production uses real env vars.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Messaging is optional: without a broker the API runs, only the
	// summary worker stream is absent.
	var amqpClient *amqp.Client
	if cfg.MessagingEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	var alertEvents budget.Publisher
	if amqpClient != nil {
		alertEvents = amqpClient
	}
	engine := budget.NewEngine(repo.AlertUnitOfWork(), alertEvents)

	categoryService := services.NewCategoryService(repo)

	cacheManager := cache.NewManager()
	cacheManager.Register(categoryService.ListCache())
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(
		":"+cfg.Port,
		services.NewFamilyService(repo),
		categoryService,
		services.NewExpenseService(repo, engine, amqpClient),
		services.NewIncomeService(repo),
		services.NewNotificationService(repo),
		services.NewDashboardService(repo),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting accountbook server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
