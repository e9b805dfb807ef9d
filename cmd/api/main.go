package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendora/internal/bank"
	"vendora/internal/cache"
	"vendora/internal/config"
	"vendora/internal/database"
	"vendora/internal/events"
	"vendora/internal/gateway"
	"vendora/internal/handler"
	"vendora/internal/metrics"
	"vendora/internal/repository"
	"vendora/internal/router"
	"vendora/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting vendora ledger API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	walletRepo := repository.NewWalletRepository(pool, logger)
	withdrawalRepo := repository.NewWithdrawalRepository(pool, logger)
	txRunner := repository.NewTxRunner(pool, logger)

	// Initialize bank directory with S3 and local fallback
	fileLoader := bank.NewFileLoader(logger)
	bankLoader := fileLoader
	bankPath := cfg.Bank.FilePath

	if cfg.Bank.S3Enabled {
		s3Loader, err := bank.NewS3Loader(ctx, cfg.Bank.S3Bucket, cfg.Bank.S3Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			bankLoader = s3Loader
			bankPath = cfg.Bank.S3Key
		}
	}
	bankDirectory := bank.LoadDirectory(ctx, bankLoader, bankPath, logger)

	// Initialize payment gateway client
	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.SecretKey, cfg.Gateway.Timeout, logger)

	// Initialize event publisher
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, logger)
	}
	defer publisher.Close()

	// Initialize notification dedup cache
	var dedup cache.Dedup = cache.NopDedup{}
	if cfg.Redis.Enabled {
		dedup = cache.NewRedisDedup(cfg.Redis.Addr, logger)
	}
	defer dedup.Close()

	// Initialize metrics
	ledgerMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Initialize services
	stockReserver := service.NewStockReserver(productRepo, logger)
	walletService := service.NewWalletService(
		walletRepo, userRepo, txRunner, gw,
		cfg.Gateway.Currency, cfg.Ledger.CommissionRate, logger,
	)
	orderService := service.NewOrderService(
		orderRepo, userRepo, walletService, stockReserver, txRunner, gw,
		cfg.Gateway.Currency, publisher, ledgerMetrics, logger,
	)
	paymentService := service.NewPaymentService(
		orderService, walletService, gw, dedup,
		cfg.Gateway.WebhookSecret, ledgerMetrics, logger,
	)
	withdrawalService := service.NewWithdrawalService(
		withdrawalRepo, walletRepo, walletService, userRepo, bankDirectory,
		txRunner, gw, cfg.Gateway.Currency, cfg.Withdrawal.StaleAfter,
		publisher, ledgerMetrics, logger,
	)

	// Start the withdrawal recovery sweep
	go sweepWithdrawals(ctx, withdrawalService, cfg.Withdrawal.SweepInterval, logger)

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	walletHandler := handler.NewWalletHandler(walletService, logger)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService, logger)

	// Initialize router
	mux := router.New(orderHandler, paymentHandler, walletHandler, withdrawalHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// sweepWithdrawals periodically compensates withdrawal intents stuck mid-saga.
func sweepWithdrawals(ctx context.Context, svc service.WithdrawalService, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.RecoverStale(ctx); err != nil {
				logger.Error().Err(err).Msg("withdrawal recovery sweep failed")
			}
		}
	}
}
