// Package main provides the API server entry point for the stock tracker service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stock-tracker/internal/adapter"
	"github.com/stock-tracker/internal/api"
	"github.com/stock-tracker/internal/config"
	"github.com/stock-tracker/internal/logging"
	"github.com/stock-tracker/internal/service"
	"github.com/stock-tracker/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Connect to Postgres
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	// Connect to Redis
	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories and cache
	ledgerRepo := storage.NewLedgerRepository(postgres)
	snapshotRepo := storage.NewSnapshotRepository(postgres)
	quoteCache := storage.NewQuoteCache(redis, cfg.Yahoo.CacheTTL)

	// Initialize quote provider
	yahooClient := adapter.NewYahooClient(&cfg.Yahoo)

	// Initialize services
	tradeService := service.NewTradeService(ledgerRepo, cfg.Jobs.StoreTimeout)
	portfolioService := service.NewPortfolioService(ledgerRepo, cfg.Jobs.StoreTimeout)
	snapshotService := service.NewSnapshotService(ledgerRepo, snapshotRepo, cfg.Ledger.InitialInvestment, cfg.Jobs.StoreTimeout)
	priceService := service.NewPriceService(ledgerRepo, yahooClient, cfg.Jobs.PriceRefreshInterval, cfg.Jobs.StoreTimeout)
	marketService := service.NewMarketService(yahooClient, quoteCache)

	logger.Info("Services initialized")

	// Start background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if cfg.Jobs.SnapshotEnabled {
		if err := snapshotService.Start(jobCtx); err != nil {
			logger.WithError(err).Fatal("Failed to start snapshot scheduler")
		}
		defer snapshotService.Stop()
	}
	if cfg.Jobs.PriceRefreshEnabled {
		if err := priceService.Start(jobCtx); err != nil {
			logger.WithError(err).Fatal("Failed to start price refresher")
		}
		defer priceService.Stop()
	}

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	server := api.NewServer(serverConfig, tradeService, portfolioService, snapshotService, priceService, marketService)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
