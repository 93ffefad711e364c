// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/stock-tracker/internal/logging"
	"github.com/stock-tracker/internal/models"
	"github.com/stock-tracker/internal/service"
	"github.com/stock-tracker/internal/types"
)

// Service interfaces for dependency injection and testing

// TradeServiceInterface defines the interface for trade execution
type TradeServiceInterface interface {
	Buy(ctx context.Context, input *service.TradeInput) (*service.TradeResult, error)
	Sell(ctx context.Context, input *service.TradeInput) (*service.TradeResult, error)
}

// PortfolioServiceInterface defines the interface for portfolio reads
type PortfolioServiceInterface interface {
	GetPortfolio(ctx context.Context) (*service.PortfolioView, error)
	GetCash(ctx context.Context) (*service.CashView, error)
	GetTransactions(ctx context.Context, limit int) ([]*models.Transaction, error)
}

// SnapshotServiceInterface defines the interface for snapshot operations
type SnapshotServiceInterface interface {
	Capture(ctx context.Context, date time.Time) (*models.DailySnapshot, error)
	GetSnapshots(ctx context.Context, from, to time.Time) ([]*models.DailySnapshot, error)
}

// PriceServiceInterface defines the interface for price refresh operations
type PriceServiceInterface interface {
	RefreshPrices(ctx context.Context) (*types.RefreshReport, error)
}

// MarketServiceInterface defines the interface for market data proxying
type MarketServiceInterface interface {
	Search(ctx context.Context, query string) ([]types.MarketQuote, error)
	Quote(ctx context.Context, symbol string) (*types.MarketQuote, error)
	TopGainers(ctx context.Context, count int) ([]types.MarketQuote, error)
	TopLosers(ctx context.Context, count int) ([]types.MarketQuote, error)
	Trending(ctx context.Context, count int) ([]types.MarketQuote, error)
	Indexes(ctx context.Context) ([]types.MarketQuote, error)
	History(ctx context.Context, ticker string, period1, period2 time.Time, interval string) ([]types.Candle, error)
}

// Server represents the HTTP API server.
type Server struct {
	router           *mux.Router
	httpServer       *http.Server
	tradeService     TradeServiceInterface
	portfolioService PortfolioServiceInterface
	snapshotService  SnapshotServiceInterface
	priceService     PriceServiceInterface
	marketService    MarketServiceInterface
	config           *ServerConfig
	logger           *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	tradeService TradeServiceInterface,
	portfolioService PortfolioServiceInterface,
	snapshotService SnapshotServiceInterface,
	priceService PriceServiceInterface,
	marketService MarketServiceInterface,
) *Server {
	s := &Server{
		router:           mux.NewRouter(),
		tradeService:     tradeService,
		portfolioService: portfolioService,
		snapshotService:  snapshotService,
		priceService:     priceService,
		marketService:    marketService,
		config:           config,
		logger:           logging.GetGlobalLogger().WithField("component", "api"),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Middleware order matters
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Ledger endpoints
	api.HandleFunc("/portfolio", s.handleGetPortfolio).Methods("GET")
	api.HandleFunc("/portfolio/buy", s.handleBuy).Methods("POST")
	api.HandleFunc("/portfolio/sell", s.handleSell).Methods("POST")
	api.HandleFunc("/cash", s.handleGetCash).Methods("GET")
	api.HandleFunc("/transactions", s.handleGetTransactions).Methods("GET")

	// Snapshot endpoints
	api.HandleFunc("/snapshots", s.handleGetSnapshots).Methods("GET")
	api.HandleFunc("/snapshots", s.handleCaptureSnapshot).Methods("POST")

	// Price refresh endpoint
	api.HandleFunc("/prices/refresh", s.handleRefreshPrices).Methods("POST")

	// Market data endpoints
	api.HandleFunc("/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/quote/{ticker}", s.handleQuote).Methods("GET")
	api.HandleFunc("/top/gainer", s.handleTopGainers).Methods("GET")
	api.HandleFunc("/top/loser", s.handleTopLosers).Methods("GET")
	api.HandleFunc("/top/trending", s.handleTrending).Methods("GET")
	api.HandleFunc("/index", s.handleIndexes).Methods("GET")
	api.HandleFunc("/history/{ticker}", s.handleHistory).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "stock-tracker",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
