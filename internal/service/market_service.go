package service

import (
	"context"
	"errors"
	"time"

	"github.com/stock-tracker/internal/logging"
	"github.com/stock-tracker/internal/types"
)

var errNoQuote = errors.New("no quote returned")

// Major US indexes proxied by the index route
var indexTickers = []string{"^GSPC", "^DJI", "^IXIC", "^RUT", "^TNX"}

// MarketDataProvider is the external market-data surface the proxy
// routes reshape
type MarketDataProvider interface {
	QuoteProvider
	BatchQuotes(ctx context.Context, symbols []string) ([]types.MarketQuote, error)
	Search(ctx context.Context, query string) ([]string, error)
	Screener(ctx context.Context, screenerID string, count int) ([]types.MarketQuote, error)
	TrendingSymbols(ctx context.Context, region string, count int) ([]string, error)
	History(ctx context.Context, ticker string, period1, period2 time.Time, interval string) ([]types.Candle, error)
}

// MarketQuoteCache caches single-symbol quote lookups
type MarketQuoteCache interface {
	GetQuote(ctx context.Context, symbol string) (*types.MarketQuote, error)
	SetQuote(ctx context.Context, quote *types.MarketQuote) error
}

// MarketService proxies and reshapes market data from the quote provider
type MarketService struct {
	provider MarketDataProvider
	cache    MarketQuoteCache
	logger   *logging.Logger
}

// NewMarketService creates a new market data service. cache may be nil,
// in which case every lookup goes to the provider.
func NewMarketService(provider MarketDataProvider, cache MarketQuoteCache) *MarketService {
	return &MarketService{
		provider: provider,
		cache:    cache,
		logger:   logging.GetGlobalLogger().WithField("component", "market_service"),
	}
}

func marketError(ticker string, err error) error {
	if svcErr, ok := err.(*types.ServiceError); ok {
		return svcErr
	}
	return types.NewQuoteProviderError(ticker, err)
}

// Search finds equities matching a keyword and returns their quotes
func (s *MarketService) Search(ctx context.Context, query string) ([]types.MarketQuote, error) {
	if query == "" {
		return nil, types.NewInvalidInputError("q", "must not be empty")
	}

	symbols, err := s.provider.Search(ctx, query)
	if err != nil {
		return nil, marketError(query, err)
	}
	if len(symbols) == 0 {
		return []types.MarketQuote{}, nil
	}

	quotes, err := s.provider.BatchQuotes(ctx, symbols)
	if err != nil {
		return nil, marketError(query, err)
	}
	return quotes, nil
}

// Quote returns the quote for one symbol, cache-aside with a short TTL
func (s *MarketService) Quote(ctx context.Context, symbol string) (*types.MarketQuote, error) {
	if symbol == "" {
		return nil, types.NewInvalidInputError("ticker", "must not be empty")
	}

	if s.cache != nil {
		cached, err := s.cache.GetQuote(ctx, symbol)
		if err != nil {
			// cache trouble is not a lookup failure
			s.logger.WithError(err).Warn("Quote cache read failed")
		}
		if cached != nil {
			return cached, nil
		}
	}

	quotes, err := s.provider.BatchQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, marketError(symbol, err)
	}
	if len(quotes) == 0 {
		return nil, types.NewQuoteProviderError(symbol, errNoQuote)
	}

	quote := &quotes[0]
	if s.cache != nil {
		if err := s.cache.SetQuote(ctx, quote); err != nil {
			s.logger.WithError(err).Warn("Quote cache write failed")
		}
	}
	return quote, nil
}

// TopGainers returns the day's top gaining US equities
func (s *MarketService) TopGainers(ctx context.Context, count int) ([]types.MarketQuote, error) {
	quotes, err := s.provider.Screener(ctx, "day_gainers", normalizeCount(count))
	if err != nil {
		return nil, marketError("day_gainers", err)
	}
	return quotes, nil
}

// TopLosers returns the day's top losing US equities
func (s *MarketService) TopLosers(ctx context.Context, count int) ([]types.MarketQuote, error) {
	quotes, err := s.provider.Screener(ctx, "day_losers", normalizeCount(count))
	if err != nil {
		return nil, marketError("day_losers", err)
	}
	return quotes, nil
}

// Trending returns quotes for the symbols currently trending in the US
func (s *MarketService) Trending(ctx context.Context, count int) ([]types.MarketQuote, error) {
	symbols, err := s.provider.TrendingSymbols(ctx, "US", normalizeCount(count))
	if err != nil {
		return nil, marketError("trending", err)
	}
	if len(symbols) == 0 {
		return []types.MarketQuote{}, nil
	}

	quotes, err := s.provider.BatchQuotes(ctx, symbols)
	if err != nil {
		return nil, marketError("trending", err)
	}
	return quotes, nil
}

// Indexes returns quotes for the major US market indexes
func (s *MarketService) Indexes(ctx context.Context) ([]types.MarketQuote, error) {
	quotes, err := s.provider.BatchQuotes(ctx, indexTickers)
	if err != nil {
		return nil, marketError("index", err)
	}
	return quotes, nil
}

// History returns price history bars for a ticker. period1 defaults to
// one year ago, period2 to now, interval to 1d.
func (s *MarketService) History(ctx context.Context, ticker string, period1, period2 time.Time, interval string) ([]types.Candle, error) {
	if ticker == "" {
		return nil, types.NewInvalidInputError("ticker", "must not be empty")
	}

	if period2.IsZero() {
		period2 = time.Now().UTC()
	}
	if period1.IsZero() {
		period1 = period2.AddDate(-1, 0, 0)
	}

	candles, err := s.provider.History(ctx, ticker, period1, period2, interval)
	if err != nil {
		return nil, marketError(ticker, err)
	}
	return candles, nil
}

func normalizeCount(count int) int {
	if count <= 0 || count > 50 {
		return 10
	}
	return count
}
