package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/logging"
	"github.com/stock-tracker/internal/types"
)

// QuoteProvider fetches the latest price for one ticker
type QuoteProvider interface {
	GetQuote(ctx context.Context, ticker string) (*types.Quote, error)
}

// PriceService refreshes stored mark-to-market prices from the quote
// provider. Each ticker's update is an independent committed write, so a
// failure on one ticker never rolls back or blocks the others.
type PriceService struct {
	ledgerRepo      LedgerRepository
	quotes          QuoteProvider
	refreshInterval time.Duration
	storeTimeout    time.Duration
	logger          *logging.Logger
	stopChan        chan struct{}
	running         bool
}

// NewPriceService creates a new price refresh service
func NewPriceService(
	ledgerRepo LedgerRepository,
	quotes QuoteProvider,
	refreshInterval time.Duration,
	storeTimeout time.Duration,
) *PriceService {
	return &PriceService{
		ledgerRepo:      ledgerRepo,
		quotes:          quotes,
		refreshInterval: refreshInterval,
		storeTimeout:    storeTimeout,
		logger:          logging.GetGlobalLogger().WithField("component", "price_service"),
		stopChan:        make(chan struct{}),
	}
}

// RefreshPrices fetches the latest price for every open position and
// overwrites its stored mark. Per-ticker failures are recorded in the
// report and never abort the batch.
func (s *PriceService) RefreshPrices(ctx context.Context) (*types.RefreshReport, error) {
	listCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	positions, err := s.ledgerRepo.ListPositions(listCtx)
	cancel()
	if err != nil {
		return nil, wrapStoreError("price refresh", err)
	}

	report := &types.RefreshReport{
		Updated: []string{},
		Failed:  []types.RefreshFailure{},
	}

	for _, p := range positions {
		if err := s.refreshOne(ctx, p.Ticker); err != nil {
			report.Failed = append(report.Failed, types.RefreshFailure{
				Ticker: p.Ticker,
				Reason: err.Error(),
			})
			s.logger.WithFields(map[string]interface{}{
				"ticker": p.Ticker,
				"reason": err.Error(),
			}).Warn("Price refresh failed for ticker")
			continue
		}
		report.Updated = append(report.Updated, p.Ticker)
	}

	report.UpdatedCount = len(report.Updated)
	report.FailedCount = len(report.Failed)

	s.logger.WithFields(map[string]interface{}{
		"updated": report.UpdatedCount,
		"failed":  report.FailedCount,
	}).Info("Price refresh complete")

	return report, nil
}

// refreshOne fetches and stores one ticker's price. The stored mark is
// left untouched unless the provider returns a valid positive price.
func (s *PriceService) refreshOne(ctx context.Context, ticker string) error {
	quote, err := s.quotes.GetQuote(ctx, ticker)
	if err != nil {
		return types.NewQuoteProviderError(ticker, err)
	}
	if quote.Price.LessThanOrEqual(decimal.Zero) {
		return types.NewQuoteProviderError(ticker, fmt.Errorf("non-positive price %s", quote.Price))
	}

	updateCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.ledgerRepo.UpdateCurrentPrice(updateCtx, ticker, quote.Price); err != nil {
		return err
	}
	return nil
}

// Start begins the periodic refresh loop
func (s *PriceService) Start(ctx context.Context) error {
	if s.running {
		return fmt.Errorf("price refresher is already running")
	}
	s.running = true

	s.logger.WithField("interval", s.refreshInterval.String()).Info("Price refresher starting")

	go func() {
		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.RefreshPrices(ctx); err != nil {
					s.logger.WithError(err).Error("Scheduled price refresh failed")
				}
			case <-s.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop gracefully stops the refresh loop
func (s *PriceService) Stop() error {
	if !s.running {
		return fmt.Errorf("price refresher is not running")
	}
	close(s.stopChan)
	s.running = false
	s.logger.Info("Price refresher stopped")
	return nil
}
