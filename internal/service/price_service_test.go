package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/models"
	"github.com/stock-tracker/internal/types"
)

type mockQuoteProvider struct {
	prices map[string]decimal.Decimal
	errs   map[string]error
	calls  []string
}

func newMockQuoteProvider() *mockQuoteProvider {
	return &mockQuoteProvider{
		prices: make(map[string]decimal.Decimal),
		errs:   make(map[string]error),
	}
}

func (m *mockQuoteProvider) GetQuote(ctx context.Context, ticker string) (*types.Quote, error) {
	m.calls = append(m.calls, ticker)
	if err, ok := m.errs[ticker]; ok {
		return nil, err
	}
	price, ok := m.prices[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	return &types.Quote{Ticker: ticker, Price: price, Currency: "USD"}, nil
}

func newTestPriceService(repo *mockLedgerRepo, quotes QuoteProvider) *PriceService {
	return NewPriceService(repo, quotes, 15*time.Minute, 5*time.Second)
}

func addPosition(repo *mockLedgerRepo, ticker, price string) {
	repo.positions[ticker] = &models.Position{
		Ticker: ticker, Quantity: 10, AvgBuyPrice: dec(price), CurrentPrice: dec(price),
	}
}

func TestRefreshPrices_UpdatesAllPositions(t *testing.T) {
	repo := newMockLedgerRepo("500000")
	addPosition(repo, "NVDA", "210")
	addPosition(repo, "AAPL", "150")
	quotes := newMockQuoteProvider()
	quotes.prices["NVDA"] = dec("250")
	quotes.prices["AAPL"] = dec("160")

	svc := newTestPriceService(repo, quotes)
	report, err := svc.RefreshPrices(context.Background())
	if err != nil {
		t.Fatalf("RefreshPrices() error = %v", err)
	}

	if report.UpdatedCount != 2 || report.FailedCount != 0 {
		t.Fatalf("report = %d updated / %d failed, want 2/0", report.UpdatedCount, report.FailedCount)
	}
	if !repo.positions["NVDA"].CurrentPrice.Equal(dec("250")) {
		t.Errorf("NVDA price = %s, want 250", repo.positions["NVDA"].CurrentPrice)
	}
	if !repo.positions["AAPL"].CurrentPrice.Equal(dec("160")) {
		t.Errorf("AAPL price = %s, want 160", repo.positions["AAPL"].CurrentPrice)
	}
}

func TestRefreshPrices_FailureDoesNotAbortBatch(t *testing.T) {
	repo := newMockLedgerRepo("500000")
	addPosition(repo, "NVDA", "210")
	addPosition(repo, "AAPL", "150")
	addPosition(repo, "MSFT", "300")
	quotes := newMockQuoteProvider()
	quotes.prices["NVDA"] = dec("250")
	quotes.prices["MSFT"] = dec("310")
	quotes.errs["AAPL"] = errors.New("upstream timeout")

	svc := newTestPriceService(repo, quotes)
	report, err := svc.RefreshPrices(context.Background())
	if err != nil {
		t.Fatalf("RefreshPrices() error = %v", err)
	}

	if report.UpdatedCount != 2 {
		t.Errorf("UpdatedCount = %d, want 2", report.UpdatedCount)
	}
	if report.FailedCount != 1 {
		t.Fatalf("FailedCount = %d, want 1", report.FailedCount)
	}
	if report.Failed[0].Ticker != "AAPL" {
		t.Errorf("failed ticker = %s, want AAPL", report.Failed[0].Ticker)
	}
	if !strings.Contains(report.Failed[0].Reason, "upstream timeout") {
		t.Errorf("failure reason = %q, want upstream cause included", report.Failed[0].Reason)
	}

	// the failed ticker's stored mark is untouched
	if !repo.positions["AAPL"].CurrentPrice.Equal(dec("150")) {
		t.Errorf("AAPL price = %s, want 150 (unchanged)", repo.positions["AAPL"].CurrentPrice)
	}
	if !repo.positions["NVDA"].CurrentPrice.Equal(dec("250")) {
		t.Errorf("NVDA price = %s, want 250", repo.positions["NVDA"].CurrentPrice)
	}
}

func TestRefreshPrices_RejectsNonPositivePrice(t *testing.T) {
	repo := newMockLedgerRepo("500000")
	addPosition(repo, "NVDA", "210")
	quotes := newMockQuoteProvider()
	quotes.prices["NVDA"] = decimal.Zero

	svc := newTestPriceService(repo, quotes)
	report, err := svc.RefreshPrices(context.Background())
	if err != nil {
		t.Fatalf("RefreshPrices() error = %v", err)
	}

	if report.FailedCount != 1 {
		t.Fatalf("FailedCount = %d, want 1", report.FailedCount)
	}
	if !repo.positions["NVDA"].CurrentPrice.Equal(dec("210")) {
		t.Errorf("NVDA price = %s, want 210 (unchanged)", repo.positions["NVDA"].CurrentPrice)
	}
}

func TestRefreshPrices_EmptyPortfolio(t *testing.T) {
	repo := newMockLedgerRepo("500000")
	quotes := newMockQuoteProvider()

	svc := newTestPriceService(repo, quotes)
	report, err := svc.RefreshPrices(context.Background())
	if err != nil {
		t.Fatalf("RefreshPrices() error = %v", err)
	}

	if report.UpdatedCount != 0 || report.FailedCount != 0 {
		t.Errorf("report = %d/%d, want 0/0", report.UpdatedCount, report.FailedCount)
	}
	if len(quotes.calls) != 0 {
		t.Errorf("provider called %d times, want 0", len(quotes.calls))
	}
}
