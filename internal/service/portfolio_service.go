package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/models"
)

// PositionView is a position with its derived return fields, rounded
// for presentation
type PositionView struct {
	Ticker       string          `json:"ticker"`
	Quantity     int64           `json:"quantity"`
	AvgBuyPrice  decimal.Decimal `json:"avgBuyPrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	Return       decimal.Decimal `json:"return"`
	ReturnRate   decimal.Decimal `json:"returnRate"`
}

// PortfolioView is the full portfolio with aggregate valuation
type PortfolioView struct {
	Positions       []PositionView  `json:"portfolio"`
	TotalStockValue decimal.Decimal `json:"totalStockValue"`
	TotalReturn     decimal.Decimal `json:"totalReturn"`
}

// CashView is the current cash balance
type CashView struct {
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PortfolioService serves read-only views over the ledger
type PortfolioService struct {
	ledgerRepo   LedgerRepository
	storeTimeout time.Duration
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(ledgerRepo LedgerRepository, storeTimeout time.Duration) *PortfolioService {
	return &PortfolioService{
		ledgerRepo:   ledgerRepo,
		storeTimeout: storeTimeout,
	}
}

func viewOf(p *models.Position) PositionView {
	return PositionView{
		Ticker:       p.Ticker,
		Quantity:     p.Quantity,
		AvgBuyPrice:  p.AvgBuyPrice.Round(4),
		CurrentPrice: p.CurrentPrice.Round(4),
		Return:       p.Return().Round(2),
		ReturnRate:   p.ReturnRate().Round(4),
	}
}

// GetPortfolio returns all open positions with aggregate stock value and
// unrealized return
func (s *PortfolioService) GetPortfolio(ctx context.Context) (*PortfolioView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	positions, err := s.ledgerRepo.ListPositions(ctx)
	if err != nil {
		return nil, wrapStoreError("get portfolio", err)
	}

	view := &PortfolioView{
		Positions:       make([]PositionView, 0, len(positions)),
		TotalStockValue: decimal.Zero,
		TotalReturn:     decimal.Zero,
	}
	for _, p := range positions {
		view.Positions = append(view.Positions, viewOf(p))
		view.TotalStockValue = view.TotalStockValue.Add(p.MarketValue())
		view.TotalReturn = view.TotalReturn.Add(p.Return())
	}
	view.TotalStockValue = view.TotalStockValue.Round(2)
	view.TotalReturn = view.TotalReturn.Round(2)

	return view, nil
}

// GetCash returns the current cash balance
func (s *PortfolioService) GetCash(ctx context.Context) (*CashView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	account, err := s.ledgerRepo.GetCashAccount(ctx)
	if err != nil {
		return nil, wrapStoreError("get cash", err)
	}
	return &CashView{Balance: account.Balance, UpdatedAt: account.UpdatedAt}, nil
}

// GetTransactions returns the most recent trade log entries
func (s *PortfolioService) GetTransactions(ctx context.Context, limit int) ([]*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	transactions, err := s.ledgerRepo.ListTransactions(ctx, limit)
	if err != nil {
		return nil, wrapStoreError("get transactions", err)
	}
	return transactions, nil
}
