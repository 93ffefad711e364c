// Package service implements the portfolio ledger operations: trade
// execution, valuation snapshots, price refresh, and market-data proxying.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/ledger"
	"github.com/stock-tracker/internal/logging"
	"github.com/stock-tracker/internal/models"
	"github.com/stock-tracker/internal/storage"
	"github.com/stock-tracker/internal/types"
)

// LedgerRepository is the store surface the ledger services depend on
type LedgerRepository interface {
	ExecuteTrade(ctx context.Context, ticker string, fn func(storage.TradeTx) error) error
	CashBalance(ctx context.Context) (decimal.Decimal, error)
	GetCashAccount(ctx context.Context) (*models.CashAccount, error)
	GetPosition(ctx context.Context, ticker string) (*models.Position, error)
	ListPositions(ctx context.Context) ([]*models.Position, error)
	ReadValuation(ctx context.Context) (decimal.Decimal, []*models.Position, error)
	UpdateCurrentPrice(ctx context.Context, ticker string, price decimal.Decimal) error
	ListTransactions(ctx context.Context, limit int) ([]*models.Transaction, error)
}

// TradeInput carries the parameters of a buy or sell request
type TradeInput struct {
	Ticker   string
	Quantity int64
	Price    decimal.Decimal
}

// TradeResult echoes the executed trade and the resulting ledger state
type TradeResult struct {
	Ticker      string          `json:"ticker"`
	Side        types.TradeSide `json:"side"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CashBalance decimal.Decimal `json:"cashBalance"`

	// Buy-only field
	TotalCost *decimal.Decimal `json:"totalCost,omitempty"`

	// Sell-only fields
	TotalRevenue      *decimal.Decimal `json:"totalRevenue,omitempty"`
	RealizedPnL       *decimal.Decimal `json:"realizedPnL,omitempty"`
	RemainingQuantity *int64           `json:"remainingQuantity,omitempty"`
}

// TradeService executes buys and sells as atomic all-or-nothing units
type TradeService struct {
	ledgerRepo   LedgerRepository
	storeTimeout time.Duration
	logger       *logging.Logger
}

// NewTradeService creates a new trade service
func NewTradeService(ledgerRepo LedgerRepository, storeTimeout time.Duration) *TradeService {
	return &TradeService{
		ledgerRepo:   ledgerRepo,
		storeTimeout: storeTimeout,
		logger:       logging.GetGlobalLogger().WithField("component", "trade_service"),
	}
}

// validateInput normalizes the ticker and rejects malformed trades
// before any store access
func validateInput(input *TradeInput) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(input.Ticker))
	if ticker == "" {
		return "", types.NewInvalidInputError("ticker", "must not be empty")
	}
	if input.Quantity <= 0 {
		return "", types.NewInvalidInputError("quantity", "must be positive")
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return "", types.NewInvalidInputError("price", "must be positive")
	}
	return ticker, nil
}

// wrapStoreError passes business errors through untouched and converts
// anything else into a STORE_UNAVAILABLE failure. Either way the trade
// transaction has been rolled back.
func wrapStoreError(operation string, err error) error {
	if svcErr, ok := err.(*types.ServiceError); ok {
		return svcErr
	}
	return types.NewStoreUnavailableError(operation, err)
}

// Buy executes a buy: funds check, cost-basis accounting, position
// write, transaction append, and cash debit in one transaction.
func (s *TradeService) Buy(ctx context.Context, input *TradeInput) (*TradeResult, error) {
	ticker, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	totalCost := input.Price.Mul(decimal.NewFromInt(input.Quantity))

	var result *TradeResult
	err = s.ledgerRepo.ExecuteTrade(ctx, ticker, func(tx storage.TradeTx) error {
		if tx.CashBalance().LessThan(totalCost) {
			return types.NewInsufficientFundsError(totalCost, tx.CashBalance())
		}

		position := ledger.ApplyBuy(tx.Position(), ticker, input.Quantity, input.Price)
		if err := tx.SavePosition(ctx, position); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, models.NewTransaction(ticker, types.SideBuy, input.Quantity, input.Price)); err != nil {
			return err
		}

		newBalance := tx.CashBalance().Sub(totalCost)
		if err := tx.SetCashBalance(ctx, newBalance); err != nil {
			return err
		}

		result = &TradeResult{
			Ticker:      ticker,
			Side:        types.SideBuy,
			Quantity:    input.Quantity,
			Price:       input.Price,
			TotalCost:   &totalCost,
			CashBalance: newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("buy", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"quantity": input.Quantity,
		"price":    input.Price.String(),
		"cost":     totalCost.String(),
	}).Info("Buy executed")

	return result, nil
}

// Sell executes a sell: position check, realized P&L accounting,
// position write or delete, transaction append, and cash credit in one
// transaction.
func (s *TradeService) Sell(ctx context.Context, input *TradeInput) (*TradeResult, error) {
	ticker, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	revenue := input.Price.Mul(decimal.NewFromInt(input.Quantity))

	var result *TradeResult
	err = s.ledgerRepo.ExecuteTrade(ctx, ticker, func(tx storage.TradeTx) error {
		position := tx.Position()
		if position == nil {
			return types.NewNoPositionError(ticker)
		}

		sellResult, err := ledger.ApplySell(position, input.Quantity, input.Price)
		if err != nil {
			return err
		}

		if sellResult.Position == nil {
			if err := tx.DeletePosition(ctx, ticker); err != nil {
				return err
			}
		} else {
			if err := tx.SavePosition(ctx, sellResult.Position); err != nil {
				return err
			}
		}
		if err := tx.AppendTransaction(ctx, models.NewTransaction(ticker, types.SideSell, input.Quantity, input.Price)); err != nil {
			return err
		}

		newBalance := tx.CashBalance().Add(revenue)
		if err := tx.SetCashBalance(ctx, newBalance); err != nil {
			return err
		}

		remaining := int64(0)
		if sellResult.Position != nil {
			remaining = sellResult.Position.Quantity
		}
		realized := sellResult.RealizedPnL

		result = &TradeResult{
			Ticker:            ticker,
			Side:              types.SideSell,
			Quantity:          input.Quantity,
			Price:             input.Price,
			CashBalance:       newBalance,
			TotalRevenue:      &revenue,
			RealizedPnL:       &realized,
			RemainingQuantity: &remaining,
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("sell", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"quantity": input.Quantity,
		"price":    input.Price.String(),
		"revenue":  revenue.String(),
		"realized": result.RealizedPnL.String(),
	}).Info("Sell executed")

	return result, nil
}
