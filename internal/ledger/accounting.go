// Package ledger implements pure average-cost-basis accounting for buy
// and sell executions. It performs no I/O; callers persist the results.
package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/models"
	"github.com/stock-tracker/internal/types"
)

// SellResult is the outcome of applying a sell to a position
type SellResult struct {
	// Position is the remaining position, or nil when the sell closed it
	Position *models.Position
	// RealizedPnL is (price - avgBuyPrice) * quantity for the sold shares
	RealizedPnL decimal.Decimal
}

// ApplyBuy folds a buy into an existing position, or opens a new one when
// existing is nil. The average buy price is the exact quantity-weighted
// mean of all purchases; full precision is carried and rounding happens
// only at presentation. The current price is marked at the trade price.
func ApplyBuy(existing *models.Position, ticker string, quantity int64, price decimal.Decimal) *models.Position {
	if existing == nil {
		return &models.Position{
			Ticker:       ticker,
			Quantity:     quantity,
			AvgBuyPrice:  price,
			CurrentPrice: price,
		}
	}

	oldQty := decimal.NewFromInt(existing.Quantity)
	newQty := decimal.NewFromInt(existing.Quantity + quantity)
	cost := oldQty.Mul(existing.AvgBuyPrice).Add(decimal.NewFromInt(quantity).Mul(price))

	return &models.Position{
		Ticker:       existing.Ticker,
		Quantity:     existing.Quantity + quantity,
		AvgBuyPrice:  cost.Div(newQty),
		CurrentPrice: price,
	}
}

// ApplySell reduces a position by the sold quantity and computes the
// realized P&L against the unchanged cost basis. When the sale takes the
// quantity to exactly zero the position is removed (result.Position is
// nil) rather than retained as a zero row.
func ApplySell(existing *models.Position, quantity int64, price decimal.Decimal) (SellResult, error) {
	if quantity > existing.Quantity {
		return SellResult{}, types.NewInsufficientSharesError(existing.Ticker, quantity, existing.Quantity)
	}

	realized := price.Sub(existing.AvgBuyPrice).Mul(decimal.NewFromInt(quantity))

	remaining := existing.Quantity - quantity
	if remaining == 0 {
		return SellResult{Position: nil, RealizedPnL: realized}, nil
	}

	return SellResult{
		Position: &models.Position{
			Ticker:       existing.Ticker,
			Quantity:     remaining,
			AvgBuyPrice:  existing.AvgBuyPrice,
			CurrentPrice: price,
		},
		RealizedPnL: realized,
	}, nil
}
