package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents an open holding in one ticker. A row exists only
// while quantity > 0; selling a position down to zero deletes it.
type Position struct {
	Ticker       string          `json:"ticker" db:"ticker"`
	Quantity     int64           `json:"quantity" db:"quantity"`
	AvgBuyPrice  decimal.Decimal `json:"avgBuyPrice" db:"avg_buy_price"`
	CurrentPrice decimal.Decimal `json:"currentPrice" db:"current_price"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// Return is the unrealized gain at the current mark:
// (currentPrice - avgBuyPrice) * quantity
func (p *Position) Return() decimal.Decimal {
	return p.CurrentPrice.Sub(p.AvgBuyPrice).Mul(decimal.NewFromInt(p.Quantity))
}

// ReturnRate is the unrealized return relative to cost basis.
// Zero when the cost basis is zero.
func (p *Position) ReturnRate() decimal.Decimal {
	basis := p.AvgBuyPrice.Mul(decimal.NewFromInt(p.Quantity))
	if basis.IsZero() {
		return decimal.Zero
	}
	return p.Return().Div(basis)
}

// MarketValue is the position's value at the current mark
func (p *Position) MarketValue() decimal.Decimal {
	return p.CurrentPrice.Mul(decimal.NewFromInt(p.Quantity))
}
