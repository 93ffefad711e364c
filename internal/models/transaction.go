package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/types"
)

// Transaction is an append-only trade log entry. Rows are immutable once
// written and are never updated or deleted.
type Transaction struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Ticker     string          `json:"ticker" db:"ticker"`
	Side       types.TradeSide `json:"side" db:"side"`
	Quantity   int64           `json:"quantity" db:"quantity"`
	Price      decimal.Decimal `json:"price" db:"price"`
	ExecutedAt time.Time       `json:"executedAt" db:"executed_at"`
}

// NewTransaction creates a trade log entry timestamped now
func NewTransaction(ticker string, side types.TradeSide, quantity int64, price decimal.Decimal) *Transaction {
	return &Transaction{
		ID:         uuid.New(),
		Ticker:     ticker,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: time.Now().UTC(),
	}
}
