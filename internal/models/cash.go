package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashAccount is the singleton cash balance backing all trades. It is
// mutated only inside trade execution, never directly by callers.
type CashAccount struct {
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}
