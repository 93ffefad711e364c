package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot is a dated valuation of the whole portfolio. One row per
// calendar date; repeated captures for the same date overwrite in place.
type DailySnapshot struct {
	SnapshotDate    time.Time       `json:"snapshotDate" db:"snapshot_date"`
	TotalStockValue decimal.Decimal `json:"totalStockValue" db:"total_stock_value"`
	CashBalance     decimal.Decimal `json:"cashBalance" db:"cash_balance"`
	TotalValue      decimal.Decimal `json:"totalValue" db:"total_value"`
	TotalReturn     decimal.Decimal `json:"totalReturn" db:"total_return"`
	TotalReturnRate decimal.Decimal `json:"totalReturnRate" db:"total_return_rate"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
}
