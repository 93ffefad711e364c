// Package types defines shared types used across the stock tracker service.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TradeSide represents the direction of a trade
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// Valid reports whether the side is one of the two known values
func (s TradeSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Error codes returned by the ledger core
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeInsufficientShares = "INSUFFICIENT_SHARES"
	CodeNoPosition         = "NO_POSITION"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeQuoteProviderError = "QUOTE_PROVIDER_ERROR"
)

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(field, reason string) *ServiceError {
	return &ServiceError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid field '%s': %s", field, reason),
		Details: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewInsufficientFundsError creates an insufficient funds error carrying
// the required and available cash amounts
func NewInsufficientFundsError(required, available decimal.Decimal) *ServiceError {
	return &ServiceError{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("insufficient funds: required %s, available %s", required, available),
		Details: map[string]interface{}{
			"required":  required.String(),
			"available": available.String(),
		},
	}
}

// NewInsufficientSharesError creates an insufficient shares error carrying
// the requested and held quantities
func NewInsufficientSharesError(ticker string, requested, available int64) *ServiceError {
	return &ServiceError{
		Code:    CodeInsufficientShares,
		Message: fmt.Sprintf("insufficient shares of %s: requested %d, available %d", ticker, requested, available),
		Details: map[string]interface{}{
			"ticker":    ticker,
			"requested": requested,
			"available": available,
		},
	}
}

// NewNoPositionError creates an error for a sell against a ticker that is not held
func NewNoPositionError(ticker string) *ServiceError {
	return &ServiceError{
		Code:    CodeNoPosition,
		Message: fmt.Sprintf("no open position for %s", ticker),
		Details: map[string]interface{}{
			"ticker": ticker,
		},
	}
}

// NewStoreUnavailableError wraps an infrastructure failure. The in-flight
// transaction has been rolled back and the operation is safe to retry.
func NewStoreUnavailableError(operation string, cause error) *ServiceError {
	return &ServiceError{
		Code:    CodeStoreUnavailable,
		Message: fmt.Sprintf("store unavailable during %s", operation),
		Details: map[string]interface{}{
			"operation": operation,
			"cause":     cause.Error(),
		},
	}
}

// NewQuoteProviderError creates a quote provider error for a ticker
func NewQuoteProviderError(ticker string, cause error) *ServiceError {
	return &ServiceError{
		Code:    CodeQuoteProviderError,
		Message: fmt.Sprintf("quote provider failed for %s: %v", ticker, cause),
		Details: map[string]interface{}{
			"ticker": ticker,
		},
	}
}

// Quote is the per-ticker result returned by the quote provider
type Quote struct {
	Ticker   string          `json:"ticker"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// MarketQuote is the compact market-data shape served by the proxy routes
type MarketQuote struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"changePercent"`
	Volume        int64    `json:"volume"`
	MarketCap     *float64 `json:"marketCap,omitempty"`
}

// Candle is a single bar of price history
type Candle struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	AdjClose float64 `json:"adjClose"`
}

// RefreshFailure records a ticker whose price refresh failed and why
type RefreshFailure struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// RefreshReport summarizes a price refresh batch. Updates are committed
// per ticker; a failed ticker never aborts the rest of the batch.
type RefreshReport struct {
	UpdatedCount int              `json:"updatedCount"`
	FailedCount  int              `json:"failedCount"`
	Updated      []string         `json:"updated"`
	Failed       []RefreshFailure `json:"failed"`
}
