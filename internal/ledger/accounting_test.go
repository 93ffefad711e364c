package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/models"
	"github.com/stock-tracker/internal/types"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestApplyBuy_NewPosition(t *testing.T) {
	p := ApplyBuy(nil, "NVDA", 5, dec("200"))

	if p.Ticker != "NVDA" {
		t.Errorf("Ticker = %s, want NVDA", p.Ticker)
	}
	if p.Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", p.Quantity)
	}
	if !p.AvgBuyPrice.Equal(dec("200")) {
		t.Errorf("AvgBuyPrice = %s, want 200", p.AvgBuyPrice)
	}
	if !p.CurrentPrice.Equal(dec("200")) {
		t.Errorf("CurrentPrice = %s, want 200", p.CurrentPrice)
	}
}

func TestApplyBuy_WeightedAverage(t *testing.T) {
	p := ApplyBuy(nil, "NVDA", 5, dec("200"))
	p = ApplyBuy(p, "NVDA", 5, dec("220"))

	if p.Quantity != 10 {
		t.Errorf("Quantity = %d, want 10", p.Quantity)
	}
	// (5*200 + 5*220) / 10 = 210
	if !p.AvgBuyPrice.Equal(dec("210")) {
		t.Errorf("AvgBuyPrice = %s, want 210", p.AvgBuyPrice)
	}
	if !p.CurrentPrice.Equal(dec("220")) {
		t.Errorf("CurrentPrice = %s, want 220", p.CurrentPrice)
	}
}

func TestApplySell_RealizedPnL(t *testing.T) {
	p := ApplyBuy(nil, "NVDA", 5, dec("200"))
	p = ApplyBuy(p, "NVDA", 5, dec("220"))

	result, err := ApplySell(p, 2, dec("250"))
	if err != nil {
		t.Fatalf("ApplySell() error = %v", err)
	}

	// (250 - 210) * 2 = 80
	if !result.RealizedPnL.Equal(dec("80")) {
		t.Errorf("RealizedPnL = %s, want 80", result.RealizedPnL)
	}
	if result.Position == nil {
		t.Fatal("Position = nil, want remaining position")
	}
	if result.Position.Quantity != 8 {
		t.Errorf("Quantity = %d, want 8", result.Position.Quantity)
	}
	// cost basis unchanged by a sell
	if !result.Position.AvgBuyPrice.Equal(dec("210")) {
		t.Errorf("AvgBuyPrice = %s, want 210", result.Position.AvgBuyPrice)
	}
	if !result.Position.CurrentPrice.Equal(dec("250")) {
		t.Errorf("CurrentPrice = %s, want 250", result.Position.CurrentPrice)
	}
}

func TestApplySell_ClosesPositionAtZero(t *testing.T) {
	p := ApplyBuy(nil, "AAPL", 3, dec("150"))

	result, err := ApplySell(p, 3, dec("150"))
	if err != nil {
		t.Fatalf("ApplySell() error = %v", err)
	}

	if result.Position != nil {
		t.Errorf("Position = %+v, want nil (closed)", result.Position)
	}
	// buy and sell at the same price realizes nothing
	if !result.RealizedPnL.IsZero() {
		t.Errorf("RealizedPnL = %s, want 0", result.RealizedPnL)
	}
}

func TestApplySell_InsufficientShares(t *testing.T) {
	p := ApplyBuy(nil, "AAPL", 3, dec("150"))

	_, err := ApplySell(p, 4, dec("150"))
	if err == nil {
		t.Fatal("ApplySell() error = nil, want InsufficientShares")
	}

	svcErr, ok := err.(*types.ServiceError)
	if !ok {
		t.Fatalf("error type = %T, want *types.ServiceError", err)
	}
	if svcErr.Code != types.CodeInsufficientShares {
		t.Errorf("Code = %s, want %s", svcErr.Code, types.CodeInsufficientShares)
	}
	if svcErr.Details["requested"] != int64(4) || svcErr.Details["available"] != int64(3) {
		t.Errorf("Details = %v, want requested=4 available=3", svcErr.Details)
	}
}

func TestApplySell_LossIsNegative(t *testing.T) {
	p := ApplyBuy(nil, "TSLA", 10, dec("300"))

	result, err := ApplySell(p, 4, dec("250"))
	if err != nil {
		t.Fatalf("ApplySell() error = %v", err)
	}
	// (250 - 300) * 4 = -200
	if !result.RealizedPnL.Equal(dec("-200")) {
		t.Errorf("RealizedPnL = %s, want -200", result.RealizedPnL)
	}
}

func TestApplyBuy_FractionalAverage(t *testing.T) {
	p := ApplyBuy(nil, "MSFT", 3, dec("100"))
	p = ApplyBuy(p, "MSFT", 1, dec("101"))

	// (3*100 + 1*101) / 4 = 100.25
	if !p.AvgBuyPrice.Equal(dec("100.25")) {
		t.Errorf("AvgBuyPrice = %s, want 100.25", p.AvgBuyPrice)
	}
}

func TestApplyBuy_AverageKeepsFullPrecision(t *testing.T) {
	p := ApplyBuy(nil, "MSFT", 1, dec("100"))
	p = ApplyBuy(p, "MSFT", 2, dec("100.50"))

	// (100 + 2*100.50) / 3 repeats; the basis keeps the full division
	// precision, not a rounded approximation.
	if !p.AvgBuyPrice.Equal(dec("100.3333333333333333")) {
		t.Errorf("AvgBuyPrice = %s, want 100.3333333333333333", p.AvgBuyPrice)
	}
}

// Snapshots sum each open position's unrealized return, so gains realized
// by closing a position disappear from subsequent totals. This documents
// that behavior; see Position.Return.
func TestReturn_ReflectsOnlyOpenPositions(t *testing.T) {
	p := ApplyBuy(nil, "NVDA", 5, dec("200"))
	p.CurrentPrice = dec("250")

	if !p.Return().Equal(dec("250")) {
		t.Errorf("Return = %s, want 250", p.Return())
	}

	result, err := ApplySell(p, 5, dec("250"))
	if err != nil {
		t.Fatalf("ApplySell() error = %v", err)
	}
	if result.Position != nil {
		t.Fatal("expected closed position")
	}
	// the realized 250 gain is no longer visible through any open position
	if !result.RealizedPnL.Equal(dec("250")) {
		t.Errorf("RealizedPnL = %s, want 250", result.RealizedPnL)
	}
}

func TestPosition_ReturnRate(t *testing.T) {
	p := &models.Position{
		Ticker:       "NVDA",
		Quantity:     10,
		AvgBuyPrice:  dec("200"),
		CurrentPrice: dec("220"),
	}

	// (220-200)*10 / (200*10) = 0.1
	if !p.ReturnRate().Equal(dec("0.1")) {
		t.Errorf("ReturnRate = %s, want 0.1", p.ReturnRate())
	}
}
