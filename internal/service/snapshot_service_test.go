package service

import (
	"context"
	"testing"
	"time"

	"github.com/stock-tracker/internal/models"
)

type mockSnapshotRepo struct {
	rows        map[string]*models.DailySnapshot
	upsertCalls int
}

func newMockSnapshotRepo() *mockSnapshotRepo {
	return &mockSnapshotRepo{rows: make(map[string]*models.DailySnapshot)}
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func (m *mockSnapshotRepo) Upsert(ctx context.Context, snapshot *models.DailySnapshot) error {
	m.upsertCalls++
	m.rows[dateKey(snapshot.SnapshotDate)] = snapshot
	return nil
}

func (m *mockSnapshotRepo) GetByDate(ctx context.Context, date time.Time) (*models.DailySnapshot, error) {
	return m.rows[dateKey(date)], nil
}

func (m *mockSnapshotRepo) GetByDateRange(ctx context.Context, from, to time.Time) ([]*models.DailySnapshot, error) {
	var result []*models.DailySnapshot
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if row, ok := m.rows[dateKey(d)]; ok {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *mockSnapshotRepo) GetLatest(ctx context.Context) (*models.DailySnapshot, error) {
	var latest *models.DailySnapshot
	for _, row := range m.rows {
		if latest == nil || row.SnapshotDate.After(latest.SnapshotDate) {
			latest = row
		}
	}
	return latest, nil
}

func newTestSnapshotService(ledgerRepo *mockLedgerRepo, snapshotRepo *mockSnapshotRepo) *SnapshotService {
	return NewSnapshotService(ledgerRepo, snapshotRepo, dec("500000"), 5*time.Second)
}

func TestCapture_ComputesValuation(t *testing.T) {
	ledgerRepo := newMockLedgerRepo("498400")
	ledgerRepo.positions["NVDA"] = &models.Position{
		Ticker: "NVDA", Quantity: 8, AvgBuyPrice: dec("210"), CurrentPrice: dec("250"),
	}
	snapshotRepo := newMockSnapshotRepo()
	svc := newTestSnapshotService(ledgerRepo, snapshotRepo)

	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	snapshot, err := svc.Capture(context.Background(), date)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if !snapshot.TotalStockValue.Equal(dec("2000")) {
		t.Errorf("TotalStockValue = %s, want 2000", snapshot.TotalStockValue)
	}
	if !snapshot.CashBalance.Equal(dec("498400")) {
		t.Errorf("CashBalance = %s, want 498400", snapshot.CashBalance)
	}
	if !snapshot.TotalValue.Equal(dec("500400")) {
		t.Errorf("TotalValue = %s, want 500400", snapshot.TotalValue)
	}
	if !snapshot.TotalReturn.Equal(dec("320")) {
		t.Errorf("TotalReturn = %s, want 320", snapshot.TotalReturn)
	}
	if !snapshot.TotalReturnRate.Equal(dec("0.08")) {
		t.Errorf("TotalReturnRate = %s, want 0.08", snapshot.TotalReturnRate)
	}

	stored := snapshotRepo.rows[dateKey(date)]
	if stored == nil {
		t.Fatal("snapshot not persisted")
	}
}

func TestCapture_ConsistentUnderConcurrentTrade(t *testing.T) {
	ledgerRepo := newMockLedgerRepo("500000")
	snapshotRepo := newMockSnapshotRepo()
	svc := newTestSnapshotService(ledgerRepo, snapshotRepo)

	// A buy commits right after the valuation read completes. The
	// snapshot must reflect the whole pre-trade state, never the new
	// cash paired with the old positions or vice versa.
	ledgerRepo.afterRead = func(m *mockLedgerRepo) {
		m.cash = m.cash.Sub(dec("1000"))
		m.positions["NVDA"] = &models.Position{
			Ticker: "NVDA", Quantity: 5, AvgBuyPrice: dec("200"), CurrentPrice: dec("200"),
		}
	}

	snapshot, err := svc.Capture(context.Background(), time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if !snapshot.CashBalance.Equal(dec("500000")) {
		t.Errorf("CashBalance = %s, want pre-trade 500000", snapshot.CashBalance)
	}
	if !snapshot.TotalStockValue.IsZero() {
		t.Errorf("TotalStockValue = %s, want pre-trade 0", snapshot.TotalStockValue)
	}
	if !snapshot.TotalValue.Equal(dec("500000")) {
		t.Errorf("TotalValue = %s, want 500000", snapshot.TotalValue)
	}
}

func TestCapture_SameDateOverwrites(t *testing.T) {
	ledgerRepo := newMockLedgerRepo("500000")
	ledgerRepo.positions["AAPL"] = &models.Position{
		Ticker: "AAPL", Quantity: 10, AvgBuyPrice: dec("100"), CurrentPrice: dec("100"),
	}
	snapshotRepo := newMockSnapshotRepo()
	svc := newTestSnapshotService(ledgerRepo, snapshotRepo)
	ctx := context.Background()

	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Capture(ctx, date); err != nil {
		t.Fatalf("first Capture() error = %v", err)
	}

	// price moves, same date captured again
	ledgerRepo.positions["AAPL"].CurrentPrice = dec("120")
	if _, err := svc.Capture(ctx, date); err != nil {
		t.Fatalf("second Capture() error = %v", err)
	}

	if len(snapshotRepo.rows) != 1 {
		t.Fatalf("row count = %d, want 1", len(snapshotRepo.rows))
	}
	stored := snapshotRepo.rows[dateKey(date)]
	if !stored.TotalStockValue.Equal(dec("1200")) {
		t.Errorf("TotalStockValue = %s, want 1200 (latest values)", stored.TotalStockValue)
	}
	if !stored.TotalReturn.Equal(dec("200")) {
		t.Errorf("TotalReturn = %s, want 200 (latest values)", stored.TotalReturn)
	}
}

func TestCapture_TruncatesTimeOfDay(t *testing.T) {
	ledgerRepo := newMockLedgerRepo("500000")
	snapshotRepo := newMockSnapshotRepo()
	svc := newTestSnapshotService(ledgerRepo, snapshotRepo)

	at := time.Date(2025, 6, 10, 14, 37, 9, 0, time.UTC)
	snapshot, err := svc.Capture(context.Background(), at)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	want := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if !snapshot.SnapshotDate.Equal(want) {
		t.Errorf("SnapshotDate = %v, want %v", snapshot.SnapshotDate, want)
	}
}

// totalReturn tracks only open positions. After a position closes, the
// cash it realized raises totalValue and the return rate but does not
// appear in totalReturn.
func TestCapture_TotalReturnExcludesRealizedGains(t *testing.T) {
	// 500000 start, bought 5@200 and sold 5@280: all cash, no positions
	ledgerRepo := newMockLedgerRepo("500400")
	snapshotRepo := newMockSnapshotRepo()
	svc := newTestSnapshotService(ledgerRepo, snapshotRepo)

	snapshot, err := svc.Capture(context.Background(), time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if !snapshot.TotalReturn.IsZero() {
		t.Errorf("TotalReturn = %s, want 0 (realized gains excluded)", snapshot.TotalReturn)
	}
	if !snapshot.TotalValue.Equal(dec("500400")) {
		t.Errorf("TotalValue = %s, want 500400", snapshot.TotalValue)
	}
	if !snapshot.TotalReturnRate.Equal(dec("0.08")) {
		t.Errorf("TotalReturnRate = %s, want 0.08", snapshot.TotalReturnRate)
	}
}

func TestGetSnapshots_Range(t *testing.T) {
	ledgerRepo := newMockLedgerRepo("500000")
	snapshotRepo := newMockSnapshotRepo()
	svc := newTestSnapshotService(ledgerRepo, snapshotRepo)
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		date := time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)
		if _, err := svc.Capture(ctx, date); err != nil {
			t.Fatalf("Capture(%v) error = %v", date, err)
		}
	}

	from := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	snapshots, err := svc.GetSnapshots(ctx, from, to)
	if err != nil {
		t.Fatalf("GetSnapshots() error = %v", err)
	}
	if len(snapshots) != 3 {
		t.Errorf("snapshot count = %d, want 3", len(snapshots))
	}
}
