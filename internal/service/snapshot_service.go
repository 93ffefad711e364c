package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/logging"
	"github.com/stock-tracker/internal/models"
)

// SnapshotRepository is the store surface for daily snapshots
type SnapshotRepository interface {
	Upsert(ctx context.Context, snapshot *models.DailySnapshot) error
	GetByDate(ctx context.Context, date time.Time) (*models.DailySnapshot, error)
	GetByDateRange(ctx context.Context, from, to time.Time) ([]*models.DailySnapshot, error)
	GetLatest(ctx context.Context) (*models.DailySnapshot, error)
}

// SnapshotService computes and persists daily portfolio valuations
type SnapshotService struct {
	ledgerRepo        LedgerRepository
	snapshotRepo      SnapshotRepository
	initialInvestment decimal.Decimal
	storeTimeout      time.Duration
	logger            *logging.Logger
	stopChan          chan struct{}
	running           bool
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(
	ledgerRepo LedgerRepository,
	snapshotRepo SnapshotRepository,
	initialInvestment decimal.Decimal,
	storeTimeout time.Duration,
) *SnapshotService {
	return &SnapshotService{
		ledgerRepo:        ledgerRepo,
		snapshotRepo:      snapshotRepo,
		initialInvestment: initialInvestment,
		storeTimeout:      storeTimeout,
		logger:            logging.GetGlobalLogger().WithField("component", "snapshot_service"),
		stopChan:          make(chan struct{}),
	}
}

// truncateToDate drops the time-of-day component, keeping the UTC date
func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Capture computes and stores the snapshot for a date. Capturing the
// same date twice overwrites the earlier row in place.
//
// totalReturn sums each open position's unrealized return; gains already
// realized by closing positions are not included. That matches the
// historical behavior of the snapshot series and is asserted in tests.
func (s *SnapshotService) Capture(ctx context.Context, date time.Time) (*models.DailySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	// Cash and positions come from one consistent read. A trade
	// committing concurrently is either fully in the snapshot or not
	// in it at all.
	cash, positions, err := s.ledgerRepo.ReadValuation(ctx)
	if err != nil {
		return nil, wrapStoreError("snapshot", err)
	}

	totalStockValue := decimal.Zero
	totalReturn := decimal.Zero
	for _, p := range positions {
		totalStockValue = totalStockValue.Add(p.MarketValue())
		totalReturn = totalReturn.Add(p.Return())
	}

	totalValue := cash.Add(totalStockValue)
	returnRate := totalValue.Sub(s.initialInvestment).
		Div(s.initialInvestment).
		Mul(decimal.NewFromInt(100)).
		Round(2)

	snapshot := &models.DailySnapshot{
		SnapshotDate:    truncateToDate(date),
		TotalStockValue: totalStockValue.Round(2),
		CashBalance:     cash,
		TotalValue:      totalValue.Round(2),
		TotalReturn:     totalReturn.Round(2),
		TotalReturnRate: returnRate,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.snapshotRepo.Upsert(ctx, snapshot); err != nil {
		return nil, wrapStoreError("snapshot", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"date":       snapshot.SnapshotDate.Format("2006-01-02"),
		"totalValue": snapshot.TotalValue.String(),
		"returnRate": snapshot.TotalReturnRate.String(),
	}).Info("Snapshot captured")

	return snapshot, nil
}

// GetSnapshots returns snapshots within a date range in chronological order
func (s *SnapshotService) GetSnapshots(ctx context.Context, from, to time.Time) ([]*models.DailySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	snapshots, err := s.snapshotRepo.GetByDateRange(ctx, truncateToDate(from), truncateToDate(to))
	if err != nil {
		return nil, wrapStoreError("get snapshots", err)
	}
	return snapshots, nil
}

// Start begins the daily capture loop. The first capture fires at the
// next midnight UTC, then every 24 hours.
func (s *SnapshotService) Start(ctx context.Context) error {
	if s.running {
		return fmt.Errorf("snapshot scheduler is already running")
	}
	s.running = true

	now := time.Now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	untilMidnight := nextMidnight.Sub(now)

	s.logger.WithField("next", nextMidnight.Format(time.RFC3339)).Info("Snapshot scheduler starting")

	go func() {
		select {
		case <-time.After(untilMidnight):
			s.captureNow(ctx)
		case <-s.stopChan:
			return
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.captureNow(ctx)
			case <-s.stopChan:
				return
			}
		}
	}()

	return nil
}

func (s *SnapshotService) captureNow(ctx context.Context) {
	if _, err := s.Capture(ctx, time.Now().UTC()); err != nil {
		s.logger.WithError(err).Error("Scheduled snapshot capture failed")
	}
}

// Stop gracefully stops the capture loop
func (s *SnapshotService) Stop() error {
	if !s.running {
		return fmt.Errorf("snapshot scheduler is not running")
	}
	close(s.stopChan)
	s.running = false
	s.logger.Info("Snapshot scheduler stopped")
	return nil
}
