package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/models"
)

// SnapshotRepository handles daily snapshot storage operations
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *PostgresDB) *SnapshotRepository {
	return &SnapshotRepository{pool: db.Pool()}
}

// Upsert stores a snapshot, overwriting any existing row for the same
// date. Repeated captures for one date are idempotent.
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot *models.DailySnapshot) error {
	query := `
		INSERT INTO daily_snapshots (
			snapshot_date,
			total_stock_value,
			cash_balance,
			total_value,
			total_return,
			total_return_rate,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (snapshot_date)
		DO UPDATE SET
			total_stock_value = EXCLUDED.total_stock_value,
			cash_balance = EXCLUDED.cash_balance,
			total_value = EXCLUDED.total_value,
			total_return = EXCLUDED.total_return,
			total_return_rate = EXCLUDED.total_return_rate,
			created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(
		ctx,
		query,
		snapshot.SnapshotDate,
		snapshot.TotalStockValue.String(),
		snapshot.CashBalance.String(),
		snapshot.TotalValue.String(),
		snapshot.TotalReturn.String(),
		snapshot.TotalReturnRate.String(),
		snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = `snapshot_date, total_stock_value::text, cash_balance::text,
	total_value::text, total_return::text, total_return_rate::text, created_at`

func scanSnapshot(row pgx.Row) (*models.DailySnapshot, error) {
	var s models.DailySnapshot
	var stockValue, cash, total, ret, rate string

	err := row.Scan(&s.SnapshotDate, &stockValue, &cash, &total, &ret, &rate, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&s.TotalStockValue, stockValue},
		{&s.CashBalance, cash},
		{&s.TotalValue, total},
		{&s.TotalReturn, ret},
		{&s.TotalReturnRate, rate},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot value: %w", err)
		}
	}
	return &s, nil
}

// GetByDate retrieves the snapshot for a date, or nil when none exists
func (r *SnapshotRepository) GetByDate(ctx context.Context, date time.Time) (*models.DailySnapshot, error) {
	return scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM daily_snapshots WHERE snapshot_date = $1`, date))
}

// GetByDateRange retrieves snapshots within a date range in chronological order
func (r *SnapshotRepository) GetByDateRange(ctx context.Context, from, to time.Time) ([]*models.DailySnapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM daily_snapshots
		WHERE snapshot_date >= $1 AND snapshot_date <= $2
		ORDER BY snapshot_date ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.DailySnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return snapshots, nil
}

// GetLatest retrieves the most recent snapshot, or nil when none exists
func (r *SnapshotRepository) GetLatest(ctx context.Context) (*models.DailySnapshot, error) {
	return scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM daily_snapshots ORDER BY snapshot_date DESC LIMIT 1`))
}
