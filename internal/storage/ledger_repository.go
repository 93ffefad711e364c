package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/models"
	"github.com/stock-tracker/internal/types"
)

// TradeTx is the mutation surface available inside a trade transaction.
// The cash row and the target position row are locked for the lifetime
// of the transaction, so reads through it cannot go stale.
type TradeTx interface {
	// CashBalance returns the locked cash balance
	CashBalance() decimal.Decimal
	// Position returns the locked position, or nil when the ticker is not held
	Position() *models.Position
	// SetCashBalance overwrites the cash balance
	SetCashBalance(ctx context.Context, balance decimal.Decimal) error
	// SavePosition inserts or overwrites the position row
	SavePosition(ctx context.Context, p *models.Position) error
	// DeletePosition removes the position row
	DeletePosition(ctx context.Context, ticker string) error
	// AppendTransaction appends to the immutable trade log
	AppendTransaction(ctx context.Context, t *models.Transaction) error
}

// LedgerRepository handles cash, position, and transaction storage
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *PostgresDB) *LedgerRepository {
	return &LedgerRepository{pool: db.Pool()}
}

const positionColumns = `ticker, quantity, avg_buy_price::text, current_price::text, updated_at`

func scanPosition(row pgx.Row) (*models.Position, error) {
	var p models.Position
	var avgBuy, current string

	err := row.Scan(&p.Ticker, &p.Quantity, &avgBuy, &current, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan position row: %w", err)
	}

	if p.AvgBuyPrice, err = decimal.NewFromString(avgBuy); err != nil {
		return nil, fmt.Errorf("failed to parse avg_buy_price: %w", err)
	}
	if p.CurrentPrice, err = decimal.NewFromString(current); err != nil {
		return nil, fmt.Errorf("failed to parse current_price: %w", err)
	}
	return &p, nil
}

// ExecuteTrade runs fn within a database transaction holding exclusive
// row locks over the cash account and the target position. Any error
// from fn, or any failure along the way, rolls the whole trade back.
func (r *LedgerRepository) ExecuteTrade(ctx context.Context, ticker string, fn func(TradeTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin trade transaction: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck // no-op after commit

	var balanceStr string
	err = tx.QueryRow(ctx, `SELECT balance::text FROM cash_account WHERE id = 1 FOR UPDATE`).Scan(&balanceStr)
	if err != nil {
		return fmt.Errorf("failed to lock cash account: %w", err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return fmt.Errorf("failed to parse cash balance: %w", err)
	}

	position, err := scanPosition(tx.QueryRow(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE ticker = $1 FOR UPDATE`, ticker))
	if err != nil {
		return fmt.Errorf("failed to lock position: %w", err)
	}

	t := &tradeTx{tx: tx, cash: balance, position: position}
	if err := fn(t); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit trade: %w", err)
	}
	return nil
}

// tradeTx implements TradeTx over a pgx transaction
type tradeTx struct {
	tx       pgx.Tx
	cash     decimal.Decimal
	position *models.Position
}

func (t *tradeTx) CashBalance() decimal.Decimal { return t.cash }

func (t *tradeTx) Position() *models.Position { return t.position }

func (t *tradeTx) SetCashBalance(ctx context.Context, balance decimal.Decimal) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE cash_account SET balance = $1, updated_at = now() WHERE id = 1`,
		balance.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}
	t.cash = balance
	return nil
}

func (t *tradeTx) SavePosition(ctx context.Context, p *models.Position) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO positions (ticker, quantity, avg_buy_price, current_price, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (ticker)
		DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_buy_price = EXCLUDED.avg_buy_price,
			current_price = EXCLUDED.current_price,
			updated_at = now()
	`, p.Ticker, p.Quantity, p.AvgBuyPrice.String(), p.CurrentPrice.String())
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

func (t *tradeTx) DeletePosition(ctx context.Context, ticker string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM positions WHERE ticker = $1`, ticker)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

func (t *tradeTx) AppendTransaction(ctx context.Context, txn *models.Transaction) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO transactions (id, ticker, side, quantity, price, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, txn.ID, txn.Ticker, string(txn.Side), txn.Quantity, txn.Price.String(), txn.ExecutedAt)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// CashBalance returns the current cash balance
func (r *LedgerRepository) CashBalance(ctx context.Context) (decimal.Decimal, error) {
	var balanceStr string
	err := r.pool.QueryRow(ctx, `SELECT balance::text FROM cash_account WHERE id = 1`).Scan(&balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query cash balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse cash balance: %w", err)
	}
	return balance, nil
}

// GetCashAccount returns the cash account row with its last update time
func (r *LedgerRepository) GetCashAccount(ctx context.Context) (*models.CashAccount, error) {
	var (
		balanceStr string
		account    models.CashAccount
	)
	err := r.pool.QueryRow(ctx, `SELECT balance::text, updated_at FROM cash_account WHERE id = 1`).
		Scan(&balanceStr, &account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash account: %w", err)
	}

	account.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cash balance: %w", err)
	}
	return &account, nil
}

// GetPosition returns the position for a ticker, or nil when not held
func (r *LedgerRepository) GetPosition(ctx context.Context, ticker string) (*models.Position, error) {
	return scanPosition(r.pool.QueryRow(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE ticker = $1`, ticker))
}

// ListPositions returns all open positions ordered by ticker
func (r *LedgerRepository) ListPositions(ctx context.Context) ([]*models.Position, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+positionColumns+` FROM positions ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}
	return positions, nil
}

// ReadValuation returns the cash balance and all open positions read
// within a single repeatable-read transaction, so a concurrently
// committing trade is either fully visible or not visible at all.
func (r *LedgerRepository) ReadValuation(ctx context.Context) (decimal.Decimal, []*models.Position, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to begin valuation read: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceStr string
	if err := tx.QueryRow(ctx, `SELECT balance::text FROM cash_account WHERE id = 1`).Scan(&balanceStr); err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to query cash balance: %w", err)
	}
	cash, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to parse cash balance: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT `+positionColumns+` FROM positions ORDER BY ticker`)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to query positions: %w", err)
	}

	var positions []*models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			rows.Close()
			return decimal.Zero, nil, err
		}
		positions = append(positions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return decimal.Zero, nil, fmt.Errorf("error iterating position rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to commit valuation read: %w", err)
	}
	return cash, positions, nil
}

// UpdateCurrentPrice overwrites the mark price for one ticker. This is an
// independent, immediately committed write: a crash mid-refresh leaves
// previously updated tickers updated.
func (r *LedgerRepository) UpdateCurrentPrice(ctx context.Context, ticker string, price decimal.Decimal) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE positions SET current_price = $1, updated_at = now() WHERE ticker = $2`,
		price.String(), ticker,
	)
	if err != nil {
		return fmt.Errorf("failed to update current price: %w", err)
	}
	return nil
}

// ListTransactions returns the most recent trade log entries, newest first
func (r *LedgerRepository) ListTransactions(ctx context.Context, limit int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, ticker, side, quantity, price::text, executed_at
		FROM transactions
		ORDER BY executed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		var side, priceStr string

		if err := rows.Scan(&t.ID, &t.Ticker, &side, &t.Quantity, &priceStr, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		t.Side = types.TradeSide(side)
		if t.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse transaction price: %w", err)
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}
