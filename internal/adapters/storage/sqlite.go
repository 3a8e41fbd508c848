// Package storage persists finished backtest runs to SQLite so parameter
// sweeps can be compared after the fact.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adelgado/quantbt/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    start_date    DATETIME NOT NULL,
    end_date      DATETIME NOT NULL,
    start_balance REAL     NOT NULL,
    final_value   REAL     NOT NULL,
    created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS balance_history (
    run_id TEXT     NOT NULL REFERENCES runs(id),
    date   DATETIME NOT NULL,
    value  REAL     NOT NULL,
    PRIMARY KEY (run_id, date)
);

CREATE TABLE IF NOT EXISTS transactions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id         TEXT     NOT NULL REFERENCES runs(id),
    side           TEXT     NOT NULL,
    holding_id     INTEGER  NOT NULL,
    symbol         TEXT     NOT NULL,
    exchange       TEXT     NOT NULL,
    count          INTEGER  NOT NULL,
    purchase_date  DATETIME NOT NULL,
    purchase_price REAL     NOT NULL,
    sale_price     REAL,
    date           DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS company_bias (
    run_id   TEXT    NOT NULL REFERENCES runs(id),
    symbol   TEXT    NOT NULL,
    exchange TEXT    NOT NULL,
    year     INTEGER NOT NULL,
    month    INTEGER NOT NULL,
    bias     REAL    NOT NULL,
    PRIMARY KEY (run_id, symbol, exchange, year, month)
);

CREATE INDEX IF NOT EXISTS idx_runs_created  ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tx_run        ON transactions(run_id);
CREATE INDEX IF NOT EXISTS idx_balance_run   ON balance_history(run_id);
`

// SQLiteStorage implements ports.RunStorage on SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SaveRun persists the run header, balance series, transaction log and bias
// matrix atomically.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, start_date, end_date, start_balance, final_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Start, run.End, run.StartBalance, run.FinalValue, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	for _, p := range run.BalanceHistory {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO balance_history (run_id, date, value) VALUES (?, ?, ?)`,
			run.ID, p.Date, p.Value); err != nil {
			return fmt.Errorf("storage.SaveRun: insert balance point: %w", err)
		}
	}

	for _, t := range run.History {
		var salePrice any
		if t.Holding.Sold {
			salePrice = t.Holding.SalePrice
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions
			 (run_id, side, holding_id, symbol, exchange, count, purchase_date, purchase_price, sale_price, date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, string(t.Side), t.Holding.ID,
			t.Holding.Company.Symbol, t.Holding.Company.Exchange,
			t.Holding.Count, t.Holding.PurchaseDate, t.Holding.PurchasePrice,
			salePrice, t.Date); err != nil {
			return fmt.Errorf("storage.SaveRun: insert transaction: %w", err)
		}
	}

	for _, cb := range run.Bias {
		for _, w := range cb.Windows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO company_bias (run_id, symbol, exchange, year, month, bias)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				run.ID, cb.Company.Symbol, cb.Company.Exchange,
				w.Year, int(w.Month), w.Bias); err != nil {
				return fmt.Errorf("storage.SaveRun: insert bias bucket: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// GetRuns returns the persisted run headers, newest first.
func (s *SQLiteStorage) GetRuns(ctx context.Context) ([]domain.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_date, end_date, start_balance, final_value, created_at
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var r domain.RunSummary
		if err := rows.Scan(&r.ID, &r.Start, &r.End, &r.StartBalance, &r.FinalValue, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: scan: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetBalanceHistory returns one run's daily balance series in date order.
func (s *SQLiteStorage) GetBalanceHistory(ctx context.Context, runID string) ([]domain.BalancePoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, value FROM balance_history WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetBalanceHistory: query: %w", err)
	}
	defer rows.Close()

	var points []domain.BalancePoint
	for rows.Next() {
		var p domain.BalancePoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("storage.GetBalanceHistory: scan: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
