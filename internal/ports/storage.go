package ports

import (
	"context"

	"github.com/adelgado/quantbt/internal/domain"
)

// RunStorage persists finished backtest runs.
type RunStorage interface {
	// SaveRun persists the run header, balance history, transaction log and
	// bias matrix in one transaction.
	SaveRun(ctx context.Context, run domain.RunResult) error

	// GetRuns returns the headers of past runs, newest first.
	GetRuns(ctx context.Context) ([]domain.RunSummary, error)

	// GetBalanceHistory returns the daily balance series of one run.
	GetBalanceHistory(ctx context.Context, runID string) ([]domain.BalancePoint, error)

	// Close releases the underlying database.
	Close() error
}
