package domain

import (
	"sort"
	"time"
)

// BalancePoint is the portfolio value at the end of one simulated day.
type BalancePoint struct {
	Date  time.Time
	Value float64
}

// RunResult is everything a finished backtest produced: the daily balance
// series, the full transaction log, and the monthly purchase attribution.
type RunResult struct {
	ID           string
	Start        time.Time
	End          time.Time
	StartBalance float64
	FinalValue   float64

	BalanceHistory []BalancePoint
	History        []Transaction
	Bias           []CompanyBias
}

// TotalReturn is the run's return relative to the starting balance.
func (r RunResult) TotalReturn() float64 {
	if r.StartBalance == 0 {
		return 0
	}
	return (r.FinalValue - r.StartBalance) / r.StartBalance
}

// Days is the number of simulated trading days.
func (r RunResult) Days() int {
	return len(r.BalanceHistory)
}

// RunSummary is the persisted header of a past run.
type RunSummary struct {
	ID           string
	Start        time.Time
	End          time.Time
	StartBalance float64
	FinalValue   float64
	CreatedAt    time.Time
}

// HoldingDurations returns, for every Buy with a matching Sell, the number
// of calendar days the position was held, sorted longest first. Buys still
// open count as zero.
func HoldingDurations(history []Transaction) []int {
	saleDates := make(map[int64]time.Time)
	for _, tx := range history {
		if tx.Side == SideSell {
			saleDates[tx.Holding.ID] = tx.Date
		}
	}

	var days []int
	for _, tx := range history {
		if tx.Side != SideBuy {
			continue
		}
		sold, ok := saleDates[tx.Holding.ID]
		if !ok {
			days = append(days, 0)
			continue
		}
		days = append(days, int(sold.Sub(tx.Date).Hours()/24))
	}

	sort.Sort(sort.Reverse(sort.IntSlice(days)))
	return days
}
