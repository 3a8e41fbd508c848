// Package engine walks the trading calendar day by day: score every company
// with the predictor, rank, allocate capital under the budget, enforce
// holding-period exits, and record the portfolio value.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adelgado/quantbt/internal/dataset"
	"github.com/adelgado/quantbt/internal/domain"
	"github.com/adelgado/quantbt/internal/ports"
)

// buyThreshold is the secondary purchase filter: a ranked candidate is only
// bought when its normalized delta is below this value. The value and the
// comparison direction are part of the strategy's observed behaviour — do
// not change either without revalidating which companies get bought.
const buyThreshold = 0.2

// Strategy holds the capital and exit parameters of a run.
type Strategy struct {
	// StartBalance is the fixed capital the per-candidate allocation is
	// computed against, and the ledger's opening balance.
	StartBalance float64
	// HoldForDays is the number of calendar days a holding is kept before
	// forced liquidation.
	HoldForDays int
}

// candidate is one company's scored prediction for the current day.
type candidate struct {
	company domain.Company
	window  domain.NormalizedWindow
	pred    float64
}

// normDelta is the ranking signal: predicted normalized value minus the
// window's normalized last close. Lower is a stronger buy signal.
func (c candidate) normDelta() float64 {
	return c.pred - c.window.Target
}

// Engine owns one ledger and one strategy and advances the calendar from
// start to end. A single engine instance must not step concurrently; the
// ledger state of each day feeds the next. Independent engines may run in
// parallel freely.
type Engine struct {
	universe  *domain.Universe
	predictor ports.Predictor
	strategy  Strategy

	date    time.Time
	endDate time.Time

	book           *domain.Book
	balanceHistory []domain.BalancePoint

	workers int
}

// New creates an engine for [start, end). end is exclusive.
func New(u *domain.Universe, p ports.Predictor, strategy Strategy, start, end time.Time) *Engine {
	return &Engine{
		universe:  u,
		predictor: p,
		strategy:  strategy,
		date:      start,
		endDate:   end,
		book:      domain.NewBook(strategy.StartBalance),
		workers:   runtime.NumCPU(),
	}
}

// Date returns the engine's current calendar date.
func (e *Engine) Date() time.Time {
	return e.date
}

// Book returns the engine's ledger.
func (e *Engine) Book() *domain.Book {
	return e.book
}

// BalanceHistory returns the recorded (date, value) series so far.
func (e *Engine) BalanceHistory() []domain.BalancePoint {
	return e.balanceHistory
}

// Run steps the engine until the end date and assembles the run result.
// Per-company faults are skipped; ledger or calendar inconsistencies abort
// with the failing date attached.
func (e *Engine) Run(ctx context.Context) (domain.RunResult, error) {
	start := e.date
	totalDays := int(e.endDate.Sub(start).Hours() / 24)

	for e.date.Before(e.endDate) {
		if err := ctx.Err(); err != nil {
			return domain.RunResult{}, fmt.Errorf("engine.Run: %w", err)
		}
		if err := e.StepDay(ctx); err != nil {
			return domain.RunResult{}, fmt.Errorf("engine.Run: day %s: %w", e.date.Format("2006-01-02"), err)
		}

		if len(e.balanceHistory)%20 == 0 {
			elapsed := int(e.date.Sub(start).Hours() / 24)
			slog.Info("simulation progress",
				"date", e.date.Format("2006-01-02"),
				"days", fmt.Sprintf("%d/%d", elapsed, totalDays),
				"open_holdings", len(e.book.Holdings()),
				"balance", fmt.Sprintf("%.2f", e.book.Balance),
			)
		}
	}

	final := e.strategy.StartBalance
	if n := len(e.balanceHistory); n > 0 {
		final = e.balanceHistory[n-1].Value
	}

	companies := make([]domain.Company, e.universe.Len())
	for i := range e.universe.Companies {
		companies[i] = e.universe.Companies[i].Company()
	}

	return domain.RunResult{
		ID:             uuid.NewString(),
		Start:          start,
		End:            e.endDate,
		StartBalance:   e.strategy.StartBalance,
		FinalValue:     final,
		BalanceHistory: e.balanceHistory,
		History:        e.book.History(),
		Bias:           domain.ComputeCompanyBias(companies, e.book.History(), start, e.endDate),
	}, nil
}

// StepDay executes one daily transition: score → rank → allocate → enforce
// exits → value the portfolio → advance the calendar.
func (e *Engine) StepDay(ctx context.Context) error {
	candidates, err := e.scoreCompanies(ctx)
	if err != nil {
		return err
	}

	// Ascending normalized delta: the most negative delta is the predicted
	// largest relative rise and buys first.
	sort.Slice(candidates, func(i, j int) bool {
		di, dj := candidates[i].normDelta(), candidates[j].normDelta()
		if di != dj {
			return di < dj
		}
		return candidates[i].company.Symbol < candidates[j].company.Symbol
	})

	selections := len(candidates) / 2
	if selections < 1 {
		selections = 1
	}
	if selections > len(candidates) {
		selections = len(candidates)
	}

	for _, c := range candidates[:selections] {
		if err := e.purchase(c, selections); err != nil {
			return err
		}
	}

	if err := e.forcedSells(); err != nil {
		return err
	}

	value, err := e.book.Value(e.universe, e.date)
	if err != nil {
		return err
	}
	e.balanceHistory = append(e.balanceHistory, domain.BalancePoint{Date: e.date, Value: value})

	return e.advanceDate()
}

// scoreCompanies builds an inference window per company as of the current
// date and queries the predictor. Window construction and prediction are
// independent per company, so they fan out across a worker pool; results
// are re-sorted deterministically by the caller, never consumed in
// completion order. Companies with no valid window that day are skipped.
func (e *Engine) scoreCompanies(ctx context.Context) ([]candidate, error) {
	results := make([]*candidate, e.universe.Len())
	errs := make([]error, e.universe.Len())
	idxCh := make(chan int, e.universe.Len())

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				series := &e.universe.Companies[i]
				norm, err := dataset.BuildInferenceWindow(series, e.date)
				if err != nil {
					// no window today: skipped, not an engine fault
					slog.Debug("company skipped", "symbol", series.Symbol, "err", err)
					continue
				}
				pred, err := e.predictor.Predict(ctx, norm)
				if err != nil {
					errs[i] = fmt.Errorf("engine.scoreCompanies: predict %s: %w", series.Symbol, err)
					continue
				}
				results[i] = &candidate{company: series.Company(), window: norm, pred: pred}
			}
		}()
	}
	for i := 0; i < e.universe.Len(); i++ {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var candidates []candidate
	for _, r := range results {
		if r != nil {
			candidates = append(candidates, *r)
		}
	}
	return candidates, nil
}

// purchase allocates an equal-weight slice of the starting balance to one
// candidate and buys when its delta clears the threshold. The ledger clamps
// the quantity if the remaining cash cannot cover it.
func (e *Engine) purchase(c candidate, candidateCount int) error {
	series, ok := e.universe.Find(c.company)
	if !ok {
		return fmt.Errorf("engine.purchase: %s not in universe: %w", c.company.Symbol, domain.ErrInconsistentHistory)
	}
	currentPrice, ok := series.CloseOn(e.date)
	if !ok {
		return fmt.Errorf("engine.purchase: %s has no price on %s: %w",
			c.company.Symbol, e.date.Format("2006-01-02"), domain.ErrInconsistentHistory)
	}

	weight := 1.0 / float64(candidateCount)
	shareCount := int64(math.Floor(e.strategy.StartBalance * weight / currentPrice))

	if c.normDelta() >= buyThreshold {
		return nil
	}

	holding := e.book.NewHolding(c.company, e.date, currentPrice, shareCount)
	e.book.Purchase(holding, currentPrice, e.date)
	return nil
}

// forcedSells liquidates every holding whose hold period has elapsed, at
// the close of the most recent trading bar strictly before the current
// date: locate the first bar on or after today and step back one. Exits are
// evaluated every day whether or not anything was bought.
func (e *Engine) forcedSells() error {
	for _, h := range e.book.Holdings() {
		sellDate := h.PurchaseDate.AddDate(0, 0, e.strategy.HoldForDays)
		if sellDate.After(e.date) {
			continue
		}

		series, ok := e.universe.Find(h.Company)
		if !ok {
			return fmt.Errorf("engine.forcedSells: %s not in universe: %w", h.Company.Symbol, domain.ErrInconsistentHistory)
		}
		idx, ok := series.FirstOnOrAfter(e.date)
		if !ok || idx == 0 {
			return fmt.Errorf("engine.forcedSells: %s has no bar before %s: %w",
				h.Company.Symbol, e.date.Format("2006-01-02"), domain.ErrInconsistentHistory)
		}

		bar := series.Bars[idx-1]
		e.book.Sell(h, bar.Close, bar.Date)
	}
	return nil
}
