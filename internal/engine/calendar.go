package engine

import (
	"fmt"
	"time"
)

// NextTradingDay advances one calendar day and skips the weekend: when the
// next day lands on Saturday it jumps two more days, on Sunday one more.
// The result is always strictly after date.
func NextTradingDay(date time.Time) time.Time {
	next := date.AddDate(0, 0, 1)
	switch next.Weekday() {
	case time.Saturday:
		next = next.AddDate(0, 0, 2)
	case time.Sunday:
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// advanceDate moves the engine to the next trading day. A date that fails to
// move forward is a logic defect and aborts the run.
func (e *Engine) advanceDate() error {
	next := NextTradingDay(e.date)
	if !next.After(e.date) {
		return fmt.Errorf("engine.advanceDate: calendar stalled at %s", e.date.Format("2006-01-02"))
	}
	e.date = next
	return nil
}
