package domain

import (
	"sort"
	"time"
)

// PriceBar is one daily OHLCV row for a company. Bars are ordered
// chronologically inside a CompanySeries and a date appears at most once.
type PriceBar struct {
	Date          time.Time
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        int64
	AdjustedClose float64
}

// Company identifies a listed company by symbol and exchange.
type Company struct {
	Symbol   string
	Exchange string
}

// Day builds a date at UTC midnight. All bar dates and calendar dates in the
// system are normalized this way so they compare with Equal/Before/After.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CompanySeries is the chronological daily price history of one company.
type CompanySeries struct {
	Symbol   string
	Exchange string
	Bars     []PriceBar
}

// NewCompanySeries creates an empty series for the given listing.
func NewCompanySeries(symbol, exchange string) CompanySeries {
	return CompanySeries{Symbol: symbol, Exchange: exchange}
}

// Company returns the listing identity of the series.
func (s *CompanySeries) Company() Company {
	return Company{Symbol: s.Symbol, Exchange: s.Exchange}
}

// IndexOf returns the position of the bar whose date matches exactly.
func (s *CompanySeries) IndexOf(date time.Time) (int, bool) {
	idx := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(date)
	})
	if idx < len(s.Bars) && s.Bars[idx].Date.Equal(date) {
		return idx, true
	}
	return 0, false
}

// FirstOnOrAfter returns the position of the first bar dated on or after the
// given date.
func (s *CompanySeries) FirstOnOrAfter(date time.Time) (int, bool) {
	idx := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(date)
	})
	if idx < len(s.Bars) {
		return idx, true
	}
	return 0, false
}

// Last returns the most recent bar of the series.
func (s *CompanySeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// CloseOn returns the closing price for the exact date.
func (s *CompanySeries) CloseOn(date time.Time) (float64, bool) {
	idx, ok := s.IndexOf(date)
	if !ok {
		return 0, false
	}
	return s.Bars[idx].Close, true
}

// Universe is the set of company series a backtest runs against. Order is
// the input order and is preserved: training samples are concatenated per
// company in this order.
type Universe struct {
	Companies []CompanySeries
}

// Push appends a series, ignoring entries without a symbol.
func (u *Universe) Push(s CompanySeries) {
	if s.Symbol == "" {
		return
	}
	u.Companies = append(u.Companies, s)
}

// Append moves every series of other into u, keeping order.
func (u *Universe) Append(other Universe) {
	u.Companies = append(u.Companies, other.Companies...)
}

// Find returns the series for the given company identity.
func (u *Universe) Find(c Company) (*CompanySeries, bool) {
	for i := range u.Companies {
		if u.Companies[i].Symbol == c.Symbol && u.Companies[i].Exchange == c.Exchange {
			return &u.Companies[i], true
		}
	}
	return nil, false
}

// Len returns the number of companies in the universe.
func (u *Universe) Len() int {
	return len(u.Companies)
}
