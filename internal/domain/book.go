package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Side is the direction of a ledger transaction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Holding is a position of shares in one company. Identity is assigned by
// the owning Book at creation and never changes.
type Holding struct {
	ID            int64
	Company       Company
	PurchaseDate  time.Time
	PurchasePrice float64
	Count         int64
	SalePrice     float64
	Sold          bool
}

// Value is the worth of the holding at the given price.
func (h Holding) Value(price float64) float64 {
	return float64(h.Count) * price
}

// PurchaseValue is the capital spent to open the holding.
func (h Holding) PurchaseValue() float64 {
	return float64(h.Count) * h.PurchasePrice
}

// Transaction records one ledger action with a snapshot of the holding at
// the time it happened. Transactions are immutable once appended.
type Transaction struct {
	Side    Side
	Holding Holding
	Date    time.Time
}

// Book is the portfolio ledger: cash balance, the set of open holdings keyed
// by identity, and an append-only transaction history. Purchases are clamped
// to affordability so the balance can never go negative. Only the simulation
// engine mutates a Book, one day at a time.
type Book struct {
	Balance float64

	holdings map[int64]Holding
	history  []Transaction
	nextID   int64
}

// NewBook creates a ledger with the given starting balance.
func NewBook(balance float64) *Book {
	return &Book{
		Balance:  balance,
		holdings: make(map[int64]Holding),
	}
}

// NewHolding creates a holding with the next sequential identity. Ids are
// issued per Book so runs are deterministic and never collide.
func (b *Book) NewHolding(c Company, purchaseDate time.Time, purchasePrice float64, count int64) Holding {
	id := b.nextID
	b.nextID++
	return Holding{
		ID:            id,
		Company:       c,
		PurchaseDate:  purchaseDate,
		PurchasePrice: purchasePrice,
		Count:         count,
	}
}

// Purchase debits the balance and opens the holding. A zero-count holding is
// a no-op. When the balance cannot cover the full quantity, the count is
// clamped to floor(balance/price) and the purchase retried once — the
// clamped quantity is affordable by construction, or zero and dropped.
func (b *Book) Purchase(h Holding, currentPrice float64, date time.Time) {
	if h.Count == 0 {
		return
	}

	if b.Balance < h.Value(currentPrice) {
		h.Count = int64(math.Floor(b.Balance / currentPrice))
		if h.Count == 0 {
			return
		}
	}

	b.Balance -= h.Value(currentPrice)
	b.holdings[h.ID] = h
	b.history = append(b.history, Transaction{Side: SideBuy, Holding: h, Date: date})
}

// Sell credits the balance with count*price, removes the holding from the
// open set by identity, and appends a Sell transaction carrying the sale
// price and date.
func (b *Book) Sell(h Holding, currentPrice float64, date time.Time) {
	h.SalePrice = currentPrice
	h.Sold = true
	b.Balance += h.Value(currentPrice)
	delete(b.holdings, h.ID)
	b.history = append(b.history, Transaction{Side: SideSell, Holding: h, Date: date})
}

// Holdings returns the open holdings ordered by identity.
func (b *Book) Holdings() []Holding {
	out := make([]Holding, 0, len(b.holdings))
	for _, h := range b.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// History returns the transaction log in append order.
func (b *Book) History() []Transaction {
	return b.history
}

// Value returns the balance plus every open holding valued at its company's
// close on the first bar dated on or after asOf. When no such bar exists the
// last known close is used only if asOf is strictly past the company's last
// recorded date; otherwise the calendar has advanced into a gap the history
// does not cover and the run must abort.
func (b *Book) Value(u *Universe, asOf time.Time) (float64, error) {
	value := b.Balance
	for _, h := range b.Holdings() {
		series, ok := u.Find(h.Company)
		if !ok {
			return 0, fmt.Errorf("domain.Book.Value: %s/%s not in universe: %w",
				h.Company.Exchange, h.Company.Symbol, ErrInconsistentHistory)
		}

		if idx, ok := series.FirstOnOrAfter(asOf); ok {
			value += h.Value(series.Bars[idx].Close)
			continue
		}

		last, ok := series.Last()
		if !ok || !asOf.After(last.Date) {
			return 0, fmt.Errorf("domain.Book.Value: no price for %s on or after %s: %w",
				h.Company.Symbol, asOf.Format("2006-01-02"), ErrInconsistentHistory)
		}
		value += h.Value(last.Close)
	}
	return value, nil
}
