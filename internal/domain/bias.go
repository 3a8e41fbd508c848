package domain

import "time"

// BiasWindow is one calendar-month bucket holding the purchase capital
// attributed to a company in that month.
type BiasWindow struct {
	Year  int
	Month time.Month
	Bias  float64
}

// CompanyBias is the monthly purchase attribution of one company over a
// reporting range. Months with no purchases stay at zero rather than being
// omitted, so every company row has the same column count.
type CompanyBias struct {
	Company Company
	Windows []BiasWindow
}

// NewCompanyBias creates zeroed monthly buckets for every calendar month
// between start (inclusive) and end (exclusive).
func NewCompanyBias(c Company, start, end time.Time) CompanyBias {
	cb := CompanyBias{Company: c}
	curr := Day(start.Year(), start.Month(), 1)
	for curr.Before(end) {
		cb.Windows = append(cb.Windows, BiasWindow{Year: curr.Year(), Month: curr.Month()})
		curr = curr.AddDate(0, 1, 0)
	}
	return cb
}

// Values returns the bucket values in month order, for matrix-style output.
func (cb CompanyBias) Values() []float64 {
	out := make([]float64, len(cb.Windows))
	for i, w := range cb.Windows {
		out[i] = w.Bias
	}
	return out
}

// ComputeCompanyBias folds every Buy transaction's purchase value into the
// bucket matching its company and (year, month). Sell transactions do not
// contribute to attribution. The result is a dense companies × months
// matrix in input company order.
func ComputeCompanyBias(companies []Company, history []Transaction, start, end time.Time) []CompanyBias {
	biases := make([]CompanyBias, len(companies))
	for i, c := range companies {
		biases[i] = NewCompanyBias(c, start, end)
	}

	for _, tx := range history {
		if tx.Side != SideBuy {
			continue
		}
		year, month := tx.Date.Year(), tx.Date.Month()
		for i := range biases {
			if biases[i].Company != tx.Holding.Company {
				continue
			}
			for j := range biases[i].Windows {
				w := &biases[i].Windows[j]
				if w.Year == year && w.Month == month {
					w.Bias += tx.Holding.PurchaseValue()
				}
			}
		}
	}

	return biases
}
