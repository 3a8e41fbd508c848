// Package notify renders finished runs for humans. The console
// implementation prints the run summary, the transaction tail, and the
// monthly purchase-bias matrix as tables.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/adelgado/quantbt/internal/domain"
)

const (
	balanceTailRows     = 15
	transactionTailRows = 20
)

// Console implements ports.Notifier on a writer.
type Console struct {
	out io.Writer
}

// NewConsole creates a Console that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a Console for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Report prints the run summary, the balance-history tail, the transaction
// tail, the holding-duration timeline and the company bias matrix.
func (c *Console) Report(_ context.Context, run domain.RunResult) error {
	fmt.Fprintf(c.out, "\n=== BACKTEST %s → %s (%d trading days) ===\n",
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"), run.Days())
	fmt.Fprintf(c.out, "start balance: $%.2f  final value: $%.2f  return: %+.2f%%\n",
		run.StartBalance, run.FinalValue, run.TotalReturn()*100)

	c.printBalanceTail(run.BalanceHistory)
	c.printTransactionTail(run.History)
	c.printDurations(run.History)
	c.printBias(run.Bias)
	return nil
}

func (c *Console) printBalanceTail(history []domain.BalancePoint) {
	if len(history) == 0 {
		return
	}
	tail := history
	if len(tail) > balanceTailRows {
		tail = tail[len(tail)-balanceTailRows:]
	}

	fmt.Fprintf(c.out, "\n--- balance history (last %d days) ---\n", len(tail))
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Value")
	for _, p := range tail {
		table.Append(p.Date.Format("2006-01-02"), fmt.Sprintf("$%.2f", p.Value))
	}
	table.Render()
}

func (c *Console) printTransactionTail(history []domain.Transaction) {
	if len(history) == 0 {
		fmt.Fprintln(c.out, "\nno transactions")
		return
	}
	tail := history
	if len(tail) > transactionTailRows {
		tail = tail[len(tail)-transactionTailRows:]
	}

	fmt.Fprintf(c.out, "\n--- transactions (last %d of %d) ---\n", len(tail), len(history))
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Side", "Symbol", "Count", "Price", "Value")
	for _, tx := range tail {
		price := tx.Holding.PurchasePrice
		if tx.Side == domain.SideSell {
			price = tx.Holding.SalePrice
		}
		table.Append(
			tx.Date.Format("2006-01-02"),
			string(tx.Side),
			tx.Holding.Company.Symbol,
			fmt.Sprintf("%d", tx.Holding.Count),
			fmt.Sprintf("$%.2f", price),
			fmt.Sprintf("$%.2f", tx.Holding.Value(price)),
		)
	}
	table.Render()
}

func (c *Console) printDurations(history []domain.Transaction) {
	durations := domain.HoldingDurations(history)
	if len(durations) == 0 {
		return
	}

	max := durations[0]
	sum := 0
	for _, d := range durations {
		sum += d
	}
	fmt.Fprintf(c.out, "\nholdings: %d  longest held: %dd  avg held: %.1fd\n",
		len(durations), max, float64(sum)/float64(len(durations)))
}

func (c *Console) printBias(biases []domain.CompanyBias) {
	if len(biases) == 0 || len(biases[0].Windows) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n--- monthly purchase bias ($ bought per company and month) ---\n")
	header := []string{"Symbol"}
	for _, w := range biases[0].Windows {
		header = append(header, monthLabel(w.Year, w.Month))
	}

	table := tablewriter.NewWriter(c.out)
	table.Header(asCells(header)...)
	for _, cb := range biases {
		row := []string{cb.Company.Symbol}
		for _, v := range cb.Values() {
			if v == 0 {
				row = append(row, "-")
			} else {
				row = append(row, fmt.Sprintf("%.0f", v))
			}
		}
		table.Append(asCells(row)...)
	}
	table.Render()
}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s%02d", month.String()[:3], year%100)
}

func asCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
