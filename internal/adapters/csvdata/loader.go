// Package csvdata loads daily price history from per-exchange CSV dumps
// laid out as <dir>/<exchange>/csv/<SYMBOL>.csv.
//
// The dumps are scraped and dirty: rows with a wrong field count, empty
// price fields (days the stock did not trade), malformed dates, and volumes
// written as "1234.0" all occur. Recoverable defects skip the row; a field
// that should parse but does not fails the load.
package csvdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adelgado/quantbt/internal/domain"
)

const dateLayout = "02-01-2006"

// Loader reads a configured universe from a data directory.
type Loader struct {
	dir string
	// universe maps exchange directory name to the symbols to load.
	// The special symbol "all" expands to every CSV file of the exchange.
	universe map[string][]string
}

// NewLoader creates a Loader rooted at dir for the given universe.
func NewLoader(dir string, universe map[string][]string) *Loader {
	return &Loader{dir: dir, universe: universe}
}

// LoadUniverse reads every configured company's history restricted to
// [start, end]. Exchanges are walked in sorted name order so the universe
// order — and with it the training-sample concatenation order — is stable
// across runs.
func (l *Loader) LoadUniverse(ctx context.Context, start, end time.Time) (*domain.Universe, error) {
	exchanges := make([]string, 0, len(l.universe))
	for exchange := range l.universe {
		exchanges = append(exchanges, exchange)
	}
	sort.Strings(exchanges)

	u := &domain.Universe{}
	for _, exchange := range exchanges {
		symbols, err := l.expandSymbols(exchange)
		if err != nil {
			return nil, err
		}

		for _, symbol := range symbols {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("csvdata.LoadUniverse: %w", err)
			}
			series, err := l.loadCompany(exchange, symbol, start, end)
			if err != nil {
				return nil, err
			}
			u.Push(series)
		}
		slog.Info("exchange loaded", "exchange", exchange, "companies", len(symbols))
	}
	return u, nil
}

// expandSymbols resolves the configured symbol list, expanding "all" to the
// exchange's full directory listing.
func (l *Loader) expandSymbols(exchange string) ([]string, error) {
	var symbols []string
	for _, symbol := range l.universe[exchange] {
		if symbol != "all" {
			symbols = append(symbols, symbol)
			continue
		}

		dir := filepath.Join(l.dir, exchange, "csv")
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("csvdata.expandSymbols: list %q: %w", dir, err)
		}
		symbols = symbols[:0]
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasSuffix(name, ".csv") {
				symbols = append(symbols, strings.TrimSuffix(name, ".csv"))
			}
		}
		break
	}
	return symbols, nil
}

func (l *Loader) loadCompany(exchange, symbol string, start, end time.Time) (domain.CompanySeries, error) {
	path := filepath.Join(l.dir, exchange, "csv", symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return domain.CompanySeries{}, fmt.Errorf("csvdata.loadCompany: %w", err)
	}
	defer f.Close()

	series := domain.NewCompanySeries(symbol, exchange)
	series.Bars, err = parseBars(f, symbol, start, end)
	if err != nil {
		return domain.CompanySeries{}, fmt.Errorf("csvdata.loadCompany: %s: %w", path, err)
	}
	return series, nil
}

// parseBars reads one company's CSV. Column order in the dumps is:
// date, low, open, volume, high, close, adjusted close — with a header row.
func parseBars(r io.Reader, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // malformed rows are handled per record

	var bars []domain.PriceBar
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		row++
		if row == 1 {
			// header
			continue
		}

		if len(record) != 7 {
			slog.Warn("skipping record with wrong field count", "symbol", symbol, "row", row, "fields", len(record))
			continue
		}
		// day the stock did not trade
		if record[1] == "" {
			continue
		}
		if len(record[0]) != 10 {
			slog.Warn("skipping record with malformed date", "symbol", symbol, "row", row, "date", record[0])
			continue
		}

		bar, err := parseBar(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBar(record []string) (domain.PriceBar, error) {
	date, err := time.Parse(dateLayout, record[0])
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parse date %q: %w", record[0], err)
	}

	low, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parse low %q: %w", record[1], err)
	}
	open, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parse open %q: %w", record[2], err)
	}

	// volumes are whole numbers but sometimes carry a ".0" suffix
	volume, err := strconv.ParseInt(strings.SplitN(record[3], ".", 2)[0], 10, 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parse volume %q: %w", record[3], err)
	}

	high, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parse high %q: %w", record[4], err)
	}
	closePrice, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parse close %q: %w", record[5], err)
	}
	adjClose, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("parse adjusted close %q: %w", record[6], err)
	}

	return domain.PriceBar{
		Date:          date.UTC(),
		Open:          open,
		High:          high,
		Low:           low,
		Close:         closePrice,
		Volume:        volume,
		AdjustedClose: adjClose,
	}, nil
}
