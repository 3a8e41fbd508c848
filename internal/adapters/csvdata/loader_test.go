package csvdata_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adelgado/quantbt/internal/adapters/csvdata"
	"github.com/adelgado/quantbt/internal/domain"
)

const header = "Date,Low,Open,Volume,High,Close,Adjusted Close\n"

func writeCSV(t *testing.T, dir, exchange, symbol, content string) {
	t.Helper()
	path := filepath.Join(dir, exchange, "csv")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, symbol+".csv"), []byte(content), 0o644))
}

func loadRange() (time.Time, time.Time) {
	return domain.Day(2020, time.January, 1), domain.Day(2020, time.December, 31)
}

func TestLoader_ParsesRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "nasdaq", "ACME", header+
		"02-03-2020,9.5,10.1,1200,10.9,10.5,10.4\n"+
		"03-03-2020,10.0,10.6,900.0,11.2,11.0,10.9\n")

	loader := csvdata.NewLoader(dir, map[string][]string{"nasdaq": {"ACME"}})
	start, end := loadRange()

	u, err := loader.LoadUniverse(context.Background(), start, end)
	require.NoError(t, err)
	require.Equal(t, 1, u.Len())

	s := u.Companies[0]
	assert.Equal(t, "ACME", s.Symbol)
	assert.Equal(t, "nasdaq", s.Exchange)
	require.Len(t, s.Bars, 2)

	bar := s.Bars[0]
	assert.Equal(t, domain.Day(2020, time.March, 2), bar.Date)
	assert.Equal(t, 9.5, bar.Low)
	assert.Equal(t, 10.1, bar.Open)
	assert.Equal(t, int64(1200), bar.Volume)
	assert.Equal(t, 10.9, bar.High)
	assert.Equal(t, 10.5, bar.Close)
	assert.Equal(t, 10.4, bar.AdjustedClose)

	// "900.0" volume parses as 900
	assert.Equal(t, int64(900), s.Bars[1].Volume)
}

func TestLoader_SkipsDirtyRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "nasdaq", "ACME", header+
		"02-03-2020,9.5,10.1,1200,10.9,10.5,10.4\n"+
		"03-03-2020,,,,,,\n"+ // non-traded day: empty low
		"4-3-2020,10.0,10.6,900,11.2,11.0,10.9\n"+ // malformed date
		"05-03-2020,10.1\n"+ // wrong field count
		"06-03-2020,10.2,10.8,1100,11.4,11.1,11.0\n")

	loader := csvdata.NewLoader(dir, map[string][]string{"nasdaq": {"ACME"}})
	start, end := loadRange()

	u, err := loader.LoadUniverse(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, u.Companies[0].Bars, 2)
	assert.Equal(t, domain.Day(2020, time.March, 6), u.Companies[0].Bars[1].Date)
}

func TestLoader_FiltersDateRange(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "nasdaq", "ACME", header+
		"30-12-2019,9,9,100,9,9,9\n"+
		"02-03-2020,9.5,10.1,1200,10.9,10.5,10.4\n"+
		"04-01-2021,12,12,100,12,12,12\n")

	loader := csvdata.NewLoader(dir, map[string][]string{"nasdaq": {"ACME"}})
	start, end := loadRange()

	u, err := loader.LoadUniverse(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, u.Companies[0].Bars, 1)
	assert.Equal(t, domain.Day(2020, time.March, 2), u.Companies[0].Bars[0].Date)
}

func TestLoader_UnparseablePriceFails(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "nasdaq", "ACME", header+
		"02-03-2020,abc,10.1,1200,10.9,10.5,10.4\n")

	loader := csvdata.NewLoader(dir, map[string][]string{"nasdaq": {"ACME"}})
	start, end := loadRange()

	_, err := loader.LoadUniverse(context.Background(), start, end)
	assert.Error(t, err)
}

func TestLoader_AllExpandsDirectory(t *testing.T) {
	dir := t.TempDir()
	row := "02-03-2020,9.5,10.1,1200,10.9,10.5,10.4\n"
	writeCSV(t, dir, "nyse", "AAA", header+row)
	writeCSV(t, dir, "nyse", "BBB", header+row)

	loader := csvdata.NewLoader(dir, map[string][]string{"nyse": {"all"}})
	start, end := loadRange()

	u, err := loader.LoadUniverse(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Len())
}

func TestLoader_MissingFileFails(t *testing.T) {
	loader := csvdata.NewLoader(t.TempDir(), map[string][]string{"nasdaq": {"NOPE"}})
	start, end := loadRange()

	_, err := loader.LoadUniverse(context.Background(), start, end)
	assert.Error(t, err)
}
