package dataset_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adelgado/quantbt/internal/dataset"
	"github.com/adelgado/quantbt/internal/domain"
)

// rampSeries builds rows of strictly increasing closes, one per weekday.
func rampSeries(symbol string, start float64, rows int) domain.CompanySeries {
	s := domain.NewCompanySeries(symbol, "nasdaq")
	date := domain.Day(2020, time.March, 2) // a Monday
	for i := 0; i < rows; i++ {
		s.Bars = append(s.Bars, domain.PriceBar{Date: date, Close: start + float64(i)})
		date = nextWeekday(date)
	}
	return s
}

func flatSeries(symbol string, close float64, rows int) domain.CompanySeries {
	s := domain.NewCompanySeries(symbol, "nasdaq")
	date := domain.Day(2020, time.March, 2)
	for i := 0; i < rows; i++ {
		s.Bars = append(s.Bars, domain.PriceBar{Date: date, Close: close})
		date = nextWeekday(date)
	}
	return s
}

func nextWeekday(date time.Time) time.Time {
	date = date.AddDate(0, 0, 1)
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

func TestBuildTrainingWindows_SampleCount(t *testing.T) {
	u := &domain.Universe{}
	u.Push(rampSeries("ACME", 100, 40))

	items := dataset.BuildTrainingWindows(u, 1, 1)

	// one sample per offset: 40 - 32 - 1 = 7
	assert.Len(t, items, 7)
}

func TestBuildTrainingWindows_TargetOffset(t *testing.T) {
	u := &domain.Universe{}
	u.Push(rampSeries("ACME", 100, 40))

	items := dataset.BuildTrainingWindows(u, 1, 1)
	require.NotEmpty(t, items)

	// first window covers closes 100..131; its target is row 33 = 133
	first := items[0]
	assert.InDelta(t, 100.0, domain.Denormalize(first.Values[0], first.Min, first.Max), 1e-9)
	assert.InDelta(t, 131.0, domain.Denormalize(first.Values[domain.WindowWidth-1], first.Min, first.Max), 1e-9)
	assert.InDelta(t, 133.0, domain.Denormalize(first.Target, first.Min, first.Max), 1e-9)
}

func TestBuildTrainingWindows_ShortHistoryContributesNothing(t *testing.T) {
	u := &domain.Universe{}
	// minimum is 32 + interval + 1 = 34 rows
	u.Push(rampSeries("ACME", 100, 33))

	assert.Empty(t, dataset.BuildTrainingWindows(u, 1, 1))
}

func TestBuildTrainingWindows_FlatHistoryContributesNothing(t *testing.T) {
	u := &domain.Universe{}
	u.Push(flatSeries("FLAT", 100, 60))

	assert.Empty(t, dataset.BuildTrainingWindows(u, 1, 1))
}

func TestBuildTrainingWindows_CompaniesConcatenatedInOrder(t *testing.T) {
	u := &domain.Universe{}
	u.Push(rampSeries("AAA", 100, 40))
	u.Push(rampSeries("BBB", 500, 40))

	items := dataset.BuildTrainingWindows(u, 1, 1)
	require.Len(t, items, 14)

	// AAA's samples come first: denormalized first value is in AAA's range
	firstAAA := domain.Denormalize(items[0].Values[0], items[0].Min, items[0].Max)
	firstBBB := domain.Denormalize(items[7].Values[0], items[7].Min, items[7].Max)
	assert.InDelta(t, 100.0, firstAAA, 1e-9)
	assert.InDelta(t, 500.0, firstBBB, 1e-9)
}

func TestBuildTrainingWindows_ParallelMatchesSequential(t *testing.T) {
	u := &domain.Universe{}
	u.Push(rampSeries("AAA", 100, 60))
	u.Push(rampSeries("BBB", 500, 45))
	u.Push(flatSeries("FLAT", 10, 60))
	u.Push(rampSeries("CCC", 900, 80))

	sequential := dataset.BuildTrainingWindows(u, 2, 1)
	parallel := dataset.BuildTrainingWindows(u, 2, 8)

	assert.Equal(t, sequential, parallel)
}

func TestSplit_Positional(t *testing.T) {
	u := &domain.Universe{}
	u.Push(rampSeries("ACME", 100, 75)) // 75-32-1 = 42 samples

	items := dataset.BuildTrainingWindows(u, 1, 1)
	require.Len(t, items, 42)

	train, validation := dataset.Split(items, 0.9)

	assert.Len(t, train, 37) // floor(42 * 0.9)
	assert.Len(t, validation, 5)
	// positional: the first validation sample follows the last train sample
	assert.Equal(t, items[37], validation[0])
	assert.Equal(t, items[36], train[36])
}
