package dataset

import (
	"fmt"
	"time"

	"github.com/adelgado/quantbt/internal/domain"
)

// BuildInferenceWindow builds the feature window for one company as of a
// reference date: the domain.WindowWidth closes strictly before that date's
// bar, normalized.
//
// The window's target is NOT a future value — it is the window's own last
// close, kept as a placeholder so the shape matches training windows and
// the last close stays available for the normalized-delta score. It is
// never fed to the predictor and must stay inert downstream.
//
// The company is rejected with ErrMissingInferenceData when the reference
// date has no bar, when fewer than WindowWidth bars precede it, or when the
// reference bar is the last of the series.
func BuildInferenceWindow(s *domain.CompanySeries, refDate time.Time) (domain.NormalizedWindow, error) {
	idx, ok := s.IndexOf(refDate)
	if !ok {
		return domain.NormalizedWindow{}, fmt.Errorf("dataset.BuildInferenceWindow: %s has no bar on %s: %w",
			s.Symbol, refDate.Format("2006-01-02"), domain.ErrMissingInferenceData)
	}
	if idx < domain.WindowWidth || idx+1 >= len(s.Bars) {
		return domain.NormalizedWindow{}, fmt.Errorf("dataset.BuildInferenceWindow: %s history too short around %s: %w",
			s.Symbol, refDate.Format("2006-01-02"), domain.ErrMissingInferenceData)
	}

	closes := make([]float64, domain.WindowWidth)
	for i := 0; i < domain.WindowWidth; i++ {
		closes[i] = s.Bars[idx-domain.WindowWidth+i].Close
	}

	w, err := domain.NewWindow(closes, closes[domain.WindowWidth-1])
	if err != nil {
		return domain.NormalizedWindow{}, err
	}
	return w.Normalize()
}
