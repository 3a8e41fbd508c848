// Package predictor provides built-in implementations of the prediction
// contract. They exist so backtests run without an external model server;
// a trained model is expected to beat them.
package predictor

import (
	"context"

	"github.com/adelgado/quantbt/internal/domain"
)

// DefaultLookback is the number of trailing steps Momentum averages.
const DefaultLookback = 4

// Momentum extrapolates the next normalized close from the average step of
// the last Lookback values in the window. Deterministic for a fixed
// lookback.
type Momentum struct {
	Lookback int
}

// NewMomentum creates a Momentum predictor. A non-positive lookback falls
// back to DefaultLookback.
func NewMomentum(lookback int) *Momentum {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if lookback > domain.WindowWidth-1 {
		lookback = domain.WindowWidth - 1
	}
	return &Momentum{Lookback: lookback}
}

// Predict returns the window's last value plus the mean of its trailing
// Lookback steps.
func (m *Momentum) Predict(_ context.Context, w domain.NormalizedWindow) (float64, error) {
	last := w.Values[domain.WindowWidth-1]

	sum := 0.0
	for i := domain.WindowWidth - m.Lookback; i < domain.WindowWidth; i++ {
		sum += w.Values[i] - w.Values[i-1]
	}
	return last + sum/float64(m.Lookback), nil
}
