package domain

import "fmt"

// WindowWidth is the fixed number of consecutive closing prices in a feature
// window. The predictor contract is defined on this width.
const WindowWidth = 32

// Window is a fixed-length slice of consecutive closing prices paired with a
// target: the close PredictionInterval rows after the window's end when
// training, or the window's own last value as an inert placeholder when
// inferring. Immutable once built.
type Window struct {
	Values [WindowWidth]float64
	Target float64
}

// NewWindow builds a Window from exactly WindowWidth values.
func NewWindow(values []float64, target float64) (Window, error) {
	if len(values) != WindowWidth {
		return Window{}, fmt.Errorf("domain.NewWindow: expected %d values, got %d", WindowWidth, len(values))
	}
	var w Window
	copy(w.Values[:], values)
	w.Target = target
	return w, nil
}

// NormalizedWindow is a Window rescaled to [0,1] via the window's own
// extrema. Min and Max are retained so predictions can be mapped back to
// price space. The target is mapped through the same extrema and may fall
// outside [0,1].
type NormalizedWindow struct {
	Values [WindowWidth]float64
	Target float64
	Min    float64
	Max    float64
}

// Normalize rescales the window with (x - min) / (max - min). A flat window
// has no range to scale by and is rejected with ErrFlatWindow.
func (w Window) Normalize() (NormalizedWindow, error) {
	min, max := w.Values[0], w.Values[0]
	for _, v := range w.Values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return NormalizedWindow{}, ErrFlatWindow
	}

	n := NormalizedWindow{Min: min, Max: max}
	for i, v := range w.Values {
		n.Values[i] = (v - min) / (max - min)
	}
	n.Target = (w.Target - min) / (max - min)
	return n, nil
}

// Denormalize maps a normalized value back to price space. It is the exact
// inverse of the normalization formula up to floating-point tolerance.
func Denormalize(value, min, max float64) float64 {
	return value*(max-min) + min
}
