package ports

import (
	"context"

	"github.com/adelgado/quantbt/internal/domain"
)

// Predictor maps a normalized feature window to a predicted normalized next
// value. Implementations must be deterministic for a fixed model; the engine
// does not retry or cache predictions. Calls may be expensive (remote,
// batched inference) and must honor ctx.
type Predictor interface {
	Predict(ctx context.Context, window domain.NormalizedWindow) (float64, error)
}
