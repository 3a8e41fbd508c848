package ports

import (
	"context"
	"time"

	"github.com/adelgado/quantbt/internal/domain"
)

// PriceSource loads daily price history for a configured universe of
// companies, restricted to [start, end].
type PriceSource interface {
	LoadUniverse(ctx context.Context, start, end time.Time) (*domain.Universe, error)
}
