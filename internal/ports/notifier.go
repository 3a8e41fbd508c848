package ports

import (
	"context"

	"github.com/adelgado/quantbt/internal/domain"
)

// Notifier presents a finished run to the user. The console implementation
// prints formatted tables; plotting frontends consume the same RunResult.
type Notifier interface {
	Report(ctx context.Context, run domain.RunResult) error
}
