package challenge

import (
	"context"

	"github.com/activebreak/activebreak/internal/domain/shared"
)

// Repository reads challenge definitions.
type Repository interface {
	// ListActive returns the active challenges for a period type.
	ListActive(ctx context.Context, periodType shared.PeriodType) ([]Challenge, error)
}
