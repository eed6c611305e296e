package leaderboard

import (
	"context"
	"time"

	"github.com/activebreak/activebreak/internal/domain/shared"
)

// Repository reads leaderboard entries from the score store.
type Repository interface {
	// GetTop returns up to limit entries for the period, ordered by
	// period score descending with last-break-at ascending tiebreak.
	// The returned entries carry 1-based ranks.
	GetTop(ctx context.Context, periodType shared.PeriodType, periodKey string, limit int) ([]Entry, error)
}

// Cache is the optional hot cache in front of the repository. The store
// stays the source of truth; cache failures must degrade to the store.
type Cache interface {
	// GetCachedTop returns the cached entries for a period, or
	// (nil, nil) on a cache miss.
	GetCachedTop(ctx context.Context, periodType shared.PeriodType, periodKey string, limit int) ([]Entry, error)

	// SetCachedTop stores the entries for a period with a TTL.
	SetCachedTop(ctx context.Context, periodType shared.PeriodType, periodKey string, entries []Entry, ttl time.Duration) error

	// Invalidate drops the cached entries for a period.
	Invalidate(ctx context.Context, periodType shared.PeriodType, periodKey string) error
}
