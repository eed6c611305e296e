package sqlite

import (
	"context"
	"fmt"

	"github.com/activebreak/activebreak/internal/domain/challenge"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeRepository implements challenge.Repository for SQLite. Challenge
// definitions are seeded by migration and read-only at runtime.
type ChallengeRepository struct {
	conn *Connection
}

// NewChallengeRepository creates a new ChallengeRepository.
func NewChallengeRepository(conn *Connection) *ChallengeRepository {
	return &ChallengeRepository{conn: conn}
}

// ListActive returns the active challenges for one period type.
func (r *ChallengeRepository) ListActive(ctx context.Context, periodType shared.PeriodType) ([]challenge.Challenge, error) {
	query := `
		SELECT id, period_type, name, description, target_type, target_value, reward_xp, active
		FROM challenges
		WHERE period_type = ? AND active = 1
		ORDER BY id ASC
	`

	rows, err := r.conn.db.QueryContext(ctx, query, string(periodType))
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []challenge.Challenge
	for rows.Next() {
		var ch challenge.Challenge
		var pt, targetType string
		var active int

		err := rows.Scan(&ch.ID, &pt, &ch.Name, &ch.Description, &targetType, &ch.TargetValue, &ch.RewardXP, &active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}

		ch.PeriodType = shared.PeriodType(pt)
		ch.TargetType = challenge.TargetType(targetType)
		ch.Active = active != 0
		challenges = append(challenges, ch)
	}

	return challenges, rows.Err()
}
