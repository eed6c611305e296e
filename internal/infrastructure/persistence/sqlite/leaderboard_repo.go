package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/activebreak/activebreak/internal/domain/leaderboard"
	"github.com/activebreak/activebreak/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for SQLite.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// GetTop returns the ranked entries for one period. Progress joins in as an
// outer join: a user with period scores but no completed-break progress row
// yet keeps NULL level and total XP.
func (r *LeaderboardRepository) GetTop(ctx context.Context, periodType shared.PeriodType, periodKey string, limit int) ([]leaderboard.Entry, error) {
	query := `
		SELECT s.user_id, u.full_name, u.org_name, p.level, p.total_xp,
			   s.total_score, s.breaks_count, s.last_break_at
		FROM game_scores s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN user_progress p ON p.user_id = s.user_id
		WHERE s.period_type = ? AND s.period_key = ?
		ORDER BY s.total_score DESC, s.last_break_at ASC
		LIMIT ?
	`

	rows, err := r.conn.db.QueryContext(ctx, query, string(periodType), periodKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []leaderboard.Entry
	for rows.Next() {
		var e leaderboard.Entry
		var level, totalXP sql.NullInt64
		var lastBreakAt int64

		err := rows.Scan(
			&e.UserID,
			&e.FullName,
			&e.OrgName,
			&level,
			&totalXP,
			&e.PeriodScore,
			&e.BreaksCount,
			&lastBreakAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}

		if level.Valid {
			lv := int(level.Int64)
			e.Level = &lv
		}
		if totalXP.Valid {
			xp := totalXP.Int64
			e.TotalXP = &xp
		}
		e.LastBreakAt = fromMillis(lastBreakAt)
		e.Rank = leaderboard.Rank(len(entries) + 1)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
