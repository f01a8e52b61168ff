package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Default goal targets applied when a user has never set goals.
const (
	DefaultDailyGoalMinutes   = 60
	DefaultWeeklyGoalMinutes  = 420
	DefaultMonthlyGoalMinutes = 1800
)

// GoalSettings holds a user's study targets in minutes.
type GoalSettings struct {
	UserID         string `json:"user_id"`
	DailyMinutes   int    `json:"daily_minutes"`
	WeeklyMinutes  int    `json:"weekly_minutes"`
	MonthlyMinutes int    `json:"monthly_minutes"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// DefaultGoals returns the targets used before a user customizes
// them.
func DefaultGoals(userID string) GoalSettings {
	return GoalSettings{
		UserID:         userID,
		DailyMinutes:   DefaultDailyGoalMinutes,
		WeeklyMinutes:  DefaultWeeklyGoalMinutes,
		MonthlyMinutes: DefaultMonthlyGoalMinutes,
	}
}

// GetGoals returns the stored targets for a user, falling back
// to the defaults when none are stored.
func (st *Store) GetGoals(
	ctx context.Context, userID string,
) (GoalSettings, error) {
	row := st.reader.QueryRowContext(ctx,
		`SELECT user_id, daily_minutes, weekly_minutes,
			monthly_minutes, updated_at
		FROM goals WHERE user_id = ?`,
		userID,
	)

	var g GoalSettings
	err := row.Scan(
		&g.UserID, &g.DailyMinutes, &g.WeeklyMinutes,
		&g.MonthlyMinutes, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return DefaultGoals(userID), nil
	}
	if err != nil {
		return GoalSettings{}, fmt.Errorf("getting goals for %s: %w", userID, err)
	}
	return g, nil
}

// SetGoals stores or replaces a user's targets.
func (st *Store) SetGoals(g GoalSettings) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	_, err := st.writer.Exec(`
		INSERT INTO goals (
			user_id, daily_minutes, weekly_minutes, monthly_minutes,
			updated_at
		) VALUES (?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(user_id) DO UPDATE SET
			daily_minutes = excluded.daily_minutes,
			weekly_minutes = excluded.weekly_minutes,
			monthly_minutes = excluded.monthly_minutes,
			updated_at = excluded.updated_at`,
		g.UserID, g.DailyMinutes, g.WeeklyMinutes, g.MonthlyMinutes,
	)
	if err != nil {
		return fmt.Errorf("setting goals for %s: %w", g.UserID, err)
	}
	return nil
}
