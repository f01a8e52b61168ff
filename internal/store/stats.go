package store

import (
	"context"
	"fmt"
)

// Stats holds database-wide counters for the stats endpoint and
// the import summary line.
type Stats struct {
	SessionCount int     `json:"session_count"`
	UserCount    int     `json:"user_count"`
	SubjectCount int     `json:"subject_count"`
	TotalMinutes int     `json:"total_minutes"`
	FirstSession *string `json:"first_session,omitempty"`
	LastSession  *string `json:"last_session,omitempty"`
}

// GetStats returns aggregate counters over the whole database.
func (st *Store) GetStats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(DISTINCT user_id),
			COUNT(DISTINCT subject),
			COALESCE(SUM(duration_minutes), 0),
			MIN(started_at),
			MAX(started_at)
		FROM study_sessions`

	var s Stats
	err := st.reader.QueryRowContext(ctx, query).Scan(
		&s.SessionCount,
		&s.UserCount,
		&s.SubjectCount,
		&s.TotalMinutes,
		&s.FirstSession,
		&s.LastSession,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("fetching stats: %w", err)
	}
	return s, nil
}
