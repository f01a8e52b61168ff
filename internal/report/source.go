package report

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/studyview/studyview/internal/analytics"
	"github.com/studyview/studyview/internal/store"
	"github.com/studyview/studyview/internal/timeutil"
)

// SessionSource yields a user's validated sessions over the
// half-open instant range [from, to).
type SessionSource interface {
	SessionsFor(ctx context.Context, userID string, from, to time.Time) ([]analytics.Session, error)
}

// GoalTargets are the study targets used for progress reporting.
type GoalTargets struct {
	DailyMinutes   int
	WeeklyMinutes  int
	MonthlyMinutes int
}

// GoalSource yields a user's goal targets.
type GoalSource interface {
	GoalsFor(ctx context.Context, userID string) (GoalTargets, error)
}

// StoreSource adapts the SQLite store to the report interfaces.
// Rows that fail validation are skipped with a logged warning so
// one bad record cannot take down a whole report.
type StoreSource struct {
	Store *store.Store
}

// SessionsFor loads and normalizes the user's sessions starting
// in [from, to).
func (s *StoreSource) SessionsFor(ctx context.Context, userID string, from, to time.Time) ([]analytics.Session, error) {
	rows, err := s.Store.ListSessions(ctx, store.SessionFilter{
		UserID: userID,
		From:   timeutil.Format(from),
		To:     timeutil.Format(to),
	})
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	out := make([]analytics.Session, 0, len(rows))
	for _, row := range rows {
		sess, err := toAnalyticsSession(row)
		if err != nil {
			log.Printf("report: skipping session %s: %v", row.ID, err)
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

// GoalsFor loads the user's goal targets, falling back to
// defaults for users who never set any.
func (s *StoreSource) GoalsFor(ctx context.Context, userID string) (GoalTargets, error) {
	g, err := s.Store.GetGoals(ctx, userID)
	if err != nil {
		return GoalTargets{}, fmt.Errorf("loading goals: %w", err)
	}
	return GoalTargets{
		DailyMinutes:   g.DailyMinutes,
		WeeklyMinutes:  g.WeeklyMinutes,
		MonthlyMinutes: g.MonthlyMinutes,
	}, nil
}

// toAnalyticsSession converts a stored row into a validated,
// normalized session.
func toAnalyticsSession(row store.StudySession) (analytics.Session, error) {
	start, err := timeutil.Parse(row.StartedAt)
	if err != nil {
		return analytics.Session{}, fmt.Errorf("bad started_at %q: %w", row.StartedAt, err)
	}
	var end time.Time
	if row.EndedAt != nil {
		end, err = timeutil.Parse(*row.EndedAt)
		if err != nil {
			return analytics.Session{}, fmt.Errorf("bad ended_at %q: %w", *row.EndedAt, err)
		}
	}
	sess := analytics.Session{
		ID:           row.ID,
		UserID:       row.UserID,
		Start:        start,
		End:          end,
		Minutes:      row.Minutes,
		Subject:      row.Subject,
		Tags:         row.Tags,
		Satisfaction: row.Satisfaction,
	}
	if err := analytics.Validate(sess); err != nil {
		return analytics.Session{}, err
	}
	return analytics.Normalize(sess), nil
}
