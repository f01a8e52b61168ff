// Package analytics turns study-session records into derived
// reports: daily and weekly aggregates, monthly trends, a
// consistency score, productivity metrics, and period-over-period
// comparisons. All functions are pure; callers fetch sessions,
// pick a timezone, and receive deterministic results.
package analytics

import (
	"fmt"
	"time"
)

// UncategorizedSubject is the label applied to sessions recorded
// without a subject so they still participate in breakdowns.
const UncategorizedSubject = "uncategorized"

// Session is one validated study session. Start and End are
// instants (stored in UTC); Minutes is the recorded duration.
type Session struct {
	ID           string
	UserID       string
	Start        time.Time
	End          time.Time
	Minutes      int
	Subject      string
	Tags         []string
	Satisfaction *int // 1-5 self-reported rating, nil when absent
}

// Validate reports why a session cannot participate in
// aggregation. Callers exclude invalid sessions with a logged
// warning instead of failing the whole report.
func Validate(s Session) error {
	if s.ID == "" {
		return fmt.Errorf("missing session id")
	}
	if s.Start.IsZero() {
		return fmt.Errorf("session %s: missing start time", s.ID)
	}
	if !s.End.IsZero() && s.End.Before(s.Start) {
		return fmt.Errorf("session %s: end %s before start %s",
			s.ID, s.End.Format(time.RFC3339), s.Start.Format(time.RFC3339))
	}
	if s.Minutes < 0 {
		return fmt.Errorf("session %s: negative duration %d",
			s.ID, s.Minutes)
	}
	return nil
}

// Normalize fills derivable fields: a missing duration is derived
// from End−Start, an empty subject becomes UncategorizedSubject,
// and an out-of-range satisfaction rating is cleared.
func Normalize(s Session) Session {
	if s.Minutes == 0 && !s.End.IsZero() && s.End.After(s.Start) {
		s.Minutes = int(s.End.Sub(s.Start).Minutes())
	}
	if s.Subject == "" {
		s.Subject = UncategorizedSubject
	}
	if s.Satisfaction != nil &&
		(*s.Satisfaction < 1 || *s.Satisfaction > 5) {
		s.Satisfaction = nil
	}
	return s
}
