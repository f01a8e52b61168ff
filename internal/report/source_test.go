package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/studyview/studyview/internal/analytics"
	"github.com/studyview/studyview/internal/store"
)

func testStoreSource(t *testing.T) (*StoreSource, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "studyview.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return &StoreSource{Store: st}, st
}

func seedRow(t *testing.T, st *store.Store, s store.StudySession) {
	t.Helper()
	if s.UserID == "" {
		s.UserID = testUser
	}
	if err := st.UpsertSession(s); err != nil {
		t.Fatalf("UpsertSession(%s) error = %v", s.ID, err)
	}
}

func TestStoreSourceSessions(t *testing.T) {
	src, st := testStoreSource(t)
	ended := "2025-12-01T11:30:00Z"
	seedRow(t, st, store.StudySession{
		ID:        "s1",
		Subject:   "javascript",
		StartedAt: "2025-12-01T10:00:00Z",
		EndedAt:   &ended,
		Minutes:   90,
	})
	seedRow(t, st, store.StudySession{
		ID:        "s2",
		StartedAt: "2025-12-02T14:00:00Z",
		Minutes:   105,
	})

	got, err := src.SessionsFor(context.Background(), testUser,
		mustTime("2025-12-01T00:00:00Z"), mustTime("2025-12-08T00:00:00Z"))
	if err != nil {
		t.Fatalf("SessionsFor() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(got))
	}
	if got[0].ID != "s1" || got[1].ID != "s2" {
		t.Errorf("order = %s, %s, want s1, s2", got[0].ID, got[1].ID)
	}
	if !got[0].End.Equal(mustTime(ended)) {
		t.Errorf("End = %v, want %v", got[0].End, ended)
	}
	// Normalization: a missing subject reads as uncategorized.
	if got[1].Subject != analytics.UncategorizedSubject {
		t.Errorf("Subject = %q, want %q", got[1].Subject, analytics.UncategorizedSubject)
	}
}

func TestStoreSourceDerivesDuration(t *testing.T) {
	src, st := testStoreSource(t)
	ended := "2025-12-01T10:45:00Z"
	seedRow(t, st, store.StudySession{
		ID:        "s1",
		Subject:   "math",
		StartedAt: "2025-12-01T10:00:00Z",
		EndedAt:   &ended,
	})

	got, err := src.SessionsFor(context.Background(), testUser,
		mustTime("2025-12-01T00:00:00Z"), mustTime("2025-12-02T00:00:00Z"))
	if err != nil {
		t.Fatalf("SessionsFor() error = %v", err)
	}
	if len(got) != 1 || got[0].Minutes != 45 {
		t.Fatalf("sessions = %+v, want one 45-minute session", got)
	}
}

func TestStoreSourceSkipsMalformedRows(t *testing.T) {
	src, st := testStoreSource(t)
	badEnd := "2025-12-02T08:00:00Z"
	seedRow(t, st, store.StudySession{
		ID:        "good",
		Subject:   "math",
		StartedAt: "2025-12-01T10:00:00Z",
		Minutes:   60,
	})
	seedRow(t, st, store.StudySession{
		ID:        "bad-start",
		StartedAt: "not-a-timestamp",
		Minutes:   30,
	})
	seedRow(t, st, store.StudySession{
		ID:        "end-before-start",
		StartedAt: "2025-12-02T09:00:00Z",
		EndedAt:   &badEnd,
		Minutes:   30,
	})

	got, err := src.SessionsFor(context.Background(), testUser,
		mustTime("2025-11-01T00:00:00Z"), mustTime("2026-01-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("SessionsFor() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "good" {
		t.Errorf("sessions = %+v, want only the good row", got)
	}
}

func TestStoreSourceRangeIsHalfOpen(t *testing.T) {
	src, st := testStoreSource(t)
	for _, day := range []string{"01", "02", "03"} {
		seedRow(t, st, store.StudySession{
			ID:        "s" + day,
			Subject:   "math",
			StartedAt: "2025-12-" + day + "T10:00:00Z",
			Minutes:   30,
		})
	}

	got, err := src.SessionsFor(context.Background(), testUser,
		mustTime("2025-12-01T10:00:00Z"), mustTime("2025-12-03T10:00:00Z"))
	if err != nil {
		t.Fatalf("SessionsFor() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(sessions) = %d, want 2 (end excluded)", len(got))
	}
}

func TestStoreSourceGoals(t *testing.T) {
	src, st := testStoreSource(t)

	got, err := src.GoalsFor(context.Background(), testUser)
	if err != nil {
		t.Fatalf("GoalsFor() error = %v", err)
	}
	want := GoalTargets{
		DailyMinutes:   store.DefaultDailyGoalMinutes,
		WeeklyMinutes:  store.DefaultWeeklyGoalMinutes,
		MonthlyMinutes: store.DefaultMonthlyGoalMinutes,
	}
	if got != want {
		t.Errorf("GoalsFor() = %+v, want defaults %+v", got, want)
	}

	if err := st.SetGoals(store.GoalSettings{
		UserID:         testUser,
		DailyMinutes:   90,
		WeeklyMinutes:  500,
		MonthlyMinutes: 2000,
	}); err != nil {
		t.Fatalf("SetGoals() error = %v", err)
	}
	got, err = src.GoalsFor(context.Background(), testUser)
	if err != nil {
		t.Fatalf("GoalsFor() error = %v", err)
	}
	if got != (GoalTargets{DailyMinutes: 90, WeeklyMinutes: 500, MonthlyMinutes: 2000}) {
		t.Errorf("GoalsFor() after set = %+v", got)
	}
}
