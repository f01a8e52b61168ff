package store

import (
	"context"
	"testing"
)

func TestGoalsDefaults(t *testing.T) {
	st := testStore(t)

	g, err := st.GetGoals(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("GetGoals: %v", err)
	}
	if g.UserID != "new-user" {
		t.Errorf("user_id = %q, want new-user", g.UserID)
	}
	if g.DailyMinutes != DefaultDailyGoalMinutes {
		t.Errorf("daily = %d, want %d", g.DailyMinutes, DefaultDailyGoalMinutes)
	}
	if g.WeeklyMinutes != DefaultWeeklyGoalMinutes {
		t.Errorf("weekly = %d, want %d", g.WeeklyMinutes, DefaultWeeklyGoalMinutes)
	}
	if g.MonthlyMinutes != DefaultMonthlyGoalMinutes {
		t.Errorf("monthly = %d, want %d", g.MonthlyMinutes, DefaultMonthlyGoalMinutes)
	}
	if g.UpdatedAt != "" {
		t.Errorf("updated_at = %q, want empty for defaults", g.UpdatedAt)
	}
}

func TestGoalsSetAndGet(t *testing.T) {
	st := testStore(t)

	set := GoalSettings{
		UserID:         "user-1",
		DailyMinutes:   90,
		WeeklyMinutes:  600,
		MonthlyMinutes: 2400,
	}
	if err := st.SetGoals(set); err != nil {
		t.Fatalf("SetGoals: %v", err)
	}

	got, err := st.GetGoals(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetGoals: %v", err)
	}
	if got.DailyMinutes != 90 || got.WeeklyMinutes != 600 || got.MonthlyMinutes != 2400 {
		t.Errorf("goals = %+v, want 90/600/2400", got)
	}
	if got.UpdatedAt == "" {
		t.Error("updated_at should be set")
	}

	// Overwrite.
	set.WeeklyMinutes = 300
	if err := st.SetGoals(set); err != nil {
		t.Fatalf("SetGoals overwrite: %v", err)
	}
	got, _ = st.GetGoals(context.Background(), "user-1")
	if got.WeeklyMinutes != 300 {
		t.Errorf("weekly after overwrite = %d, want 300", got.WeeklyMinutes)
	}

	// Other users still see defaults.
	other, _ := st.GetGoals(context.Background(), "user-2")
	if other.WeeklyMinutes != DefaultWeeklyGoalMinutes {
		t.Errorf("other user weekly = %d, want default", other.WeeklyMinutes)
	}
}
