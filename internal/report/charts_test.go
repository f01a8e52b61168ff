package report

import (
	"context"
	"strings"
	"testing"

	"github.com/studyview/studyview/internal/analytics"
)

func TestChartUnknownType(t *testing.T) {
	svc := newTestService(&fakeSource{})
	_, err := svc.Chart(context.Background(), Query{UserID: testUser}, "sparkline")
	if !IsValidation(err) {
		t.Fatalf("Chart(sparkline) error = %v, want validation", err)
	}
	if !strings.Contains(err.Error(), "sparkline") {
		t.Errorf("error %q does not name the unknown type", err)
	}
}

func TestChartRequiresUser(t *testing.T) {
	svc := newTestService(&fakeSource{})
	_, err := svc.Chart(context.Background(), Query{}, ChartDailyDuration)
	if !IsValidation(err) {
		t.Errorf("Chart without user error = %v, want validation", err)
	}
}

func TestDailyDurationChart(t *testing.T) {
	src := &fakeSource{sessions: []analytics.Session{
		sess("2025-12-01T10:00:00Z", 90, "javascript"),
	}}
	svc := newTestService(src)

	got, err := svc.Chart(context.Background(), Query{UserID: testUser, PeriodDays: 7}, ChartDailyDuration)
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if got.ChartType != ChartDailyDuration {
		t.Errorf("ChartType = %q, want %q", got.ChartType, ChartDailyDuration)
	}
	if len(got.DataPoints) != 7 {
		t.Fatalf("len(DataPoints) = %d, want 7", len(got.DataPoints))
	}
	// Window is the trailing 7 days ending today (Dec 3).
	if got.DataPoints[0].X != "2025-11-27" {
		t.Errorf("DataPoints[0].X = %q, want 2025-11-27", got.DataPoints[0].X)
	}
	monday := got.DataPoints[4]
	if monday.X != "2025-12-01" || monday.Y != 90 || monday.Label != "Monday" {
		t.Errorf("DataPoints[4] = %+v, want Dec 1 / 90 / Monday", monday)
	}
	if got.DataPoints[6].Y != 0 {
		t.Errorf("DataPoints[6].Y = %v, want 0", got.DataPoints[6].Y)
	}
}

func TestSubjectDistributionChart(t *testing.T) {
	src := &fakeSource{sessions: []analytics.Session{
		sess("2025-12-01T10:00:00Z", 90, "javascript"),
		sess("2025-12-02T14:00:00Z", 105, "python"),
	}}
	svc := newTestService(src)

	got, err := svc.Chart(context.Background(), Query{UserID: testUser}, ChartSubjectDistribution)
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if len(got.DataPoints) != 2 {
		t.Fatalf("len(DataPoints) = %d, want 2", len(got.DataPoints))
	}
	first := got.DataPoints[0]
	if first.X != "python" || first.Y != 105 || first.Label != "53.8%" {
		t.Errorf("DataPoints[0] = %+v, want python / 105 / 53.8%%", first)
	}
}

func TestHourlyDistributionChart(t *testing.T) {
	src := &fakeSource{sessions: []analytics.Session{
		sess("2025-12-01T10:00:00Z", 90, "javascript"),
		sess("2025-12-02T14:00:00Z", 105, "python"),
	}}
	svc := newTestService(src)

	got, err := svc.Chart(context.Background(), Query{UserID: testUser}, ChartHourlyDistribution)
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if len(got.DataPoints) != 24 {
		t.Fatalf("len(DataPoints) = %d, want 24", len(got.DataPoints))
	}
	if got.DataPoints[14].X != "14:00" || got.DataPoints[14].Y != 105 {
		t.Errorf("DataPoints[14] = %+v, want 14:00 / 105", got.DataPoints[14])
	}
	if got.DataPoints[10].Y != 90 {
		t.Errorf("DataPoints[10].Y = %v, want 90", got.DataPoints[10].Y)
	}
	if got.DataPoints[0].Y != 0 {
		t.Errorf("DataPoints[0].Y = %v, want 0", got.DataPoints[0].Y)
	}
}

func TestWeeklyComparisonChart(t *testing.T) {
	src := &fakeSource{sessions: []analytics.Session{
		sess("2025-11-26T09:00:00Z", 60, "math"), // Wednesday of the previous week
		sess("2025-12-01T10:00:00Z", 90, "javascript"),
		sess("2025-12-02T14:00:00Z", 105, "python"),
	}}
	svc := newTestService(src)

	got, err := svc.Chart(context.Background(), Query{UserID: testUser}, ChartWeeklyComparison)
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if len(got.DataPoints) != 14 {
		t.Fatalf("len(DataPoints) = %d, want 14", len(got.DataPoints))
	}
	for i := 0; i < 7; i++ {
		if got.DataPoints[i].Label != "previous_week" {
			t.Fatalf("DataPoints[%d].Label = %q, want previous_week", i, got.DataPoints[i].Label)
		}
		if got.DataPoints[7+i].Label != "current_week" {
			t.Fatalf("DataPoints[%d].Label = %q, want current_week", 7+i, got.DataPoints[7+i].Label)
		}
	}
	if got.DataPoints[0].X != "Monday" || got.DataPoints[6].X != "Sunday" {
		t.Errorf("weekday order = %q..%q, want Monday..Sunday",
			got.DataPoints[0].X, got.DataPoints[6].X)
	}
	if got.DataPoints[2].Y != 60 {
		t.Errorf("previous Wednesday = %v, want 60", got.DataPoints[2].Y)
	}
	if got.DataPoints[7].Y != 90 || got.DataPoints[8].Y != 105 {
		t.Errorf("current Monday/Tuesday = %v/%v, want 90/105",
			got.DataPoints[7].Y, got.DataPoints[8].Y)
	}
}
