package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTotals(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		got := Totals(nil)
		want := PeriodTotals{Subjects: []SubjectStat{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Totals(nil) mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("RanksSubjectsByDuration", func(t *testing.T) {
		got := Totals([]Session{
			sess("2025-12-01T10:00:00Z", 90, "javascript"),
			sess("2025-12-02T14:00:00Z", 105, "python"),
		})

		if got.TotalMinutes != 195 {
			t.Errorf("TotalMinutes = %d, want 195", got.TotalMinutes)
		}
		if got.SessionCount != 2 {
			t.Errorf("SessionCount = %d, want 2", got.SessionCount)
		}
		if got.AvgSessionMinutes != 97.5 {
			t.Errorf("AvgSessionMinutes = %v, want 97.5", got.AvgSessionMinutes)
		}

		want := []SubjectStat{
			{Subject: "python", TotalMinutes: 105, SessionCount: 1, Percentage: 53.8},
			{Subject: "javascript", TotalMinutes: 90, SessionCount: 1, Percentage: 46.2},
		}
		if diff := cmp.Diff(want, got.Subjects); diff != "" {
			t.Errorf("Subjects mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("LexicographicTieBreak", func(t *testing.T) {
		got := Totals([]Session{
			sess("2025-12-01T10:00:00Z", 60, "zoology"),
			sess("2025-12-01T12:00:00Z", 60, "algebra"),
			sess("2025-12-01T14:00:00Z", 60, "music"),
		})
		if got.Subjects[0].Subject != "algebra" {
			t.Errorf("first subject = %q, want algebra", got.Subjects[0].Subject)
		}
		if got.Subjects[2].Subject != "zoology" {
			t.Errorf("last subject = %q, want zoology", got.Subjects[2].Subject)
		}
	})

	t.Run("ZeroDurationPercentages", func(t *testing.T) {
		got := Totals([]Session{
			sess("2025-12-01T10:00:00Z", 0, "math"),
		})
		if got.Subjects[0].Percentage != 0 {
			t.Errorf("Percentage = %v, want 0", got.Subjects[0].Percentage)
		}
	})

	t.Run("PercentagesSumNearHundred", func(t *testing.T) {
		got := Totals([]Session{
			sess("2025-12-01T09:00:00Z", 33, "a"),
			sess("2025-12-01T11:00:00Z", 33, "b"),
			sess("2025-12-01T13:00:00Z", 34, "c"),
		})
		var sum float64
		for _, s := range got.Subjects {
			sum += s.Percentage
		}
		if sum < 99.5 || sum > 100.5 {
			t.Errorf("percentage sum = %v, want within 100 +/- 0.5", sum)
		}
	})
}

func TestTopSubjects(t *testing.T) {
	subjects := []SubjectStat{
		{Subject: "a"}, {Subject: "b"}, {Subject: "c"},
	}
	if got := TopSubjects(subjects, 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := TopSubjects(subjects, 5); len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestDailySummaries(t *testing.T) {
	start := mustTime("2025-12-01T00:00:00Z") // Monday
	summaries := DailySummaries(start, 7, []Session{
		sess("2025-12-01T10:00:00Z", 90, "javascript"),
		sess("2025-12-02T14:00:00Z", 105, "python"),
		sess("2025-12-02T19:00:00Z", 15, "javascript"),
	})

	if len(summaries) != 7 {
		t.Fatalf("len(summaries) = %d, want 7", len(summaries))
	}

	if summaries[0].Date != "2025-12-01" {
		t.Errorf("first date = %q, want 2025-12-01", summaries[0].Date)
	}
	if summaries[6].Date != "2025-12-07" {
		t.Errorf("last date = %q, want 2025-12-07", summaries[6].Date)
	}

	tue := summaries[1]
	if tue.TotalMinutes != 120 {
		t.Errorf("tuesday minutes = %d, want 120", tue.TotalMinutes)
	}
	if tue.SessionCount != 2 {
		t.Errorf("tuesday sessions = %d, want 2", tue.SessionCount)
	}
	if tue.AvgSessionMinutes != 60 {
		t.Errorf("tuesday avg = %v, want 60", tue.AvgSessionMinutes)
	}
	// Subject lists are alphabetical per day.
	if diff := cmp.Diff([]string{"javascript", "python"}, tue.Subjects); diff != "" {
		t.Errorf("tuesday subjects mismatch (-want +got):\n%s", diff)
	}

	// Days without sessions are explicit zero entries.
	for i := 2; i < 7; i++ {
		d := summaries[i]
		if d.TotalMinutes != 0 || d.SessionCount != 0 {
			t.Errorf("day %s should be empty, got %d min / %d sessions",
				d.Date, d.TotalMinutes, d.SessionCount)
		}
		if len(d.Subjects) != 0 {
			t.Errorf("day %s subjects = %v, want empty", d.Date, d.Subjects)
		}
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{97.5, 97.5},
		{53.846153, 53.8},
		{46.153846, 46.2},
		{28.571428, 28.6},
		{-2.25, -2.3}, // math.Round halves go away from zero
	}
	for _, tt := range tests {
		if got := round1(tt.in); got != tt.want {
			t.Errorf("round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMedianInt(t *testing.T) {
	tests := []struct {
		name   string
		sorted []int
		want   int
	}{
		{"Empty", []int{}, 0},
		{"Single", []int{5}, 5},
		{"OddCount", []int{1, 3, 7}, 3},
		{"EvenCount", []int{1, 3, 7, 9}, 5},
		{"EvenCountTwo", []int{10, 20}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := medianInt(tt.sorted, len(tt.sorted)); got != tt.want {
				t.Errorf("medianInt(%v) = %d, want %d", tt.sorted, got, tt.want)
			}
		})
	}
}

func TestPercentileInt(t *testing.T) {
	sorted := []int{10, 20, 30, 40, 50, 60, 70, 80}

	tests := []struct {
		name string
		pct  float64
		want int
	}{
		{"P75", 0.75, 70}, // idx = int(8*0.75) = 6
		{"P50", 0.50, 50},
		{"P100Clamped", 1.0, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentileInt(sorted, tt.pct); got != tt.want {
				t.Errorf("percentileInt(%v) = %d, want %d", tt.pct, got, tt.want)
			}
		})
	}

	if got := percentileInt(nil, 0.75); got != 0 {
		t.Errorf("percentileInt(nil) = %d, want 0", got)
	}
}
