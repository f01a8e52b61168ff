package analytics

import (
	"testing"
	"time"
)

func TestStreakStats(t *testing.T) {
	now := mustTime("2025-12-15T18:00:00Z")

	onDay := func(date string) Session {
		return sess(date+"T10:00:00Z", 30, "math")
	}

	tests := []struct {
		name        string
		sessions    []Session
		wantCurrent int
		wantLongest int
	}{
		{"Empty", nil, 0, 0},
		{
			"RunEndingToday",
			[]Session{onDay("2025-12-13"), onDay("2025-12-14"), onDay("2025-12-15")},
			3, 3,
		},
		{
			// No session yet today; yesterday anchors the streak.
			"RunEndingYesterday",
			[]Session{onDay("2025-12-13"), onDay("2025-12-14")},
			2, 2,
		},
		{
			"BrokenTwoDaysAgo",
			[]Session{onDay("2025-12-10"), onDay("2025-12-11"), onDay("2025-12-12")},
			0, 3,
		},
		{
			"LongestRunInThePast",
			[]Session{
				onDay("2025-12-01"), onDay("2025-12-02"),
				onDay("2025-12-03"), onDay("2025-12-04"),
				onDay("2025-12-15"),
			},
			1, 4,
		},
		{
			"SameDayCountsOnce",
			[]Session{onDay("2025-12-15"), onDay("2025-12-15")},
			1, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StreakStats(tt.sessions, now, time.UTC)
			if got.CurrentDays != tt.wantCurrent {
				t.Errorf("CurrentDays = %d, want %d", got.CurrentDays, tt.wantCurrent)
			}
			if got.LongestDays != tt.wantLongest {
				t.Errorf("LongestDays = %d, want %d", got.LongestDays, tt.wantLongest)
			}
		})
	}
}

func TestStreakStatsTimezone(t *testing.T) {
	karachi, err := time.LoadLocation("Asia/Karachi") // UTC+5
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	// 20:00Z on Dec 14 is already Dec 15 in Karachi, so locally
	// the streak is anchored at today.
	now := mustTime("2025-12-15T06:00:00Z")
	sessions := []Session{sess("2025-12-14T20:00:00Z", 30, "math")}

	got := StreakStats(sessions, now, karachi)
	if got.CurrentDays != 1 {
		t.Errorf("Karachi CurrentDays = %d, want 1", got.CurrentDays)
	}

	utc := StreakStats(sessions, now, time.UTC)
	if utc.CurrentDays != 1 {
		// In UTC the session was yesterday, which still anchors.
		t.Errorf("UTC CurrentDays = %d, want 1", utc.CurrentDays)
	}
}
