package analytics

// Trend labels for period-over-period movement. Changes within
// trendThreshold percent either way count as stable so that noise
// between near-identical weeks does not flip the label.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"

	trendThreshold = 5.0
)

// PeriodComparison relates one period's totals to the previous
// period's.
type PeriodComparison struct {
	DurationChange    int     `json:"duration_change"`
	DurationChangePct float64 `json:"duration_change_percentage"`
	SessionCountDelta int     `json:"session_count_change"`
	Trend             string  `json:"trend"`
}

// ChangePct expresses current against previous as a percentage.
// Two empty periods compare as 0; activity appearing from nothing
// reads as a flat 100 rather than an infinity.
func ChangePct(previous, current int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return round1(float64(current-previous) / float64(previous) * 100)
}

// Compare relates the current period's totals to the previous
// period's.
func Compare(previous, current PeriodTotals) PeriodComparison {
	pct := ChangePct(previous.TotalMinutes, current.TotalMinutes)
	trend := TrendStable
	switch {
	case pct > trendThreshold:
		trend = TrendImproving
	case pct < -trendThreshold:
		trend = TrendDeclining
	}
	return PeriodComparison{
		DurationChange:    current.TotalMinutes - previous.TotalMinutes,
		DurationChangePct: pct,
		SessionCountDelta: current.SessionCount - previous.SessionCount,
		Trend:             trend,
	}
}
