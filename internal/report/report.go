// Package report assembles study analytics into the response
// shapes served over HTTP. It fetches sessions through a
// SessionSource, runs the pure computations in internal/analytics,
// and memoizes results in an advisory cache keyed by user, report
// kind, and normalized period.
package report

import (
	"strings"
	"time"
)

// Report-kind TTLs are multiples of a base TTL. Weekly numbers
// move with every imported session, so they expire at the base
// rate; a closed month practically never changes, so trends live
// the longest.
const (
	DefaultBaseTTL = 5 * time.Minute

	productivityTTLFactor = 3
	trendsTTLFactor       = 12
)

// Period bounds accepted by productivity and summary reports.
const (
	DefaultPeriodDays = 30
	MaxPeriodDays     = 365
)

// Query carries the parameters shared by report operations; each
// operation reads the fields it uses.
type Query struct {
	UserID     string
	Timezone   string    // IANA name; empty or unknown falls back to UTC
	WeekStart  time.Time // weekly: any instant in the wanted week; zero = current
	Months     int       // trends: number of months, 0 = default
	PeriodDays int       // productivity/charts: lookback, 0 = default
	From       time.Time // summary: inclusive range start, zero = default window
	To         time.Time // summary: inclusive range end, zero = today
}

// location resolves the query timezone, falling back to UTC.
func (q Query) location() *time.Location {
	if q.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// clampPeriodDays normalizes a requested lookback.
func clampPeriodDays(days int) int {
	if days <= 0 {
		return DefaultPeriodDays
	}
	if days > MaxPeriodDays {
		return MaxPeriodDays
	}
	return days
}

// Service is the analytics facade. All operations are stateless
// per request apart from the advisory cache.
type Service struct {
	source  SessionSource
	goals   GoalSource
	cache   *Cache
	baseTTL time.Duration
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache attaches an advisory result cache. Without one every
// request recomputes.
func WithCache(c *Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithGoalSource attaches goal targets for summary reports.
func WithGoalSource(g GoalSource) Option {
	return func(s *Service) { s.goals = g }
}

// WithBaseTTL overrides the base cache TTL. Non-positive values
// are ignored.
func WithBaseTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.baseTTL = d
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a report service reading sessions from
// source.
func NewService(source SessionSource, opts ...Option) *Service {
	s := &Service{
		source:  source,
		baseTTL: DefaultBaseTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cacheKey joins the identifying parts of a report request.
func cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// cached looks up a key, tolerating a missing cache.
func (s *Service) cached(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

// memoize stores a computed result, tolerating a missing cache.
func (s *Service) memoize(key string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	s.cache.Set(key, v, ttl)
}

// InvalidateUser drops every cached report for a user. Import
// runs call this so fresh sessions show up immediately.
func (s *Service) InvalidateUser(userID string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(userID + ":")
}
