// Package timeutil provides the timestamp conventions shared by the
// store, importer, and report layers: times are persisted as
// RFC3339Nano strings in UTC, with zero values mapping to empty/nil.
package timeutil

import "time"

// Format renders t as RFC3339Nano in UTC. The zero time renders as
// the empty string so optional columns stay NULL-like.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Ptr is Format for nullable columns: nil for the zero time,
// otherwise a pointer to the formatted string.
func Ptr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

// Parse reads a timestamp written by Format. It accepts RFC3339 with
// or without fractional seconds and returns the instant in UTC.
// Empty input yields the zero time without error.
func Parse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
