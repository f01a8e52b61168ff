package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyview/studyview/internal/studyjsonl"
)

func TestParseRecordLine(t *testing.T) {
	line := studyjsonl.Line(
		"sess-1", "user-amara", "2025-12-01T10:00:00Z",
		studyjsonl.WithSubject("calculus"),
		studyjsonl.WithEnd("2025-12-01T11:30:00Z"),
		studyjsonl.WithTags("exam-prep", "math"),
		studyjsonl.WithSatisfaction(4),
	)

	s, err := ParseRecordLine([]byte(line))
	require.NoError(t, err)

	assert.Equal(t, "sess-1", s.ID)
	assert.Equal(t, "user-amara", s.UserID)
	assert.Equal(t, "calculus", s.Subject)
	assert.Equal(t, "2025-12-01T10:00:00Z", s.StartedAt)
	require.NotNil(t, s.EndedAt)
	assert.Equal(t, "2025-12-01T11:30:00Z", *s.EndedAt)
	// Duration derived from the end time.
	assert.Equal(t, 90, s.Minutes)
	assert.Equal(t, []string{"exam-prep", "math"}, s.Tags)
	require.NotNil(t, s.Satisfaction)
	assert.Equal(t, 4, *s.Satisfaction)
}

func TestParseRecordLineExplicitDuration(t *testing.T) {
	line := studyjsonl.Line(
		"sess-2", "user-amara", "2025-12-01T10:00:00Z",
		studyjsonl.WithMinutes(45),
	)

	s, err := ParseRecordLine([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, 45, s.Minutes)
	assert.Nil(t, s.EndedAt)
}

func TestParseRecordLineGeneratesMissingID(t *testing.T) {
	line := studyjsonl.Line(
		"", "user-amara", "2025-12-01T10:00:00Z",
		studyjsonl.Without("session_id"),
	)

	s, err := ParseRecordLine([]byte(line))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "rec_"),
		"generated id %q should carry the rec_ prefix", s.ID)
}

func TestParseRecordLineErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{
			"not json",
			"{broken",
			"not valid JSON",
		},
		{
			"missing user",
			studyjsonl.Line("s1", "", "2025-12-01T10:00:00Z",
				studyjsonl.Without("user_id")),
			"missing user_id",
		},
		{
			"missing start",
			studyjsonl.Line("s1", "u1", "",
				studyjsonl.Without("start_time")),
			"missing start_time",
		},
		{
			"bad start",
			studyjsonl.Line("s1", "u1", "yesterday"),
			"bad start_time",
		},
		{
			"end before start",
			studyjsonl.Line("s1", "u1", "2025-12-01T10:00:00Z",
				studyjsonl.WithEnd("2025-12-01T09:00:00Z")),
			"before start_time",
		},
		{
			"negative duration",
			studyjsonl.Line("s1", "u1", "2025-12-01T10:00:00Z",
				studyjsonl.WithMinutes(-5)),
			"negative duration_minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecordLine([]byte(tt.line))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRecordLineClearsBadSatisfaction(t *testing.T) {
	line := studyjsonl.Line(
		"s1", "u1", "2025-12-01T10:00:00Z",
		studyjsonl.WithSatisfaction(9),
	)

	s, err := ParseRecordLine([]byte(line))
	require.NoError(t, err)
	assert.Nil(t, s.Satisfaction)
}
