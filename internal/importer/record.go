package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/studyview/studyview/internal/store"
	"github.com/studyview/studyview/internal/timeutil"
)

// ParseRecordLine decodes one JSONL session record into a store
// row. Required fields: user_id and start_time. A missing
// session_id gets a generated one; duration_minutes is derived
// from end_time when absent.
func ParseRecordLine(line []byte) (store.StudySession, error) {
	if !gjson.ValidBytes(line) {
		return store.StudySession{}, fmt.Errorf("not valid JSON")
	}

	userID := gjson.GetBytes(line, "user_id").String()
	if userID == "" {
		return store.StudySession{}, fmt.Errorf("missing user_id")
	}

	rawStart := gjson.GetBytes(line, "start_time").String()
	if rawStart == "" {
		return store.StudySession{}, fmt.Errorf("missing start_time")
	}
	start, err := timeutil.Parse(rawStart)
	if err != nil {
		return store.StudySession{}, fmt.Errorf(
			"bad start_time %q: %w", rawStart, err,
		)
	}

	var end time.Time
	if rawEnd := gjson.GetBytes(line, "end_time").String(); rawEnd != "" {
		end, err = timeutil.Parse(rawEnd)
		if err != nil {
			return store.StudySession{}, fmt.Errorf(
				"bad end_time %q: %w", rawEnd, err,
			)
		}
		if end.Before(start) {
			return store.StudySession{}, fmt.Errorf(
				"end_time %s before start_time %s", rawEnd, rawStart,
			)
		}
	}

	minutes := int(gjson.GetBytes(line, "duration_minutes").Int())
	if minutes < 0 {
		return store.StudySession{}, fmt.Errorf(
			"negative duration_minutes %d", minutes,
		)
	}
	if minutes == 0 && !end.IsZero() {
		minutes = int(end.Sub(start).Minutes())
	}

	id := gjson.GetBytes(line, "session_id").String()
	if id == "" {
		id = "rec_" + uuid.NewString()
	}

	var tags []string
	if v := gjson.GetBytes(line, "tags"); v.IsArray() {
		for _, tag := range v.Array() {
			if s := tag.String(); s != "" {
				tags = append(tags, s)
			}
		}
	}

	var satisfaction *int
	if v := gjson.GetBytes(line, "satisfaction"); v.Exists() {
		n := int(v.Int())
		if n >= 1 && n <= 5 {
			satisfaction = &n
		}
	}

	return store.StudySession{
		ID:           id,
		UserID:       userID,
		Subject:      gjson.GetBytes(line, "subject").String(),
		StartedAt:    timeutil.Format(start),
		EndedAt:      timeutil.Ptr(end),
		Minutes:      minutes,
		Satisfaction: satisfaction,
		Tags:         tags,
	}, nil
}
