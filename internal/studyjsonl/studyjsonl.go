// Package studyjsonl provides shared JSONL fixture builders for
// study-session record files. Used by the importer tests and the
// seedsessions fixture generator.
package studyjsonl

import (
	"encoding/json"
	"strings"
)

// Opt mutates the field map of a record line before marshaling.
type Opt func(map[string]any)

// WithSubject sets the subject label.
func WithSubject(subject string) Opt {
	return func(m map[string]any) { m["subject"] = subject }
}

// WithEnd sets the end_time field.
func WithEnd(end string) Opt {
	return func(m map[string]any) { m["end_time"] = end }
}

// WithMinutes sets an explicit duration_minutes field.
func WithMinutes(minutes int) Opt {
	return func(m map[string]any) { m["duration_minutes"] = minutes }
}

// WithTags sets the tags array.
func WithTags(tags ...string) Opt {
	return func(m map[string]any) { m["tags"] = tags }
}

// WithSatisfaction sets the 1-5 self-rating field.
func WithSatisfaction(rating int) Opt {
	return func(m map[string]any) { m["satisfaction"] = rating }
}

// Without removes a field, for building invalid records.
func Without(field string) Opt {
	return func(m map[string]any) { delete(m, field) }
}

// Line returns one session record as a JSON string.
func Line(id, userID, start string, opts ...Opt) string {
	m := map[string]any{
		"session_id": id,
		"user_id":    userID,
		"start_time": start,
	}
	for _, opt := range opts {
		opt(m)
	}
	return mustMarshal(m)
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// FileBuilder constructs JSONL record-file content using a
// fluent API.
type FileBuilder struct {
	lines []string
}

// NewFileBuilder returns a new empty FileBuilder.
func NewFileBuilder() *FileBuilder {
	return &FileBuilder{}
}

// AddSession appends a record line.
func (b *FileBuilder) AddSession(
	id, userID, start string, opts ...Opt,
) *FileBuilder {
	b.lines = append(b.lines, Line(id, userID, start, opts...))
	return b
}

// AddRaw appends an arbitrary raw line.
func (b *FileBuilder) AddRaw(line string) *FileBuilder {
	b.lines = append(b.lines, line)
	return b
}

// String returns the JSONL content with a trailing newline.
func (b *FileBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
