package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// sessionCols is the column list for standard session queries.
// Keep in sync with scanSessionRow.
const sessionCols = `id, user_id, subject, started_at, ended_at,
	duration_minutes, satisfaction, tags,
	source_path, file_size, file_mtime, created_at`

// StudySession represents a row in the study_sessions table.
// Timestamps are RFC3339 strings in UTC.
type StudySession struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Subject      string   `json:"subject"`
	StartedAt    string   `json:"started_at"`
	EndedAt      *string  `json:"ended_at"`
	Minutes      int      `json:"duration_minutes"`
	Satisfaction *int     `json:"satisfaction,omitempty"`
	Tags         []string `json:"tags"`
	SourcePath   *string  `json:"source_path,omitempty"`
	FileSize     *int64   `json:"file_size,omitempty"`
	FileMtime    *int64   `json:"file_mtime,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// marshalTags encodes a tag list as the JSON text stored in the
// tags column.
func marshalTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// unmarshalTags decodes the tags column. Unparseable text reads
// as no tags rather than failing the whole row.
func unmarshalTags(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows,
// allowing a single scan helper for both.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSessionRow scans sessionCols into a StudySession.
func scanSessionRow(rs rowScanner) (StudySession, error) {
	var (
		s    StudySession
		tags string
	)
	err := rs.Scan(
		&s.ID, &s.UserID, &s.Subject, &s.StartedAt, &s.EndedAt,
		&s.Minutes, &s.Satisfaction, &tags,
		&s.SourcePath, &s.FileSize, &s.FileMtime, &s.CreatedAt,
	)
	if err != nil {
		return StudySession{}, err
	}
	s.Tags = unmarshalTags(tags)
	return s, nil
}

// scanSessionRows iterates rows and scans each using
// scanSessionRow.
func scanSessionRows(rows *sql.Rows) ([]StudySession, error) {
	var sessions []StudySession
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionFilter specifies how to query sessions.
type SessionFilter struct {
	UserID  string
	From    string // started_at >= (RFC3339, inclusive)
	To      string // started_at < (RFC3339, exclusive)
	Subject string
	Limit   int // 0 = no limit
}

// buildSessionFilter returns a WHERE clause and args for the
// predicates in SessionFilter.
func buildSessionFilter(f SessionFilter) (string, []any) {
	preds := []string{"1=1"}
	var args []any

	if f.UserID != "" {
		preds = append(preds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.From != "" {
		preds = append(preds, "started_at >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		preds = append(preds, "started_at < ?")
		args = append(args, f.To)
	}
	if f.Subject != "" {
		preds = append(preds, "subject = ?")
		args = append(args, f.Subject)
	}

	return strings.Join(preds, " AND "), args
}

// ListSessions returns sessions matching the filter ordered by
// start time ascending, so report builders see sessions in
// chronological order.
func (st *Store) ListSessions(
	ctx context.Context, f SessionFilter,
) ([]StudySession, error) {
	where, args := buildSessionFilter(f)

	query := "SELECT " + sessionCols +
		" FROM study_sessions WHERE " + where +
		" ORDER BY started_at ASC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := st.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	return scanSessionRows(rows)
}

// GetSession returns a single session by ID, or nil when absent.
func (st *Store) GetSession(
	ctx context.Context, id string,
) (*StudySession, error) {
	row := st.reader.QueryRowContext(
		ctx,
		"SELECT "+sessionCols+" FROM study_sessions WHERE id = ?",
		id,
	)

	s, err := scanSessionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return &s, nil
}

// ListUsers returns distinct user IDs with recorded sessions.
func (st *Store) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := st.reader.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM study_sessions ORDER BY user_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const upsertSessionSQL = `
	INSERT INTO study_sessions (
		id, user_id, subject, started_at, ended_at,
		duration_minutes, satisfaction, tags,
		source_path, file_size, file_mtime
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		subject = excluded.subject,
		started_at = excluded.started_at,
		ended_at = excluded.ended_at,
		duration_minutes = excluded.duration_minutes,
		satisfaction = excluded.satisfaction,
		tags = excluded.tags,
		source_path = excluded.source_path,
		file_size = excluded.file_size,
		file_mtime = excluded.file_mtime`

func upsertArgs(s StudySession) []any {
	return []any{
		s.ID, s.UserID, s.Subject, s.StartedAt, s.EndedAt,
		s.Minutes, s.Satisfaction, marshalTags(s.Tags),
		s.SourcePath, s.FileSize, s.FileMtime,
	}
}

// UpsertSession inserts or updates a single session.
func (st *Store) UpsertSession(s StudySession) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, err := st.writer.Exec(upsertSessionSQL, upsertArgs(s)...); err != nil {
		return fmt.Errorf("upserting session %s: %w", s.ID, err)
	}
	return nil
}

// UpsertSessionsBatch inserts or updates many sessions in one
// transaction. Import batches go through here so a crash mid-file
// never leaves half a batch visible.
func (st *Store) UpsertSessionsBatch(sessions []StudySession) error {
	if len(sessions) == 0 {
		return nil
	}
	return st.Update(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(upsertSessionSQL)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, s := range sessions {
			if _, err := stmt.Exec(upsertArgs(s)...); err != nil {
				return fmt.Errorf("upserting session %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// GetFileInfoByPath returns file_size and file_mtime for a
// session identified by source_path. Used for fast skip checks
// during import.
func (st *Store) GetFileInfoByPath(
	path string,
) (size int64, mtime int64, ok bool) {
	var s, m sql.NullInt64
	err := st.reader.QueryRow(
		"SELECT file_size, file_mtime FROM study_sessions"+
			" WHERE source_path = ?"+
			" ORDER BY file_mtime DESC LIMIT 1",
		path,
	).Scan(&s, &m)
	if err != nil {
		return 0, 0, false
	}
	return s.Int64, m.Int64, true
}

// PruneFilter defines criteria for finding sessions to prune.
// Filters combine with AND. At least one must be set.
type PruneFilter struct {
	User       string // exact user id
	Subject    string // substring match (LIKE '%x%')
	Before     string // started_at < date (YYYY-MM-DD)
	MaxMinutes *int   // duration_minutes <= N (nil = no filter)
}

// HasFilters reports whether at least one filter is set.
func (f PruneFilter) HasFilters() bool {
	return f.User != "" ||
		f.Subject != "" ||
		f.Before != "" ||
		f.MaxMinutes != nil
}

// escapeLike escapes SQL LIKE wildcard characters so user input
// is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`, `%`, `\%`, `_`, `\_`,
	)
	return r.Replace(s)
}

// FindPruneCandidates returns sessions matching all filter
// criteria, newest first.
func (st *Store) FindPruneCandidates(
	f PruneFilter,
) ([]StudySession, error) {
	if !f.HasFilters() {
		return nil, fmt.Errorf("at least one filter is required")
	}

	where := "1=1"
	args := []any{}

	if f.User != "" {
		where += " AND user_id = ?"
		args = append(args, f.User)
	}
	if f.Subject != "" {
		where += ` AND subject LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(f.Subject)+"%")
	}
	if f.Before != "" {
		where += " AND started_at < ?"
		args = append(args, f.Before)
	}
	if f.MaxMinutes != nil {
		where += " AND duration_minutes <= ?"
		args = append(args, *f.MaxMinutes)
	}

	query := "SELECT " + sessionCols +
		" FROM study_sessions WHERE " + where +
		" ORDER BY started_at DESC, id DESC"

	rows, err := st.reader.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding prune candidates: %w", err)
	}
	defer rows.Close()

	return scanSessionRows(rows)
}

// DeleteSessions removes multiple sessions by ID in a single
// transaction. Batches DELETEs in groups of 500 to stay under
// SQLite variable limits. Returns count of deleted rows.
func (st *Store) DeleteSessions(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	total := 0
	err := st.Update(func(tx *sql.Tx) error {
		const batchSize = 500
		for i := 0; i < len(ids); i += batchSize {
			end := min(i+batchSize, len(ids))
			batch := ids[i:end]

			args := make([]any, len(batch))
			for j, id := range batch {
				args[j] = id
			}
			placeholders := strings.Repeat(",?", len(batch))[1:]

			res, err := tx.Exec(
				"DELETE FROM study_sessions WHERE id IN ("+placeholders+")",
				args...,
			)
			if err != nil {
				return fmt.Errorf("deleting batch: %w", err)
			}
			n, _ := res.RowsAffected()
			total += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
