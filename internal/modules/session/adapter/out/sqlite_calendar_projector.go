package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"studyvault/internal/modules/session/domain"
	sessionout "studyvault/internal/modules/session/port/out"

	_ "modernc.org/sqlite"
)

// SQLiteCalendarProjector mirrors the per-date metadata into SQLite for
// range queries. The files stay authoritative; Reset plus a replay of every
// date rebuilds it.
type SQLiteCalendarProjector struct {
	db *sql.DB
}

func NewSQLiteCalendarProjector(dbPath string) (*SQLiteCalendarProjector, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	projector := &SQLiteCalendarProjector{db: db}
	if err := projector.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return projector, nil
}

var _ sessionout.CalendarProjector = (*SQLiteCalendarProjector)(nil)

func (s *SQLiteCalendarProjector) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS day_summaries (
  date TEXT PRIMARY KEY,
  week_id TEXT NOT NULL,
  total INTEGER NOT NULL,
  completed INTEGER NOT NULL,
  session_ids TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS day_tags (
  date TEXT NOT NULL,
  tag TEXT NOT NULL,
  count INTEGER NOT NULL,
  PRIMARY KEY (date, tag)
);
CREATE INDEX IF NOT EXISTS idx_day_tags_tag ON day_tags(tag);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create calendar tables: %w", err)
	}
	return nil
}

func (s *SQLiteCalendarProjector) Close() error {
	return s.db.Close()
}

func (s *SQLiteCalendarProjector) Reset(ctx context.Context) error {
	for _, stmt := range []string{`DELETE FROM day_tags`, `DELETE FROM day_summaries`} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset calendar: %w", err)
		}
	}
	return nil
}

func (s *SQLiteCalendarProjector) UpsertDay(ctx context.Context, meta domain.Metadata) error {
	ids := meta.SessionIDs
	if ids == nil {
		ids = []string{}
	}
	encodedIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode session ids: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin calendar upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsertDay = `
INSERT INTO day_summaries (date, week_id, total, completed, session_ids)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
  week_id=excluded.week_id,
  total=excluded.total,
  completed=excluded.completed,
  session_ids=excluded.session_ids;
`
	if _, err := tx.ExecContext(ctx, upsertDay, meta.Date, meta.WeekID, meta.Total, meta.Completed, string(encodedIDs)); err != nil {
		return fmt.Errorf("upsert day %s: %w", meta.Date, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM day_tags WHERE date = ?`, meta.Date); err != nil {
		return fmt.Errorf("clear tags for %s: %w", meta.Date, err)
	}
	for tag, count := range meta.TagFreq {
		if _, err := tx.ExecContext(ctx, `INSERT INTO day_tags (date, tag, count) VALUES (?, ?, ?)`, meta.Date, tag, count); err != nil {
			return fmt.Errorf("insert tag %s: %w", tag, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calendar upsert: %w", err)
	}
	return nil
}

func (s *SQLiteCalendarProjector) DeleteDay(ctx context.Context, date string) error {
	for _, stmt := range []string{`DELETE FROM day_tags WHERE date = ?`, `DELETE FROM day_summaries WHERE date = ?`} {
		if _, err := s.db.ExecContext(ctx, stmt, date); err != nil {
			return fmt.Errorf("delete day %s: %w", date, err)
		}
	}
	return nil
}

// Range returns the days between from and to inclusive, oldest first.
// Empty bounds are open.
func (s *SQLiteCalendarProjector) Range(ctx context.Context, from, to string) ([]domain.Metadata, error) {
	lo, hi := bounds(from, to)
	rows, err := s.db.QueryContext(ctx, `
SELECT date, week_id, total, completed, session_ids
FROM day_summaries
WHERE date >= ? AND date <= ?
ORDER BY date`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}
	defer rows.Close()

	var days []domain.Metadata
	for rows.Next() {
		var meta domain.Metadata
		var ids string
		if err := rows.Scan(&meta.Date, &meta.WeekID, &meta.Total, &meta.Completed, &ids); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		if err := json.Unmarshal([]byte(ids), &meta.SessionIDs); err != nil {
			return nil, fmt.Errorf("decode session ids for %s: %w", meta.Date, err)
		}
		days = append(days, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar: %w", err)
	}

	for i := range days {
		tags, err := s.dayTags(ctx, days[i].Date)
		if err != nil {
			return nil, err
		}
		days[i].TagFreq = tags
	}
	return days, nil
}

func (s *SQLiteCalendarProjector) dayTags(ctx context.Context, date string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag, count FROM day_tags WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("query tags for %s: %w", date, err)
	}
	defer rows.Close()

	tags := map[string]int{}
	for rows.Next() {
		var tag string
		var count int
		if err := rows.Scan(&tag, &count); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags[tag] = count
	}
	return tags, rows.Err()
}

func (s *SQLiteCalendarProjector) TopTags(ctx context.Context, from, to string, limit int) ([]domain.TagCount, error) {
	if limit <= 0 {
		limit = 10
	}
	lo, hi := bounds(from, to)
	rows, err := s.db.QueryContext(ctx, `
SELECT tag, SUM(count) AS total
FROM day_tags
WHERE date >= ? AND date <= ?
GROUP BY tag
ORDER BY total DESC, tag ASC
LIMIT ?`, lo, hi, limit)
	if err != nil {
		return nil, fmt.Errorf("query top tags: %w", err)
	}
	defer rows.Close()

	var out []domain.TagCount
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan top tag: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func bounds(from, to string) (string, string) {
	if from == "" {
		from = "0000-00-00"
	}
	if to == "" {
		to = "9999-99-99"
	}
	return from, to
}
