package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id                TEXT PRIMARY KEY,
	title             TEXT,
	url               TEXT,
	created_at        TIMESTAMP NOT NULL,
	period_start      TEXT,
	period_end        TEXT,
	body              TEXT,
	notification_sent INTEGER NOT NULL DEFAULT 0
)`

// SQLiteStore implements RecordStore on a local SQLite database
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer by design; avoids SQLITE_BUSY on overlapping statements
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// GetOrCreate inserts a record under its natural key, or returns the existing
// row unchanged
func (s *SQLiteStore) GetOrCreate(ctx context.Context, rec Record) (Record, bool, error) {
	rec.CreatedAt = s.now()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, title, url, created_at, period_start, period_end, body, notification_sent)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO NOTHING`,
		rec.ID, rec.Title, rec.URL, rec.CreatedAt, rec.PeriodStart, rec.PeriodEnd, rec.Body,
	)
	if err != nil {
		return Record{}, false, fmt.Errorf("insert record %s: %w", rec.ID, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return Record{}, false, fmt.Errorf("insert record %s: %w", rec.ID, err)
	}

	stored, err := s.get(ctx, rec.ID)
	if err != nil {
		return Record{}, false, err
	}
	return stored, inserted > 0, nil
}

// UpdateBody sets the extracted text of a record
func (s *SQLiteStore) UpdateBody(ctx context.Context, id, body string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE records SET body = ? WHERE id = ?`, body, id); err != nil {
		return fmt.Errorf("update body of %s: %w", id, err)
	}
	return nil
}

// UpdatePeriod sets the announced outage window of a record
func (s *SQLiteStore) UpdatePeriod(ctx context.Context, id, start, end string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE records SET period_start = ?, period_end = ? WHERE id = ?`, start, end, id); err != nil {
		return fmt.Errorf("update period of %s: %w", id, err)
	}
	return nil
}

// MarkNotified flips the notified flag
func (s *SQLiteStore) MarkNotified(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE records SET notification_sent = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark %s notified: %w", id, err)
	}
	return nil
}

// UnnotifiedMatching returns unnotified records whose title or body matches,
// ordered newest-first by creation time
func (s *SQLiteStore) UnnotifiedMatching(ctx context.Context, match MatchFunc) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, url, created_at, period_start, period_end, body, notification_sent
		FROM records
		WHERE notification_sent = 0
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query unnotified records: %w", err)
	}
	defer rows.Close()

	var matched []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if match == nil || match(rec.Title, rec.Body) {
			matched = append(matched, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unnotified records: %w", err)
	}
	return matched, nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, url, created_at, period_start, period_end, body, notification_sent
		FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return Record{}, fmt.Errorf("record %s not found", id)
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var title, periodStart, periodEnd, body sql.NullString
	var sent int

	err := row.Scan(&rec.ID, &title, &rec.URL, &rec.CreatedAt, &periodStart, &periodEnd, &body, &sent)
	if err != nil {
		return Record{}, err
	}

	rec.Title = title.String
	rec.PeriodStart = periodStart.String
	rec.PeriodEnd = periodEnd.String
	rec.Body = body.String
	rec.NotificationSent = sent != 0
	return rec, nil
}
