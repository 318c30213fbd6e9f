package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focustimer/internal/core/model"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const sessionsSchema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		datetime_start TEXT NOT NULL,
		objective TEXT NOT NULL,
		type TEXT NOT NULL,
		minutes INTEGER NOT NULL CHECK (minutes >= 0)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);
`

// SQLiteHistory stores sessions in an embedded SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory opens or creates the database at path.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLiteHistory{db: db}, nil
}

// Append inserts one session.
func (store *SQLiteHistory) Append(ctx context.Context, session model.Session) error {
	record := fromSession(session)
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, date, datetime_start, objective, type, minutes)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		record.Date,
		record.DatetimeStart,
		record.Objective,
		record.Type,
		record.Minutes,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Load returns every session in insertion order.
func (store *SQLiteHistory) Load(ctx context.Context) ([]model.Session, error) {
	rows, err := store.db.QueryContext(ctx, `
		SELECT date, datetime_start, objective, type, minutes
		FROM sessions
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ByDate returns the sessions recorded on the calendar day of date.
func (store *SQLiteHistory) ByDate(ctx context.Context, date time.Time) ([]model.Session, error) {
	rows, err := store.db.QueryContext(ctx, `
		SELECT date, datetime_start, objective, type, minutes
		FROM sessions
		WHERE date = ?
		ORDER BY rowid
	`, date.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query sessions by date: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// Close releases the database handle.
func (store *SQLiteHistory) Close() error {
	return store.db.Close()
}

func scanSessions(rows *sql.Rows) ([]model.Session, error) {
	var sessions []model.Session
	for rows.Next() {
		var record sessionRecord
		if err := rows.Scan(&record.Date, &record.DatetimeStart, &record.Objective, &record.Type, &record.Minutes); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session, err := record.toSession()
		if err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
