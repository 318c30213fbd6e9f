package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focustimer/internal/core/model"
	"focustimer/internal/ui/preferences"
)

// ErrCorruptHistory indicates a history log that exists but cannot be decoded.
var ErrCorruptHistory = errors.New("history file is corrupt")

// HistoryStore persists finished sessions.
type HistoryStore interface {
	Append(ctx context.Context, session model.Session) error
	Load(ctx context.Context) ([]model.Session, error)
	ByDate(ctx context.Context, date time.Time) ([]model.Session, error)
	Close() error
}

// OpenHistory opens the history log with the given backend.
func OpenHistory(backend, path string) (HistoryStore, error) {
	switch backend {
	case "", preferences.BackendJSON:
		return NewJSONHistory(path), nil
	case preferences.BackendSQLite:
		return NewSQLiteHistory(path)
	default:
		return nil, fmt.Errorf("open history: unknown backend %q", backend)
	}
}

func filterByDate(sessions []model.Session, date time.Time) []model.Session {
	key := date.Format(model.DateLayout)
	var matched []model.Session
	for _, session := range sessions {
		if session.Date.Format(model.DateLayout) == key {
			matched = append(matched, session)
		}
	}
	return matched
}
