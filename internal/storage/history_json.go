package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focustimer/internal/core/model"
)

// A history file preserved before a rewrite is renamed to
// <path>.corrupt-<timestamp>, with a counter when that name is taken.
const (
	corruptSuffix = ".corrupt-"
	corruptStamp  = "20060102-150405"
)

type sessionRecord struct {
	Date          string `json:"date"`
	DatetimeStart string `json:"datetime_start"`
	Objective     string `json:"objective"`
	Type          string `json:"type"`
	Minutes       int    `json:"minutes"`
}

// JSONHistory stores the session log as a single indented JSON array.
type JSONHistory struct {
	path string
	now  func() time.Time
}

// NewJSONHistory returns a store backed by the JSON file at path.
func NewJSONHistory(path string) *JSONHistory {
	return &JSONHistory{path: path, now: time.Now}
}

// Load returns every stored session in file order. A missing file is an empty log.
func (store *JSONHistory) Load(ctx context.Context) ([]model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(bytes.TrimSpace(rawData)) == 0 {
		return nil, nil
	}

	var records []sessionRecord
	if err := json.Unmarshal(rawData, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptHistory, store.path, err)
	}

	sessions := make([]model.Session, 0, len(records))
	for i, record := range records {
		session, err := record.toSession()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %v", ErrCorruptHistory, store.path, i, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// ByDate returns the sessions recorded on the calendar day of date.
func (store *JSONHistory) ByDate(ctx context.Context, date time.Time) ([]model.Session, error) {
	sessions, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return filterByDate(sessions, date), nil
}

// Append adds one session and rewrites the whole file. A corrupt file is preserved
// next to the log before it is replaced.
func (store *JSONHistory) Append(ctx context.Context, session model.Session) error {
	sessions, err := store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCorruptHistory) {
			return fmt.Errorf("append session: %w", err)
		}
		if err := store.preserveCorrupt(); err != nil {
			return fmt.Errorf("append session: %w", err)
		}
		sessions = nil
	}

	records := make([]sessionRecord, 0, len(sessions)+1)
	for _, existing := range sessions {
		records = append(records, fromSession(existing))
	}
	records = append(records, fromSession(session))

	if err := store.write(records); err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (store *JSONHistory) Close() error {
	return nil
}

func (store *JSONHistory) preserveCorrupt() error {
	base := store.path + corruptSuffix + store.now().Format(corruptStamp)
	backup := base
	for i := 1; ; i++ {
		_, err := os.Lstat(backup)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return fmt.Errorf("preserve corrupt history: %w", err)
		}
		backup = fmt.Sprintf("%s-%d", base, i)
	}
	if err := os.Rename(store.path, backup); err != nil {
		return fmt.Errorf("preserve corrupt history: %w", err)
	}
	return nil
}

func (store *JSONHistory) write(records []sessionRecord) error {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(store.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(store.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(buffer.Bytes()); err != nil {
		tempFile.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tempPath, store.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

func fromSession(session model.Session) sessionRecord {
	return sessionRecord{
		Date:          session.Date.Format(model.DateLayout),
		DatetimeStart: session.StartedAt.Format(model.DateTimeLayout),
		Objective:     session.Objective,
		Type:          string(session.Type),
		Minutes:       session.Minutes,
	}
}

func (record sessionRecord) toSession() (model.Session, error) {
	date, err := time.ParseInLocation(model.DateLayout, record.Date, time.Local)
	if err != nil {
		return model.Session{}, fmt.Errorf("parse date: %w", err)
	}
	startedAt, err := time.ParseInLocation(model.DateTimeLayout, record.DatetimeStart, time.Local)
	if err != nil {
		return model.Session{}, fmt.Errorf("parse datetime_start: %w", err)
	}
	sessionType, err := model.ParseSessionType(record.Type)
	if err != nil {
		return model.Session{}, err
	}
	if record.Minutes < 0 {
		return model.Session{}, fmt.Errorf("negative minutes %d", record.Minutes)
	}
	return model.Session{
		Date:      date,
		StartedAt: startedAt,
		Objective: record.Objective,
		Type:      sessionType,
		Minutes:   record.Minutes,
	}, nil
}
