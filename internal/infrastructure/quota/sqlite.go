package quota

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// counterID keys the single daily-search counter row.
const counterID = "search"

// Store persists the device-local daily search counter in SQLite, so the
// quota survives process restarts.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the quota database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open quota database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init quota schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns the stored day and count. An empty day means nothing has been
// recorded yet.
func (s *Store) Load(ctx context.Context) (string, int, error) {
	var day string
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT day, count FROM daily_quota WHERE id = ?", counterID,
	).Scan(&day, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("load daily quota: %w", err)
	}
	return day, count, nil
}

// Save upserts the counter for the given day.
func (s *Store) Save(ctx context.Context, day string, count int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_quota (id, day, count) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET day = excluded.day, count = excluded.count`,
		counterID, day, count,
	)
	if err != nil {
		return fmt.Errorf("save daily quota: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Memory is an in-process quota store used when no database path is
// configured; counts reset with the process.
type Memory struct {
	mu    sync.Mutex
	day   string
	count int
}

// NewMemory creates an empty in-process quota store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the current day and count.
func (m *Memory) Load(ctx context.Context) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.day, m.count, nil
}

// Save records the day and count.
func (m *Memory) Save(ctx context.Context, day string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.day = day
	m.count = count
	return nil
}
