package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// Manager owns the single process-wide Postgres connection pool. The first
// Acquire opens and pings the pool; concurrent callers during establishment
// wait on the same attempt. A failed attempt is discarded so a later call
// can retry. Every component must obtain the pool through the manager
// rather than opening a second one.
type Manager struct {
	url string

	mu sync.Mutex
	db *sql.DB
}

// NewManager returns a Manager for the given connection URL. No connection
// is opened until the first Acquire.
func NewManager(url string) *Manager {
	return &Manager{url: url}
}

// Acquire returns the cached pool, establishing it on first use.
func (m *Manager) Acquire(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		return m.db, nil
	}
	db, err := sql.Open("postgres", m.url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	m.db = db
	return m.db, nil
}

// Shutdown closes the pool if it was established. Safe to call multiple times.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
