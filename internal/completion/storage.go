package completion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:generate mockgen -source=storage.go -destination=../mocks/completion/mock_storage.go -package=mock_completion

// Storage is a key to string map, the same shape as browser local storage.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// MemoryStorage keeps items in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (s *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// DBStorage stores items in the completions table.
type DBStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewDBStorage(db *sqlx.DB) *DBStorage {
	return &DBStorage{db: db, now: time.Now}
}

func (s *DBStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM completions WHERE storage_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("db.GetContext() > %w", err)
	}
	return value, true, nil
}

func (s *DBStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"REPLACE INTO completions (storage_key, value, updated_at) VALUES (?, ?, ?)",
		key, value, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("db.ExecContext() > %w", err)
	}
	return nil
}

func (s *DBStorage) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM completions WHERE storage_key = ?", key); err != nil {
		return fmt.Errorf("db.ExecContext() > %w", err)
	}
	return nil
}
