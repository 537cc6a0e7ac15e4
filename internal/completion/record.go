package completion

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/at-ishikawa/learntools/internal/metrics"
)

type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (s Score) Valid() bool {
	return s.Correct >= 0 && s.Total >= 0 && s.Correct <= s.Total
}

// Record is the persisted evidence of a completed exercise instance.
type Record struct {
	ToolID      string `json:"toolId"`
	Version     string `json:"version"`
	DataURL     string `json:"dataUrl"`
	UniqueID    string `json:"uniqueId,omitempty"`
	Title       string `json:"title"`
	Score       *Score `json:"score"`
	CompletedAt string `json:"completedAt"`
}

// Store reads and writes records on top of a Storage. Every operation is
// best-effort: failures are logged and never returned.
type Store struct {
	storage Storage
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Load returns the record under key, or nil when there is none or it can't be used.
func (s *Store) Load(ctx context.Context, key string) *Record {
	raw, ok, err := s.storage.GetItem(ctx, key)
	if err != nil {
		slog.Default().Warn("failed to read completion record", "key", key, "error", err)
		metrics.StorageErrors.WithLabelValues("completion").Inc()
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		slog.Default().Debug("ignoring malformed completion record", "key", key, "error", err)
		return nil
	}
	if record.CompletedAt == "" {
		return nil
	}
	return &record
}

func (s *Store) Save(ctx context.Context, key string, record Record) {
	data, err := json.Marshal(record)
	if err != nil {
		slog.Default().Warn("failed to encode completion record", "key", key, "error", err)
		return
	}
	if err := s.storage.SetItem(ctx, key, string(data)); err != nil {
		slog.Default().Warn("failed to write completion record", "key", key, "error", err)
		metrics.StorageErrors.WithLabelValues("completion").Inc()
	}
}

func (s *Store) Clear(ctx context.Context, key string) {
	if err := s.storage.RemoveItem(ctx, key); err != nil {
		slog.Default().Warn("failed to remove completion record", "key", key, "error", err)
		metrics.StorageErrors.WithLabelValues("completion").Inc()
	}
}
