package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/at-ishikawa/learntools/internal/metrics"
)

const bannerTitle = "Certificaat behaald"

// Banner is the completion notice shown above an exercise.
type Banner struct {
	Visible bool   `json:"visible"`
	Title   string `json:"title,omitempty"`
	Meta    string `json:"meta,omitempty"`
}

type ResetOutcome int

const (
	// ResetCallback means the caller's reset function ran.
	ResetCallback ResetOutcome = iota
	// ResetReload means there was no reset function and the exercise must be reloaded.
	ResetReload
)

// Tracker owns the completion state of one exercise instance.
type Tracker struct {
	store    *Store
	identity Identity
	title    string
	key      string
	onReset  func()
	now      func() time.Time

	mu      sync.Mutex
	current *Record
}

// New creates a tracker and shows the banner when a record already exists.
// A record stored under the legacy key is moved to the current key.
func New(ctx context.Context, store *Store, identity Identity, title string, onReset func()) *Tracker {
	t := &Tracker{
		store:    store,
		identity: identity,
		title:    title,
		key:      StorageKey(identity),
		onReset:  onReset,
		now:      time.Now,
	}

	existing := store.Load(ctx, t.key)
	if existing == nil && identity.UniqueID != "" {
		existing = t.migrateLegacy(ctx)
	}
	t.current = existing
	return t
}

func (t *Tracker) migrateLegacy(ctx context.Context) *Record {
	legacyKey := LegacyKey(t.identity)
	record := t.store.Load(ctx, legacyKey)
	if record == nil {
		return nil
	}
	record.UniqueID = t.identity.UniqueID
	t.store.Save(ctx, t.key, *record)
	t.store.Clear(ctx, legacyKey)
	slog.Default().Info("migrated legacy completion record", "from", legacyKey, "to", t.key)
	return record
}

func (t *Tracker) Key() string {
	return t.key
}

// MarkCompleted persists a record for now and shows it. An invalid score is dropped.
func (t *Tracker) MarkCompleted(ctx context.Context, score *Score) Record {
	record := Record{
		ToolID:      t.identity.ToolID,
		Version:     t.identity.Version,
		DataURL:     t.identity.DataURL,
		UniqueID:    t.identity.UniqueID,
		Title:       t.title,
		CompletedAt: t.now().UTC().Format(time.RFC3339Nano),
	}
	if score != nil && score.Valid() {
		s := *score
		record.Score = &s
	}

	t.store.Save(ctx, t.key, record)
	metrics.Completions.WithLabelValues(t.identity.ToolID).Inc()

	t.mu.Lock()
	t.current = &record
	t.mu.Unlock()
	return record
}

// Reset clears the record and hides the banner.
func (t *Tracker) Reset(ctx context.Context) ResetOutcome {
	t.store.Clear(ctx, t.key)

	t.mu.Lock()
	t.current = nil
	t.mu.Unlock()

	if t.onReset != nil {
		t.onReset()
		return ResetCallback
	}
	return ResetReload
}

// IsCompleted reports a stored record, or a completion in this session whose write was lost.
func (t *Tracker) IsCompleted(ctx context.Context) bool {
	if t.store.Load(ctx, t.key) != nil {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil
}

func (t *Tracker) Record() *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	r := *t.current
	return &r
}

func (t *Tracker) Banner() Banner {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Banner{}
	}
	return Banner{
		Visible: true,
		Title:   bannerTitle,
		Meta:    bannerMeta(t.title, t.current),
	}
}

func bannerMeta(title string, record *Record) string {
	var parts []string
	if title != "" {
		parts = append(parts, "Opdracht: "+title)
	}
	if record.Score != nil {
		parts = append(parts, fmt.Sprintf("Score: %d/%d", record.Score.Correct, record.Score.Total))
	}
	if record.CompletedAt != "" {
		parts = append(parts, "Afgerond: "+formatCompletedAt(record.CompletedAt))
	}
	return strings.Join(parts, " · ")
}

func formatCompletedAt(value string) string {
	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return at.Format("02 Jan 2006 15:04")
}
