package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/learntools/internal/metrics"
	mock_completion "github.com/at-ishikawa/learntools/internal/mocks/completion"
)

var fixedNow = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

func newTestTracker(store *Store, identity Identity, title string, onReset func()) *Tracker {
	tracker := New(context.Background(), store, identity, title, onReset)
	tracker.now = func() time.Time { return fixedNow }
	return tracker
}

func TestTracker_MarkCompleted(t *testing.T) {
	identity := Identity{ToolID: "tracker-test", Version: "v1", UniqueID: "test1", DataURL: "https://example.org/d.json"}

	tests := []struct {
		name      string
		title     string
		score     *Score
		wantScore *Score
		wantMeta  string
	}{
		{
			name:      "valid score",
			title:     "Binair",
			score:     &Score{Correct: 1, Total: 1},
			wantScore: &Score{Correct: 1, Total: 1},
			wantMeta:  "Opdracht: Binair · Score: 1/1 · Afgerond: 01 Mar 2025 10:30",
		},
		{
			name:      "invalid score is dropped",
			title:     "Binair",
			score:     &Score{Correct: 3, Total: 2},
			wantScore: nil,
			wantMeta:  "Opdracht: Binair · Afgerond: 01 Mar 2025 10:30",
		},
		{
			name:     "no title and no score",
			wantMeta: "Afgerond: 01 Mar 2025 10:30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.Completions.WithLabelValues("tracker-test"))
			store := NewStore(NewMemoryStorage())
			tracker := newTestTracker(store, identity, tt.title, nil)
			assert.False(t, tracker.Banner().Visible)

			record := tracker.MarkCompleted(context.Background(), tt.score)
			assert.Equal(t, tt.wantScore, record.Score)
			assert.Equal(t, "2025-03-01T10:30:00Z", record.CompletedAt)

			assert.Equal(t, Banner{Visible: true, Title: "Certificaat behaald", Meta: tt.wantMeta}, tracker.Banner())
			assert.True(t, tracker.IsCompleted(context.Background()))

			stored := store.Load(context.Background(), tracker.Key())
			require.NotNil(t, stored)
			assert.Equal(t, record, *stored)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.Completions.WithLabelValues("tracker-test")))
		})
	}
}

func TestNew_IsIdempotent(t *testing.T) {
	identity := Identity{ToolID: "timeline", Version: "v1", UniqueID: "x"}
	store := NewStore(NewMemoryStorage())

	first := newTestTracker(store, identity, "Tijdlijn", nil)
	first.MarkCompleted(context.Background(), nil)

	second := newTestTracker(store, identity, "Tijdlijn", nil)
	third := newTestTracker(store, identity, "Tijdlijn", nil)
	assert.Equal(t, first.Banner(), second.Banner())
	assert.Equal(t, second.Banner(), third.Banner())
	assert.True(t, third.Banner().Visible)
}

func TestNew_MigratesLegacyRecord(t *testing.T) {
	identity := Identity{ToolID: "juiste-volgorde", Version: "v1", UniqueID: "u1", DataURL: "https://example.org/v.json"}
	storage := NewMemoryStorage()
	store := NewStore(storage)
	store.Save(context.Background(), LegacyKey(identity), Record{
		ToolID: "juiste-volgorde", Version: "v1", DataURL: "https://example.org/v.json",
		CompletedAt: "2024-12-01T08:00:00Z",
	})

	tracker := newTestTracker(store, identity, "", nil)
	require.True(t, tracker.Banner().Visible)

	migrated := store.Load(context.Background(), StorageKey(identity))
	require.NotNil(t, migrated)
	assert.Equal(t, "u1", migrated.UniqueID)
	assert.Equal(t, "2024-12-01T08:00:00Z", migrated.CompletedAt)
	assert.Nil(t, store.Load(context.Background(), LegacyKey(identity)))
}

func TestTracker_Reset(t *testing.T) {
	identity := Identity{ToolID: "timeline", Version: "v1", UniqueID: "reset"}

	tests := []struct {
		name        string
		withReset   bool
		wantOutcome ResetOutcome
	}{
		{name: "calls the reset callback", withReset: true, wantOutcome: ResetCallback},
		{name: "asks for a reload without a callback", withReset: false, wantOutcome: ResetReload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(NewMemoryStorage())
			called := 0
			var onReset func()
			if tt.withReset {
				onReset = func() { called++ }
			}
			tracker := newTestTracker(store, identity, "", onReset)
			tracker.MarkCompleted(context.Background(), &Score{Correct: 1, Total: 1})

			got := tracker.Reset(context.Background())
			assert.Equal(t, tt.wantOutcome, got)
			assert.False(t, tracker.Banner().Visible)
			assert.False(t, tracker.IsCompleted(context.Background()))
			assert.Nil(t, store.Load(context.Background(), tracker.Key()))
			if tt.withReset {
				assert.Equal(t, 1, called)
			}
		})
	}
}

func TestTracker_CompletionSurvivesFailedWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mock_completion.NewMockStorage(ctrl)
	storage.EXPECT().GetItem(gomock.Any(), gomock.Any()).Return("", false, nil).AnyTimes()
	storage.EXPECT().SetItem(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("quota exceeded"))

	tracker := newTestTracker(NewStore(storage), Identity{ToolID: "t", Version: "v1", UniqueID: "u"}, "", nil)
	tracker.MarkCompleted(context.Background(), nil)

	assert.True(t, tracker.Banner().Visible)
	assert.True(t, tracker.IsCompleted(context.Background()))
}
