package completion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/learntools/internal/database"
)

func TestDBStorage_GetItem(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      string
		wantOK    bool
		wantErr   bool
	}{
		{
			name: "returns stored value",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT value FROM completions WHERE storage_key = \\?").
					WithArgs("k").
					WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"completedAt":"x"}`))
			},
			want:   `{"completedAt":"x"}`,
			wantOK: true,
		},
		{
			name: "missing row",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT value FROM completions WHERE storage_key = \\?").
					WithArgs("k").
					WillReturnRows(sqlmock.NewRows([]string{"value"}))
			},
			wantOK: false,
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT value FROM completions WHERE storage_key = \\?").
					WithArgs("k").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			storage := NewDBStorage(sqlx.NewDb(db, "mysql"))
			tt.setupMock(mock)

			got, ok, err := storage.GetItem(context.Background(), "k")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBStorage_SetItemAndRemoveItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := NewDBStorage(sqlx.NewDb(db, "mysql"))
	storage.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	mock.ExpectExec("REPLACE INTO completions \\(storage_key, value, updated_at\\) VALUES \\(\\?, \\?, \\?\\)").
		WithArgs("k", "v", "2025-01-02T03:04:05Z").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM completions WHERE storage_key = \\?").
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, storage.SetItem(context.Background(), "k", "v"))
	require.NoError(t, storage.RemoveItem(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBStorage_SQLite(t *testing.T) {
	storage := NewDBStorage(database.OpenMemory(t))
	store := NewStore(storage)
	ctx := context.Background()

	record := Record{ToolID: "t", Version: "v1", UniqueID: "u", CompletedAt: "2025-01-01T00:00:00Z", Score: &Score{Correct: 1, Total: 1}}
	store.Save(ctx, "k", record)
	store.Save(ctx, "k", record)

	got := store.Load(ctx, "k")
	require.NotNil(t, got)
	assert.Equal(t, record, *got)

	store.Clear(ctx, "k")
	assert.Nil(t, store.Load(ctx, "k"))
}
