package notebook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:generate mockgen -source=store.go -destination=../mocks/notebook/mock_store.go -package=mock_notebook

// Store persists notebooks, pages and bookmarks. Get methods return nil
// without an error for missing records.
type Store interface {
	GetNotebook(ctx context.Context, id string) (*Notebook, error)
	PutNotebook(ctx context.Context, nb Notebook) error
	GetPage(ctx context.Context, notebookID string, pageIndex int) (*Page, error)
	PutPage(ctx context.Context, page Page) error
	ListPages(ctx context.Context, notebookID string) ([]Page, error)
	GetBookmarks(ctx context.Context, notebookID string) ([]Bookmark, error)
	PutBookmark(ctx context.Context, bookmark Bookmark) error
}

// DBStore implements Store with the notebooks, pages and bookmarks tables.
type DBStore struct {
	db *sqlx.DB
}

func NewDBStore(db *sqlx.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) GetNotebook(ctx context.Context, id string) (*Notebook, error) {
	var nb Notebook
	err := s.db.GetContext(ctx, &nb,
		"SELECT id, title, pages_count, last_page_index, created_at, updated_at FROM notebooks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(notebook) > %w", err)
	}
	return &nb, nil
}

func (s *DBStore) PutNotebook(ctx context.Context, nb Notebook) error {
	_, err := s.db.NamedExecContext(ctx,
		`REPLACE INTO notebooks (id, title, pages_count, last_page_index, created_at, updated_at)
		VALUES (:id, :title, :pages_count, :last_page_index, :created_at, :updated_at)`, nb)
	if err != nil {
		return fmt.Errorf("db.NamedExecContext(notebook) > %w", err)
	}
	return nil
}

func (s *DBStore) GetPage(ctx context.Context, notebookID string, pageIndex int) (*Page, error) {
	var page Page
	err := s.db.GetContext(ctx, &page,
		"SELECT page_key, notebook_id, page_index, text, strokes, updated_at FROM pages WHERE page_key = ?",
		PageKey(notebookID, pageIndex))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(page) > %w", err)
	}
	return &page, nil
}

func (s *DBStore) PutPage(ctx context.Context, page Page) error {
	page.Key = PageKey(page.NotebookID, page.PageIndex)
	_, err := s.db.NamedExecContext(ctx,
		`REPLACE INTO pages (page_key, notebook_id, page_index, text, strokes, updated_at)
		VALUES (:page_key, :notebook_id, :page_index, :text, :strokes, :updated_at)`, page)
	if err != nil {
		return fmt.Errorf("db.NamedExecContext(page) > %w", err)
	}
	return nil
}

func (s *DBStore) ListPages(ctx context.Context, notebookID string) ([]Page, error) {
	var pages []Page
	if err := s.db.SelectContext(ctx, &pages,
		"SELECT page_key, notebook_id, page_index, text, strokes, updated_at FROM pages WHERE notebook_id = ? ORDER BY page_index",
		notebookID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(pages) > %w", err)
	}
	return pages, nil
}

func (s *DBStore) GetBookmarks(ctx context.Context, notebookID string) ([]Bookmark, error) {
	var bookmarks []Bookmark
	if err := s.db.SelectContext(ctx, &bookmarks,
		`SELECT bookmark_key, notebook_id, bookmark_id, name, page_index, slot, strokes, preset, created_at, updated_at
		FROM bookmarks WHERE notebook_id = ? ORDER BY slot, name`, notebookID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(bookmarks) > %w", err)
	}
	return bookmarks, nil
}

func (s *DBStore) PutBookmark(ctx context.Context, bookmark Bookmark) error {
	bookmark.Key = BookmarkKey(bookmark.NotebookID, bookmark.BookmarkID)
	_, err := s.db.NamedExecContext(ctx,
		`REPLACE INTO bookmarks (bookmark_key, notebook_id, bookmark_id, name, page_index, slot, strokes, preset, created_at, updated_at)
		VALUES (:bookmark_key, :notebook_id, :bookmark_id, :name, :page_index, :slot, :strokes, :preset, :created_at, :updated_at)`, bookmark)
	if err != nil {
		return fmt.Errorf("db.NamedExecContext(bookmark) > %w", err)
	}
	return nil
}

// MemoryStore keeps records in process memory. Sessions without durable
// storage run on it.
type MemoryStore struct {
	mu        sync.RWMutex
	notebooks map[string]Notebook
	pages     map[string]Page
	bookmarks map[string]Bookmark
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notebooks: make(map[string]Notebook),
		pages:     make(map[string]Page),
		bookmarks: make(map[string]Bookmark),
	}
}

func (s *MemoryStore) GetNotebook(_ context.Context, id string) (*Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nb, ok := s.notebooks[id]
	if !ok {
		return nil, nil
	}
	return &nb, nil
}

func (s *MemoryStore) PutNotebook(_ context.Context, nb Notebook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notebooks[nb.ID] = nb
	return nil
}

func (s *MemoryStore) GetPage(_ context.Context, notebookID string, pageIndex int) (*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[PageKey(notebookID, pageIndex)]
	if !ok {
		return nil, nil
	}
	return &page, nil
}

func (s *MemoryStore) PutPage(_ context.Context, page Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page.Key = PageKey(page.NotebookID, page.PageIndex)
	page.Strokes = slices.Clone(page.Strokes)
	s.pages[page.Key] = page
	return nil
}

func (s *MemoryStore) ListPages(_ context.Context, notebookID string) ([]Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pages []Page
	for _, key := range slices.Sorted(maps.Keys(s.pages)) {
		if page := s.pages[key]; page.NotebookID == notebookID {
			pages = append(pages, page)
		}
	}
	slices.SortFunc(pages, func(a, b Page) int { return a.PageIndex - b.PageIndex })
	return pages, nil
}

func (s *MemoryStore) GetBookmarks(_ context.Context, notebookID string) ([]Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bookmarks []Bookmark
	for _, bm := range s.bookmarks {
		if bm.NotebookID == notebookID {
			bookmarks = append(bookmarks, bm)
		}
	}
	SortBookmarks(bookmarks)
	return bookmarks, nil
}

func (s *MemoryStore) PutBookmark(_ context.Context, bookmark Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bookmark.Key = BookmarkKey(bookmark.NotebookID, bookmark.BookmarkID)
	bookmark.Strokes = slices.Clone(bookmark.Strokes)
	s.bookmarks[bookmark.Key] = bookmark
	return nil
}

// SortBookmarks orders bookmarks by slot, then name.
func SortBookmarks(bookmarks []Bookmark) {
	slices.SortFunc(bookmarks, func(a, b Bookmark) int {
		if a.Slot != b.Slot {
			return a.Slot - b.Slot
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// EnsureNotebook returns the notebook with id, creating it from cfg with its
// preset bookmarks when missing. An existing notebook only ever grows its
// page count.
func EnsureNotebook(ctx context.Context, store Store, id string, cfg Config, now time.Time) (Notebook, error) {
	if id == "" {
		return Notebook{}, ErrMissingID
	}
	existing, err := store.GetNotebook(ctx, id)
	if err != nil {
		return Notebook{}, fmt.Errorf("store.GetNotebook() > %w", err)
	}
	if existing != nil {
		if cfg.PagesCount > existing.PagesCount {
			existing.PagesCount = cfg.PagesCount
			existing.UpdatedAt = Timestamp(now)
			if err := store.PutNotebook(ctx, *existing); err != nil {
				return Notebook{}, fmt.Errorf("store.PutNotebook() > %w", err)
			}
		}
		return *existing, nil
	}

	pagesCount := cfg.PagesCount
	if pagesCount <= 0 {
		pagesCount = DefaultPagesCount
	}
	ts := Timestamp(now)
	nb := Notebook{
		ID:         id,
		Title:      defaultTitle(cfg.Title),
		PagesCount: pagesCount,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if err := store.PutNotebook(ctx, nb); err != nil {
		return Notebook{}, fmt.Errorf("store.PutNotebook() > %w", err)
	}

	for i, placement := range PresetPlacements(pagesCount, len(cfg.Bookmarks)) {
		bm := Bookmark{
			NotebookID: id,
			BookmarkID: NewBookmarkID(),
			Name:       cfg.Bookmarks[i],
			PageIndex:  placement.PageIndex,
			Slot:       placement.Slot,
			Strokes:    Strokes{},
			Preset:     true,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
		bm.Key = BookmarkKey(id, bm.BookmarkID)
		if err := store.PutBookmark(ctx, bm); err != nil {
			return Notebook{}, fmt.Errorf("store.PutBookmark() > %w", err)
		}
	}
	return nb, nil
}

func defaultTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return DefaultTitle
	}
	return title
}
