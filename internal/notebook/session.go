package notebook

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/at-ishikawa/learntools/internal/metrics"
)

// Timings are the debounce windows of the three kinds of writes.
type Timings struct {
	Page     time.Duration
	Bookmark time.Duration
	LastPage time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Page:     350 * time.Millisecond,
		Bookmark: 400 * time.Millisecond,
		LastPage: 250 * time.Millisecond,
	}
}

const (
	lastPageKey    = "notebook:last-page"
	degradedNotice = "Opslag is niet beschikbaar; je notities worden niet bewaard."
)

func pageWriteKey(pageIndex int) string {
	return fmt.Sprintf("page:%d", pageIndex)
}

func bookmarkWriteKey(bookmarkID string) string {
	return "bookmark:" + bookmarkID
}

// Session is one open notebook. Every write for its pages and bookmarks goes
// through the session's debouncer.
type Session struct {
	store    Store
	degraded bool
	timings  Timings
	now      func() time.Time
	writes   *Debouncer

	mu        sync.Mutex
	config    Config
	notebook  Notebook
	bookmarks []Bookmark
	current   Page

	turning     atomic.Bool
	reloadToken atomic.Uint64
}

type SessionOption func(*Session)

func WithTimings(t Timings) SessionOption {
	return func(s *Session) { s.timings = t }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// Open ensures the notebook and loads its last viewed page. A nil store, or
// one that fails while opening, leaves the session in degraded mode on an
// in-memory store instead of failing.
func Open(ctx context.Context, store Store, id string, cfg Config, opts ...SessionOption) (*Session, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	s := &Session{
		store:   store,
		timings: DefaultTimings(),
		now:     time.Now,
		writes:  NewDebouncer(ctx),
		config:  cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.degrade(nil)
	}
	if err := s.load(ctx, id); err != nil {
		if s.degraded {
			return nil, err
		}
		s.degrade(err)
		if err := s.load(ctx, id); err != nil {
			return nil, err
		}
	}
	metrics.NotebookSessions.Inc()
	return s, nil
}

func (s *Session) degrade(cause error) {
	if cause != nil {
		metrics.StorageErrors.WithLabelValues("notebook").Inc()
		slog.Default().Warn("notebook storage unavailable, continuing without persistence", "error", cause)
	}
	s.store = NewMemoryStore()
	s.degraded = true
}

func (s *Session) load(ctx context.Context, id string) error {
	nb, err := EnsureNotebook(ctx, s.store, id, s.config, s.now())
	if err != nil {
		return fmt.Errorf("EnsureNotebook() > %w", err)
	}
	bookmarks, err := s.store.GetBookmarks(ctx, id)
	if err != nil {
		return fmt.Errorf("store.GetBookmarks() > %w", err)
	}
	SortBookmarks(bookmarks)
	index := clampInt(nb.LastPageIndex, 0, nb.PagesCount-1)
	page, err := s.readPage(ctx, id, index)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notebook = nb
	s.bookmarks = bookmarks
	s.current = page
	return nil
}

func (s *Session) readPage(ctx context.Context, id string, index int) (Page, error) {
	stored, err := s.store.GetPage(ctx, id, index)
	if err != nil {
		return Page{}, fmt.Errorf("store.GetPage() > %w", err)
	}
	if stored == nil {
		return Page{Key: PageKey(id, index), NotebookID: id, PageIndex: index, Strokes: Strokes{}}, nil
	}
	return *stored, nil
}

// Degraded reports whether edits only live in memory.
func (s *Session) Degraded() bool {
	return s.degraded
}

// Warning is the notice shown in degraded mode.
func (s *Session) Warning() string {
	if s.degraded {
		return degradedNotice
	}
	return ""
}

func (s *Session) Notebook() Notebook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notebook
}

func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Session) Bookmarks() []Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bookmarks)
}

// CurrentPage returns the open page including unsaved edits.
func (s *Session) CurrentPage() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Turning reports whether a page turn is in progress.
func (s *Session) Turning() bool {
	return s.turning.Load()
}

// EditPage replaces the content of the open page and schedules its write.
func (s *Session) EditPage(text string, strokes Strokes) Page {
	s.mu.Lock()
	s.current.Text = text
	s.current.Strokes = strokes.Normalize()
	s.current.UpdatedAt = Timestamp(s.now())
	page := s.current
	s.mu.Unlock()

	s.writes.Schedule(pageWriteKey(page.PageIndex), s.timings.Page, func(ctx context.Context) error {
		if err := s.store.PutPage(ctx, page); err != nil {
			return fmt.Errorf("store.PutPage() > %w", err)
		}
		metrics.NotebookWrites.WithLabelValues("pages").Inc()
		s.scheduleLastPage(page.PageIndex)
		return nil
	})
	return page
}

func (s *Session) scheduleLastPage(pageIndex int) {
	s.writes.Schedule(lastPageKey, s.timings.LastPage, func(ctx context.Context) error {
		s.mu.Lock()
		nb := s.notebook
		nb.LastPageIndex = pageIndex
		nb.UpdatedAt = Timestamp(s.now())
		s.mu.Unlock()

		if err := s.store.PutNotebook(ctx, nb); err != nil {
			return fmt.Errorf("store.PutNotebook() > %w", err)
		}
		metrics.NotebookWrites.WithLabelValues("notebooks").Inc()

		s.mu.Lock()
		s.notebook.LastPageIndex = pageIndex
		s.notebook.UpdatedAt = nb.UpdatedAt
		s.mu.Unlock()
		return nil
	})
}

// EditBookmark replaces the strokes drawn on a bookmark and schedules its write.
func (s *Session) EditBookmark(bookmarkID string, strokes Strokes) (Bookmark, error) {
	s.mu.Lock()
	i := slices.IndexFunc(s.bookmarks, func(b Bookmark) bool { return b.BookmarkID == bookmarkID })
	if i < 0 {
		s.mu.Unlock()
		return Bookmark{}, fmt.Errorf("%w: %s", ErrUnknownBookmark, bookmarkID)
	}
	s.bookmarks[i].Strokes = strokes.Normalize()
	s.bookmarks[i].UpdatedAt = Timestamp(s.now())
	bm := s.bookmarks[i]
	s.mu.Unlock()

	s.writes.Schedule(bookmarkWriteKey(bookmarkID), s.timings.Bookmark, func(ctx context.Context) error {
		if err := s.store.PutBookmark(ctx, bm); err != nil {
			return fmt.Errorf("store.PutBookmark() > %w", err)
		}
		metrics.NotebookWrites.WithLabelValues("bookmarks").Inc()
		return nil
	})
	return bm, nil
}

// TurnPage flushes the open page and loads target, clamped into the notebook.
// A turn while another is running fails with ErrBusy.
func (s *Session) TurnPage(ctx context.Context, target int) (Page, error) {
	if !s.turning.CompareAndSwap(false, true) {
		return Page{}, ErrBusy
	}
	defer s.turning.Store(false)

	s.mu.Lock()
	target = clampInt(target, 0, s.notebook.PagesCount-1)
	current := s.current
	id := s.notebook.ID
	s.mu.Unlock()
	if target == current.PageIndex {
		return current, nil
	}

	// A failed flush is logged by the debouncer; the turn still happens.
	_ = s.writes.Flush(ctx, pageWriteKey(current.PageIndex))
	_ = s.writes.Flush(ctx, lastPageKey)

	page, err := s.readPage(ctx, id, target)
	if err != nil {
		return Page{}, err
	}
	s.mu.Lock()
	s.current = page
	s.mu.Unlock()
	s.scheduleLastPage(target)
	return page, nil
}

func (s *Session) NextPage(ctx context.Context) (Page, error) {
	return s.TurnPage(ctx, s.CurrentPage().PageIndex+1)
}

func (s *Session) PreviousPage(ctx context.Context) (Page, error) {
	return s.TurnPage(ctx, s.CurrentPage().PageIndex-1)
}

// AddBookmark bookmarks the open page in the first free slot, or after the
// last bookmark when all slots are taken.
func (s *Session) AddBookmark(ctx context.Context, name string) (Bookmark, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Bookmark{}, ErrEmptyName
	}

	s.mu.Lock()
	used := make(map[int]bool, len(s.bookmarks))
	for _, b := range s.bookmarks {
		used[b.Slot] = true
	}
	slot := 0
	for slot < BookmarkSlots && used[slot] {
		slot++
	}
	if slot >= BookmarkSlots {
		slot = len(s.bookmarks)
	}
	ts := Timestamp(s.now())
	bm := Bookmark{
		NotebookID: s.notebook.ID,
		BookmarkID: NewBookmarkID(),
		Name:       name,
		PageIndex:  s.current.PageIndex,
		Slot:       slot,
		Strokes:    Strokes{},
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	bm.Key = BookmarkKey(bm.NotebookID, bm.BookmarkID)
	s.mu.Unlock()

	if err := s.store.PutBookmark(ctx, bm); err != nil {
		return Bookmark{}, fmt.Errorf("store.PutBookmark() > %w", err)
	}
	metrics.NotebookWrites.WithLabelValues("bookmarks").Inc()

	s.mu.Lock()
	s.bookmarks = append(s.bookmarks, bm)
	SortBookmarks(s.bookmarks)
	s.mu.Unlock()
	return bm, nil
}

// Flush forces every pending write, including the last-page write a page
// write schedules.
func (s *Session) Flush(ctx context.Context) error {
	return s.writes.FlushAll(ctx)
}

// PendingWrites lists the keys of writes not yet stored.
func (s *Session) PendingWrites() []string {
	return s.writes.Pending()
}

// BeginReload starts a configuration refetch. Only the response of the latest
// reload may be applied.
func (s *Session) BeginReload() uint64 {
	return s.reloadToken.Add(1)
}

// ApplyConfig applies a refetched configuration. Responses of superseded
// reloads fail with ErrStaleResponse.
func (s *Session) ApplyConfig(ctx context.Context, token uint64, cfg Config) error {
	if token != s.reloadToken.Load() {
		return ErrStaleResponse
	}
	s.mu.Lock()
	id := s.notebook.ID
	s.mu.Unlock()

	nb, err := EnsureNotebook(ctx, s.store, id, cfg, s.now())
	if err != nil {
		return fmt.Errorf("EnsureNotebook() > %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.reloadToken.Load() {
		return ErrStaleResponse
	}
	s.config = cfg
	s.notebook.PagesCount = nb.PagesCount
	return nil
}

// Snapshot is a full export of one notebook.
type Snapshot struct {
	ExportedAt string     `json:"exportedAt"`
	Degraded   bool       `json:"degraded,omitempty"`
	Notebook   Notebook   `json:"notebook"`
	Settings   Config     `json:"settings"`
	Bookmarks  []Bookmark `json:"bookmarks"`
	Pages      []Page     `json:"pages"`
}

// Export assembles a snapshot. The open page is taken from memory since it
// may be ahead of its last write.
func (s *Session) Export(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	nb := s.notebook
	cfg := s.config
	live := s.current
	liveBookmarks := slices.Clone(s.bookmarks)
	s.mu.Unlock()

	var pages []Page
	var stored []Bookmark
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pages, err = s.store.ListPages(gctx, nb.ID)
		if err != nil {
			return fmt.Errorf("store.ListPages() > %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stored, err = s.store.GetBookmarks(gctx, nb.ID)
		if err != nil {
			return fmt.Errorf("store.GetBookmarks() > %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		ExportedAt: Timestamp(s.now()),
		Degraded:   s.degraded,
		Notebook:   nb,
		Settings:   cfg,
		Bookmarks:  mergeBookmarks(stored, liveBookmarks),
		Pages:      mergePages(pages, live),
	}, nil
}

func mergePages(stored []Page, live Page) []Page {
	out := make([]Page, 0, len(stored)+1)
	replaced := false
	for _, p := range stored {
		if p.PageIndex == live.PageIndex {
			out = append(out, live)
			replaced = true
			continue
		}
		out = append(out, p)
	}
	if !replaced && (live.Text != "" || len(live.Strokes) > 0) {
		out = append(out, live)
	}
	slices.SortFunc(out, func(a, b Page) int { return a.PageIndex - b.PageIndex })
	return out
}

// mergeBookmarks prefers the in-memory copy, whose strokes may be unsaved.
func mergeBookmarks(stored, live []Bookmark) []Bookmark {
	byID := make(map[string]Bookmark, len(stored)+len(live))
	for _, b := range stored {
		byID[b.BookmarkID] = b
	}
	for _, b := range live {
		byID[b.BookmarkID] = b
	}
	out := make([]Bookmark, 0, len(byID))
	for _, b := range byID {
		out = append(out, b)
	}
	SortBookmarks(out)
	return out
}

// Close flushes pending writes and releases the session.
func (s *Session) Close(ctx context.Context) error {
	defer metrics.NotebookSessions.Dec()
	return s.writes.Stop(ctx)
}
