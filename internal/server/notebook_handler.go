package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/notebook"
	"github.com/at-ishikawa/learntools/internal/tool"
)

// notebookIdleTimeout is how long an untouched session stays open.
const notebookIdleTimeout = 30 * time.Minute

type openNotebook struct {
	session  *notebook.Session
	lastUsed time.Time
}

// notebookSessions keeps one Session per notebook id so every write for a
// notebook goes through a single debouncer. Idle sessions are closed on the
// next access.
type notebookSessions struct {
	store        notebook.Store
	timings      notebook.Timings
	defaultPages int
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*openNotebook
}

func newNotebookSessions(store notebook.Store, timings notebook.Timings, defaultPages int) *notebookSessions {
	return &notebookSessions{
		store:        store,
		timings:      timings,
		defaultPages: defaultPages,
		now:          time.Now,
		sessions:     make(map[string]*openNotebook),
	}
}

func (n *notebookSessions) get(ctx context.Context, id string) (*notebook.Session, error) {
	n.mu.Lock()
	idle := n.evictIdleLocked()
	open, ok := n.sessions[id]
	if ok {
		open.lastUsed = n.now()
	}
	n.mu.Unlock()
	closeIdle(ctx, idle)

	if !ok {
		return nil, fmt.Errorf("notebook %s is not open: %w", id, errNotFound)
	}
	return open.session, nil
}

// open returns the session of id, opening it with cfg when needed. opened
// is false when the session was already open.
func (n *notebookSessions) open(ctx context.Context, id string, cfg notebook.Config) (session *notebook.Session, opened bool, err error) {
	n.mu.Lock()
	idle := n.evictIdleLocked()
	defer func() { closeIdle(ctx, idle) }()
	defer n.mu.Unlock()

	now := n.now()
	if open, ok := n.sessions[id]; ok {
		open.lastUsed = now
		return open.session, false, nil
	}
	session, err = notebook.Open(ctx, n.store, id, cfg, notebook.WithTimings(n.timings))
	if err != nil {
		return nil, false, fmt.Errorf("notebook.Open() > %w: %w", errStorage, err)
	}
	n.sessions[id] = &openNotebook{session: session, lastUsed: now}
	return session, true, nil
}

// openOrApply opens the notebook with cfg, or applies cfg to the session that
// is already open. existing and token come from the BeginReload made before
// the configuration was fetched; a session opened since then is reloaded now.
func (n *notebookSessions) openOrApply(ctx context.Context, id string, existing *notebook.Session, token uint64, cfg notebook.Config) (*notebook.Session, error) {
	session, opened, err := n.open(ctx, id, cfg)
	if err != nil || opened {
		return session, err
	}
	if session != existing {
		token = session.BeginReload()
	}
	if err := session.ApplyConfig(ctx, token, cfg); err != nil {
		return nil, fmt.Errorf("ApplyConfig() > %w", err)
	}
	return session, nil
}

func (n *notebookSessions) evictIdleLocked() []*notebook.Session {
	var idle []*notebook.Session
	now := n.now()
	for id, open := range n.sessions {
		if now.Sub(open.lastUsed) > notebookIdleTimeout {
			idle = append(idle, open.session)
			delete(n.sessions, id)
		}
	}
	return idle
}

// closeIdle flushes evicted sessions even when the request is canceled.
func closeIdle(ctx context.Context, sessions []*notebook.Session) {
	ctx = context.WithoutCancel(ctx)
	for _, session := range sessions {
		if err := session.Close(ctx); err != nil {
			slog.Default().Warn("failed to close idle notebook", "notebook", session.Notebook().ID, "error", err)
		}
	}
}

func (n *notebookSessions) close(ctx context.Context, id string) error {
	n.mu.Lock()
	open, ok := n.sessions[id]
	delete(n.sessions, id)
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("notebook %s is not open: %w", id, errNotFound)
	}
	return open.session.Close(ctx)
}

func (n *notebookSessions) closeAll(ctx context.Context) error {
	n.mu.Lock()
	sessions := n.sessions
	n.sessions = make(map[string]*openNotebook)
	n.mu.Unlock()

	var errs []error
	for id, open := range sessions {
		if err := open.session.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close notebook %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

type notebookState struct {
	Notebook  notebook.Notebook   `json:"notebook"`
	Settings  notebook.Config     `json:"settings"`
	Bookmarks []notebook.Bookmark `json:"bookmarks"`
	Page      notebook.Page       `json:"page"`
	Degraded  bool                `json:"degraded"`
	Warning   string              `json:"warning,omitempty"`
}

func stateOf(session *notebook.Session) notebookState {
	bookmarks := session.Bookmarks()
	if bookmarks == nil {
		bookmarks = []notebook.Bookmark{}
	}
	return notebookState{
		Notebook:  session.Notebook(),
		Settings:  session.Config(),
		Bookmarks: bookmarks,
		Page:      session.CurrentPage(),
		Degraded:  session.Degraded(),
		Warning:   session.Warning(),
	}
}

// handleOpenNotebook opens the notebook, or applies a refetched configuration
// to an open one. Only the latest refetch of a notebook is applied.
func (s *Server) handleOpenNotebook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	params := exercise.ParseParams(r.URL.Query())
	params.NotebookID = id

	existing, _ := s.notebooks.get(r.Context(), id)
	var token uint64
	if existing != nil {
		token = existing.BeginReload()
	}

	def := tool.NotebookDefinition
	loaded, err := s.loadExercise(r.Context(), def.ID, def.Version, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg := loaded.exercise.(*tool.Notebook).Config()
	if params.DataURL == "" && s.notebooks.defaultPages > 0 {
		cfg.PagesCount = s.notebooks.defaultPages
	}

	session, err := s.notebooks.openOrApply(r.Context(), id, existing, token, cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stateOf(session))
}

// withSession resolves the open notebook of the request.
func (s *Server) withSession(fn func(w http.ResponseWriter, r *http.Request, session *notebook.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.notebooks.get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		fn(w, r, session)
	}
}

func (s *Server) handleNotebookState(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, session *notebook.Session) {
		s.writeJSON(w, http.StatusOK, stateOf(session))
	})(w, r)
}

func (s *Server) handleCloseNotebook(w http.ResponseWriter, r *http.Request) {
	if err := s.notebooks.close(r.Context(), chi.URLParam(r, "id")); err != nil {
		if !errors.Is(err, errNotFound) {
			err = fmt.Errorf("%w: %w", errStorage, err)
		}
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, session *notebook.Session) {
		s.writeJSON(w, http.StatusOK, session.CurrentPage())
	})(w, r)
}

type editPageRequest struct {
	Text    string           `json:"text"`
	Strokes notebook.Strokes `json:"strokes"`
}

func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, session *notebook.Session) {
		var req editPageRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, session.EditPage(req.Text, req.Strokes))
	})(w, r)
}

type turnPageRequest struct {
	// Target is a page index; Direction is next or previous.
	Target    *int   `json:"target"`
	Direction string `json:"direction"`
}

func (s *Server) handleTurnPage(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, session *notebook.Session) {
		var req turnPageRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		var page notebook.Page
		var err error
		switch {
		case req.Target != nil:
			page, err = session.TurnPage(r.Context(), *req.Target)
		case req.Direction == "next":
			page, err = session.NextPage(r.Context())
		case req.Direction == "previous":
			page, err = session.PreviousPage(r.Context())
		default:
			err = &exercise.ConfigError{Kind: exercise.KindParameter, Err: errors.New("target or direction is required")}
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, page)
	})(w, r)
}

type addBookmarkRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, session *notebook.Session) {
		var req addBookmarkRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		bookmark, err := session.AddBookmark(r.Context(), req.Name)
		if err != nil {
			if !errors.Is(err, notebook.ErrEmptyName) {
				err = fmt.Errorf("%w: %w", errStorage, err)
			}
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, bookmark)
	})(w, r)
}

type editBookmarkRequest struct {
	Strokes notebook.Strokes `json:"strokes"`
}

func (s *Server) handleEditBookmark(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, session *notebook.Session) {
		var req editBookmarkRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		bookmark, err := session.EditBookmark(chi.URLParam(r, "bookmark"), req.Strokes)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, bookmark)
	})(w, r)
}

func (s *Server) handleFlushNotebook(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, session *notebook.Session) {
		if err := session.Flush(r.Context()); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %w", errStorage, err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

func (s *Server) handleExportNotebook(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(w http.ResponseWriter, r *http.Request, session *notebook.Session) {
		snapshot, err := session.Export(r.Context())
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %w", errStorage, err))
			return
		}
		attachment(w, "application/json; charset=utf-8", notebook.ExportFilename(session.Notebook().ID))
		s.writeJSON(w, http.StatusOK, snapshot)
	})(w, r)
}
