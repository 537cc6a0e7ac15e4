// Package server exposes the learning tools, the completion records and the
// notebooks over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/config"
	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/metrics"
	"github.com/at-ishikawa/learntools/internal/notebook"
	"github.com/at-ishikawa/learntools/internal/registry"
	"github.com/at-ishikawa/learntools/internal/tool"
)

// maxBodyBytes bounds request bodies; notebook pages with strokes are the largest.
const maxBodyBytes = 8 << 20

var errNotFound = errors.New("not found")

// Dependencies are the collaborators of a Server. Nil stores fall back to memory.
type Dependencies struct {
	Catalog     *tool.Catalog
	Fetcher     exercise.Fetcher
	Completions completion.Storage
	Notebooks   notebook.Store
	Directory   *registry.Directory
}

type Server struct {
	cfg         *config.Config
	catalog     *tool.Catalog
	fetcher     exercise.Fetcher
	completions *completion.Store
	directory   *registry.Directory
	quizzes     *quizSessions
	notebooks   *notebookSessions
	logger      *slog.Logger
}

func New(cfg *config.Config, deps Dependencies) *Server {
	if deps.Catalog == nil {
		deps.Catalog = tool.DefaultCatalog()
	}
	if deps.Completions == nil {
		deps.Completions = completion.NewMemoryStorage()
	}
	if deps.Directory == nil {
		deps.Directory = registry.NewDirectory(cfg.Registry.TypesDirectory, cfg.Registry.RegistryFilePath())
	}
	timings := notebook.Timings{
		Page:     cfg.Notebook.PageDebounce(),
		Bookmark: cfg.Notebook.BookmarkDebounce(),
		LastPage: cfg.Notebook.LastPageDebounce(),
	}
	return &Server{
		cfg:         cfg,
		catalog:     deps.Catalog,
		fetcher:     deps.Fetcher,
		completions: completion.NewStore(deps.Completions),
		directory:   deps.Directory,
		quizzes:     newQuizSessions(),
		notebooks:   newNotebookSessions(deps.Notebooks, timings, cfg.Notebook.DefaultPagesCount),
		logger:      slog.Default(),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.Server.CORS.AllowedOrigins))

	r.Get("/", s.handleIndex)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/tools", s.handleListTools)
		r.Get("/tools/{tool}/{version}/exercise", s.handleGetExercise)
		r.Post("/tools/{tool}/{version}/check", s.handleCheck)

		r.Get("/completions", s.handleGetCompletion)
		r.Delete("/completions", s.handleResetCompletion)

		r.Post("/quiz/start", s.handleStartQuiz)
		r.Get("/quiz/{session}", s.handleQuizState)
		r.Post("/quiz/answer", s.handleAnswerQuiz)

		r.Post("/markdown/render", s.handleRenderMarkdown)
		r.Post("/markdown/download", s.handleDownloadMarkdown)

		r.Route("/notebooks/{id}", func(r chi.Router) {
			r.Post("/open", s.handleOpenNotebook)
			r.Get("/", s.handleNotebookState)
			r.Delete("/", s.handleCloseNotebook)
			r.Get("/page", s.handleGetPage)
			r.Put("/page", s.handleEditPage)
			r.Post("/turn", s.handleTurnPage)
			r.Post("/bookmarks", s.handleAddBookmark)
			r.Put("/bookmarks/{bookmark}", s.handleEditBookmark)
			r.Post("/flush", s.handleFlushNotebook)
			r.Get("/export", s.handleExportNotebook)
		})
	})
	return r
}

// Close flushes and closes every open notebook.
func (s *Server) Close(ctx context.Context) error {
	return s.notebooks.closeAll(ctx)
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed[origin] || allowed["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		return &exercise.ConfigError{Kind: exercise.KindParameter, Err: err}
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

type errorResponse struct {
	Error  string                    `json:"error"`
	Kind   string                    `json:"kind,omitempty"`
	Fields exercise.ValidationErrors `json:"fields,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if kind, ok := exercise.KindOf(err); ok {
		resp.Kind = string(kind)
	}
	var fields exercise.ValidationErrors
	if errors.As(err, &fields) {
		resp.Fields = fields
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		if status == http.StatusInternalServerError {
			resp.Error = http.StatusText(status)
		}
	}
	s.writeJSON(w, status, resp)
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	if kind, ok := exercise.KindOf(err); ok {
		if kind == exercise.KindFetch {
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, errNotFound), errors.Is(err, notebook.ErrUnknownBookmark):
		return http.StatusNotFound
	case errors.Is(err, notebook.ErrBusy),
		errors.Is(err, notebook.ErrStaleResponse),
		errors.Is(err, tool.ErrNotRevealed),
		errors.Is(err, tool.ErrAlreadyAnswered):
		return http.StatusConflict
	case errors.Is(err, tool.ErrTimeExpired):
		return http.StatusGone
	case errors.Is(err, exercise.ErrInvalidAnswer),
		errors.Is(err, exercise.ErrNotGradable),
		errors.Is(err, notebook.ErrMissingID),
		errors.Is(err, notebook.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, errStorage):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var errStorage = errors.New("storage unavailable")

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
}
