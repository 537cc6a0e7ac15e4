package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/tool"
)

// loadedExercise is an exercise with its completion tracker, when it records completion.
type loadedExercise struct {
	def      exercise.Definition
	exercise exercise.Exercise
	tracker  *completion.Tracker
}

func (s *Server) loadExercise(ctx context.Context, toolID, version string, params exercise.Params) (*loadedExercise, error) {
	def, ok := s.catalog.Get(toolID, version)
	if !ok {
		return nil, fmt.Errorf("tool %s %s: %w", toolID, version, errNotFound)
	}
	ex, err := exercise.Load(ctx, s.fetcher, def, params)
	if err != nil {
		return nil, fmt.Errorf("exercise.Load() > %w", err)
	}

	loaded := &loadedExercise{def: def, exercise: ex}
	if identified, ok := ex.(tool.Identified); ok {
		loaded.tracker = completion.New(ctx, s.completions, identified.Identity(), ex.Title(), nil)
	}
	return loaded, nil
}

type exerciseResponse struct {
	Tool    string             `json:"tool"`
	Version string             `json:"version"`
	Title   string             `json:"title"`
	View    any                `json:"view"`
	Banner  *completion.Banner `json:"banner,omitempty"`
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	loaded, err := s.loadExercise(r.Context(), chi.URLParam(r, "tool"), chi.URLParam(r, "version"), exercise.ParseParams(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := exerciseResponse{
		Tool:    loaded.def.ID,
		Version: loaded.def.Version,
		Title:   loaded.exercise.Title(),
		View:    loaded.exercise.View(),
	}
	if loaded.tracker != nil {
		banner := loaded.tracker.Banner()
		resp.Banner = &banner
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type checkResponse struct {
	Result exercise.Result    `json:"result"`
	Record *completion.Record `json:"record,omitempty"`
	Banner *completion.Banner `json:"banner,omitempty"`
}

// handleCheck grades an answer; a correct answer records completion.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var answer json.RawMessage
	if err := decodeBody(w, r, &answer); err != nil {
		s.writeError(w, r, err)
		return
	}
	loaded, err := s.loadExercise(r.Context(), chi.URLParam(r, "tool"), chi.URLParam(r, "version"), exercise.ParseParams(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := loaded.exercise.Check(answer)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("Check() > %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, s.complete(r.Context(), loaded.tracker, result))
}

func (s *Server) complete(ctx context.Context, tracker *completion.Tracker, result exercise.Result) checkResponse {
	resp := checkResponse{Result: result}
	if tracker == nil {
		return resp
	}
	if result.Correct {
		score := result.Score
		record := tracker.MarkCompleted(ctx, &score)
		resp.Record = &record
	}
	banner := tracker.Banner()
	resp.Banner = &banner
	return resp
}

type completionResponse struct {
	Key    string             `json:"key"`
	Record *completion.Record `json:"record"`
	Banner completion.Banner  `json:"banner"`
}

func completionIdentity(r *http.Request) (completion.Identity, error) {
	query := r.URL.Query()
	identity := completion.Identity{
		ToolID:   query.Get("tool"),
		Version:  query.Get("version"),
		UniqueID: query.Get("unique_id"),
		DataURL:  query.Get("data"),
	}
	if identity.ToolID == "" || identity.Version == "" {
		return identity, &exercise.ConfigError{
			Kind: exercise.KindParameter,
			Err:  fmt.Errorf("%w: tool and version", exercise.ErrMissingParameter),
		}
	}
	return identity, nil
}

func (s *Server) handleGetCompletion(w http.ResponseWriter, r *http.Request) {
	identity, err := completionIdentity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tracker := completion.New(r.Context(), s.completions, identity, r.URL.Query().Get("title"), nil)
	s.writeJSON(w, http.StatusOK, completionResponse{
		Key:    tracker.Key(),
		Record: tracker.Record(),
		Banner: tracker.Banner(),
	})
}

func (s *Server) handleResetCompletion(w http.ResponseWriter, r *http.Request) {
	identity, err := completionIdentity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tracker := completion.New(r.Context(), s.completions, identity, "", nil)
	tracker.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
