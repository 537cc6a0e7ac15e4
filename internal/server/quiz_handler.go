package server

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/tool"
)

// quizRetention is how long a finished or abandoned round stays queryable.
const quizRetention = time.Minute

type quizRound struct {
	session *tool.Session
	tracker *completion.Tracker
	title   string
}

// quizSessions holds the running yes/no rounds by id.
type quizSessions struct {
	now func() time.Time

	mu     sync.Mutex
	rounds map[string]*quizRound
}

func newQuizSessions() *quizSessions {
	return &quizSessions{now: time.Now, rounds: make(map[string]*quizRound)}
}

func (q *quizSessions) add(round *quizRound) string {
	id := uuid.NewString()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked()
	q.rounds[id] = round
	return id
}

func (q *quizSessions) get(id string) (*quizRound, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	round, ok := q.rounds[id]
	if !ok {
		return nil, fmt.Errorf("quiz session %s: %w", id, errNotFound)
	}
	return round, nil
}

func (q *quizSessions) pruneLocked() {
	now := q.now()
	for id, round := range q.rounds {
		if now.Sub(round.session.State().Deadline) > quizRetention {
			delete(q.rounds, id)
		}
	}
}

type quizStateResponse struct {
	SessionID string            `json:"sessionId"`
	Title     string            `json:"title"`
	State     tool.SessionState `json:"state"`
}

// handleStartQuiz loads the quiz from the launch parameters and starts a round.
func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	def := tool.YesNoQuizDefinition
	loaded, err := s.loadExercise(r.Context(), def.ID, def.Version, exercise.ParseParams(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	quiz := loaded.exercise.(*tool.YesNoQuiz)
	round := &quizRound{
		session: quiz.NewSession(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), s.quizzes.now),
		tracker: loaded.tracker,
		title:   quiz.Title(),
	}
	id := s.quizzes.add(round)
	s.writeJSON(w, http.StatusCreated, quizStateResponse{SessionID: id, Title: round.title, State: round.session.State()})
}

func (s *Server) handleQuizState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	round, err := s.quizzes.get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quizStateResponse{SessionID: id, Title: round.title, State: round.session.State()})
}

type answerQuizRequest struct {
	SessionID string `json:"sessionId"`
	Answer    *bool  `json:"answer"`
}

func (s *Server) handleAnswerQuiz(w http.ResponseWriter, r *http.Request) {
	var req answerQuizRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Answer == nil {
		s.writeError(w, r, fmt.Errorf("%w: answer is required", exercise.ErrInvalidAnswer))
		return
	}
	round, err := s.quizzes.get(req.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := round.session.Answer(*req.Answer)
	if err != nil && !errors.Is(err, tool.ErrTimeExpired) {
		s.writeError(w, r, err)
		return
	}
	resp := s.complete(r.Context(), round.tracker, result)
	if err != nil {
		s.writeJSON(w, statusFor(err), resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
