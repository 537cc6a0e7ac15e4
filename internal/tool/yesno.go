package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/exercise"
)

var YesNoQuizDefinition = exercise.Definition{
	ID:           "pubquiz-yes-no",
	Version:      "v1",
	Title:        "Pubquiz yes/no",
	Requirements: exercise.Requirements{CourseAssignment: true},
}

var (
	ErrTimeExpired     = errors.New("time is up")
	ErrNotRevealed     = errors.New("question is not revealed yet")
	ErrAlreadyAnswered = errors.New("question is already answered")
)

const (
	defaultRollerSeconds   = 4
	defaultQuestionSeconds = 10
)

type yesNoDocument struct {
	Title           string          `json:"title"`
	Questions       []YesNoQuestion `json:"questions" validate:"required,min=1,dive"`
	RollerSeconds   *float64        `json:"rollerSeconds" validate:"omitempty,gte=0"`
	QuestionSeconds *float64        `json:"questionSeconds" validate:"omitempty,gt=0"`
}

type YesNoQuestion struct {
	Question string `json:"question" validate:"required"`
	Answer   *bool  `json:"answer" validate:"required"`
}

// YesNoQuiz shows a random yes/no question against a countdown.
type YesNoQuiz struct {
	identity        completion.Identity
	title           string
	questions       []YesNoQuestion
	rollerSeconds   float64
	questionSeconds float64
}

func parseYesNoQuiz(src exercise.Source) (exercise.Exercise, error) {
	var doc yesNoDocument
	if err := exercise.Decode(src.Document, &doc); err != nil {
		return nil, err
	}
	if err := exercise.Validate(doc); err != nil {
		return nil, err
	}
	q := &YesNoQuiz{
		identity:        identityFor(YesNoQuizDefinition, src, ""),
		title:           defaultString(doc.Title, YesNoQuizDefinition.Title),
		questions:       doc.Questions,
		rollerSeconds:   defaultRollerSeconds,
		questionSeconds: defaultQuestionSeconds,
	}
	if doc.RollerSeconds != nil {
		q.rollerSeconds = *doc.RollerSeconds
	}
	if doc.QuestionSeconds != nil {
		q.questionSeconds = *doc.QuestionSeconds
	}
	return q, nil
}

func (q *YesNoQuiz) Title() string {
	return q.title
}

func (q *YesNoQuiz) Identity() completion.Identity {
	return q.identity
}

type YesNoView struct {
	Title           string   `json:"title"`
	Questions       []string `json:"questions"`
	RollerSeconds   float64  `json:"rollerSeconds"`
	QuestionSeconds float64  `json:"questionSeconds"`
	Status          string   `json:"status"`
}

// View leaves out the answers.
func (q *YesNoQuiz) View() any {
	texts := make([]string, len(q.questions))
	for i, question := range q.questions {
		texts[i] = question.Question
	}
	return YesNoView{
		Title:           q.title,
		Questions:       texts,
		RollerSeconds:   q.rollerSeconds,
		QuestionSeconds: q.questionSeconds,
		Status:          "Klaar om te starten.",
	}
}

// Check refuses to grade: answers only count inside a timed Session.
func (q *YesNoQuiz) Check(json.RawMessage) (exercise.Result, error) {
	return exercise.Result{}, exercise.ErrNotGradable
}

func (q *YesNoQuiz) grade(index int, answer bool) (exercise.Result, error) {
	if index < 0 || index >= len(q.questions) {
		return exercise.Result{}, fmt.Errorf("%w: question %d does not exist", exercise.ErrInvalidAnswer, index)
	}
	if *q.questions[index].Answer == answer {
		return exercise.Result{Correct: true, Score: completion.Score{Correct: 1, Total: 1}, Message: "Goed!"}, nil
	}
	return exercise.Result{Score: completion.Score{Correct: 0, Total: 1}, Message: "Fout."}, nil
}

// Session is one round: a random question, the roller animation, then the
// answer window.
type Session struct {
	mu       sync.Mutex
	quiz     *YesNoQuiz
	index    int
	revealAt time.Time
	deadline time.Time
	answered bool
	now      func() time.Time
}

// NewSession picks a question with r and starts the roller at now().
func (q *YesNoQuiz) NewSession(r *rand.Rand, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	started := now()
	revealAt := started.Add(seconds(q.rollerSeconds))
	return &Session{
		quiz:     q,
		index:    r.IntN(len(q.questions)),
		revealAt: revealAt,
		deadline: revealAt.Add(seconds(q.questionSeconds)),
		now:      now,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

type SessionState struct {
	Question      string    `json:"question,omitempty"`
	RevealAt      time.Time `json:"revealAt"`
	Deadline      time.Time `json:"deadline"`
	Remaining     int       `json:"remaining"`
	ControlsOpen  bool      `json:"controlsOpen"`
	ExpiredNotice string    `json:"expiredNotice,omitempty"`
}

// State hides the question until the roller is done.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	state := SessionState{RevealAt: s.revealAt, Deadline: s.deadline}
	if now.Before(s.revealAt) {
		return state
	}
	state.Question = s.quiz.questions[s.index].Question
	if now.Before(s.deadline) {
		state.Remaining = int(s.deadline.Sub(now).Round(time.Second) / time.Second)
		state.ControlsOpen = !s.answered
		return state
	}
	if !s.answered {
		state.ExpiredNotice = "Tijd is op!"
	}
	return state
}

// Answer grades the learner's choice. Answers after the deadline fail with
// ErrTimeExpired and close the session.
func (s *Session) Answer(answer bool) (exercise.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answered {
		return exercise.Result{}, ErrAlreadyAnswered
	}
	now := s.now()
	if now.Before(s.revealAt) {
		return exercise.Result{}, ErrNotRevealed
	}
	s.answered = true
	if !now.Before(s.deadline) {
		return exercise.Result{Score: completion.Score{Correct: 0, Total: 1}, Message: "Tijd is op!"}, ErrTimeExpired
	}
	return s.quiz.grade(s.index, answer)
}
