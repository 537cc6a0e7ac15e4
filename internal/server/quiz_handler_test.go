package server

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_exercise "github.com/at-ishikawa/learntools/internal/mocks/exercise"
)

const quizURL = "https://example.org/data/quiz.json"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newQuizServer(t *testing.T) (*Server, string, *testClock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	fetcher := mock_exercise.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), quizURL).
		Return([]byte(`{"title":"Pubquiz","rollerSeconds":0,"questionSeconds":30,"questions":[{"question":"Is de aarde rond?","answer":true}]}`), nil).
		AnyTimes()
	s, ts := newTestServer(t, testConfig(t), Dependencies{Fetcher: fetcher})
	clock := &testClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	s.quizzes.now = clock.Now
	return s, ts.URL, clock
}

func startQuiz(t *testing.T, baseURL string) quizStateResponse {
	t.Helper()
	resp, content := do(t, http.MethodPost, baseURL+"/api/quiz/start?course_id=bio&assignment_id=week-1&data="+quizURL, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(content))
	return decode[quizStateResponse](t, content)
}

func TestQuiz_AnswerWithinTime(t *testing.T) {
	_, baseURL, _ := newQuizServer(t)

	started := startQuiz(t, baseURL)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, "Pubquiz", started.Title)
	assert.Equal(t, "Is de aarde rond?", started.State.Question)
	assert.True(t, started.State.ControlsOpen)
	assert.Equal(t, 30, started.State.Remaining)

	resp, content := do(t, http.MethodGet, baseURL+"/api/quiz/"+started.SessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, started, decode[quizStateResponse](t, content))

	answer := map[string]any{"sessionId": started.SessionID, "answer": true}
	resp, content = do(t, http.MethodPost, baseURL+"/api/quiz/answer", answer)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(content))
	got := decode[checkResponse](t, content)
	assert.True(t, got.Result.Correct)
	assert.Equal(t, "Goed!", got.Result.Message)
	require.NotNil(t, got.Record)
	assert.Equal(t, "bio:week-1", got.Record.UniqueID)

	resp, _ = do(t, http.MethodPost, baseURL+"/api/quiz/answer", answer)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestQuiz_UntimedCheckIsRejected(t *testing.T) {
	_, baseURL, _ := newQuizServer(t)

	checkURL := baseURL + "/api/tools/pubquiz-yes-no/v1/check?course_id=bio&assignment_id=week-1&data=" + quizURL
	resp, content := do(t, http.MethodPost, checkURL, map[string]any{"question": 0, "answer": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(content))

	resp, content = do(t, http.MethodGet, baseURL+"/api/completions?tool=pubquiz-yes-no&version=v1&unique_id=bio:week-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(content))
	assert.Nil(t, decode[completionResponse](t, content).Record)
}

func TestQuiz_TimeExpired(t *testing.T) {
	_, baseURL, clock := newQuizServer(t)

	started := startQuiz(t, baseURL)
	clock.Advance(31 * time.Second)

	resp, content := do(t, http.MethodGet, baseURL+"/api/quiz/"+started.SessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[quizStateResponse](t, content).State
	assert.False(t, state.ControlsOpen)
	assert.Equal(t, "Tijd is op!", state.ExpiredNotice)

	resp, content = do(t, http.MethodPost, baseURL+"/api/quiz/answer", map[string]any{"sessionId": started.SessionID, "answer": true})
	require.Equal(t, http.StatusGone, resp.StatusCode)
	got := decode[checkResponse](t, content)
	assert.False(t, got.Result.Correct)
	assert.Equal(t, "Tijd is op!", got.Result.Message)
	assert.Nil(t, got.Record)
}

func TestQuiz_Errors(t *testing.T) {
	_, baseURL, _ := newQuizServer(t)

	resp, _ := do(t, http.MethodGet, baseURL+"/api/quiz/onbekend", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, baseURL+"/api/quiz/answer", map[string]any{"sessionId": "onbekend", "answer": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	started := startQuiz(t, baseURL)
	resp, _ = do(t, http.MethodPost, baseURL+"/api/quiz/answer", map[string]any{"sessionId": started.SessionID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Without course and assignment nothing is fetched.
	resp, content := do(t, http.MethodPost, baseURL+"/api/quiz/start?data="+quizURL, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "parameter", decode[errorResponse](t, content).Kind)
}

func TestQuizSessions_Prune(t *testing.T) {
	s, baseURL, clock := newQuizServer(t)

	first := startQuiz(t, baseURL)
	clock.Advance(30*time.Second + quizRetention + time.Second)
	startQuiz(t, baseURL)

	_, err := s.quizzes.get(first.SessionID)
	assert.ErrorIs(t, err, errNotFound)
}
