package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	"github.com/yungbote/neurotutor-backend/internal/data/repos/testutil"
	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
	httpH "github.com/yungbote/neurotutor-backend/internal/http/handlers"
	httpMW "github.com/yungbote/neurotutor-backend/internal/http/middleware"
	"github.com/yungbote/neurotutor-backend/internal/platform/identity"
	"github.com/yungbote/neurotutor-backend/internal/services"
)

type fixedTopic string

func (f fixedTopic) Label(context.Context, string) string { return string(f) }

type apiHarness struct {
	router *gin.Engine
	issuer *identity.HMAC
	seed   func(t *testing.T, owner string) *tutor.Quiz
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	verifier, err := identity.NewHMAC(identity.Config{Secret: "test-secret"})
	require.NoError(t, err)

	userRepo := repos.NewUserRepo(db, log)
	sessionRepo := repos.NewSessionRepo(db, log)
	quizRepo := repos.NewQuizRepo(db, log)
	submissionRepo := repos.NewQuizSubmissionRepo(db, log)

	history := services.NewHistoryService(db, log, sessionRepo, repos.NewTurnRepo(db, log))
	aggregator := services.NewMetricsAggregator(db, log, submissionRepo, repos.NewUserMetricsRepo(db, log), nil)
	ledger := services.NewSubmissionLedger(db, log, userRepo, quizRepo, submissionRepo, aggregator)

	router := NewRouter(RouterConfig{
		Log:                 log,
		AuthMiddleware:      httpMW.NewAuthMiddleware(log, verifier),
		ConversationHandler: httpH.NewConversationHandler(services.NewConversationService(db, log, sessionRepo, history, fixedTopic("Photosynthesis"))),
		QuizHandler:         httpH.NewQuizHandler(services.NewQuizService(db, log, quizRepo), ledger),
		UserHandler:         httpH.NewUserHandler(services.NewUserService(db, log, userRepo)),
		PerformanceHandler:  httpH.NewPerformanceHandler(aggregator),
		HealthHandler:       httpH.NewHealthHandler(nil),
	})
	return &apiHarness{
		router: router,
		issuer: verifier,
		seed: func(t *testing.T, owner string) *tutor.Quiz {
			return testutil.SeedQuiz(t, context.Background(), db, owner, "B", tutor.DifficultyMedium, tutor.SubjectScience)
		},
	}
}

func (h *apiHarness) do(t *testing.T, user, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := h.issuer.Issue(user, user+"@example.com", "Learner "+user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	env, _ := body["error"].(map[string]any)
	code, _ := env["code"].(string)
	return code
}

func TestAPIRequiresAuth(t *testing.T) {
	h := newAPI(t)

	rec, body := h.do(t, "", http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(body))

	req := httptest.NewRequest(http.MethodGet, "/api/conversations?token=garbage", nil)
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = h.do(t, "", http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAPIUserProfile(t *testing.T) {
	h := newAPI(t)

	rec, body := h.do(t, "u1", http.MethodPost, "/api/users/login", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, body)

	rec, body = h.do(t, "u1", http.MethodPost, "/api/users", map[string]any{"user_id": "u2", "name": "Mallory"})
	assert.Equal(t, http.StatusForbidden, rec.Code, body)

	rec, body = h.do(t, "u1", http.MethodPost, "/api/users/continue", nil)
	require.Equal(t, http.StatusCreated, rec.Code, body)
	assert.Equal(t, true, body["created"])

	rec, _ = h.do(t, "u1", http.MethodPost, "/api/users/continue", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = h.do(t, "u1", http.MethodPost, "/api/users", map[string]any{"user_id": "u1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "user_exists", errorCode(body))

	rec, body = h.do(t, "u1", http.MethodPatch, "/api/me", map[string]any{"grade": "8th"})
	require.Equal(t, http.StatusOK, rec.Code, body)

	rec, body = h.do(t, "u1", http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := body["me"].(map[string]any)
	assert.Equal(t, "8th", me["grade"])
	assert.Equal(t, "u1", me["id"])
}

func TestAPIConversations(t *testing.T) {
	h := newAPI(t)

	rec, body := h.do(t, "u1", http.MethodPost, "/api/conversations", map[string]any{"message": "how do plants eat"})
	require.Equal(t, http.StatusCreated, rec.Code, body)
	assert.Equal(t, "Photosynthesis", body["topic"])
	id := body["conversation_id"].(string)

	rec, body = h.do(t, "u1", http.MethodPost, "/api/conversations", nil)
	require.Equal(t, http.StatusCreated, rec.Code, body)
	assert.Equal(t, tutor.DefaultTopic, body["topic"])

	rec, body = h.do(t, "u1", http.MethodGet, "/api/conversations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["conversations"], 2)

	rec, body = h.do(t, "u1", http.MethodGet, "/api/conversations/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, id, body["conversation_id"])
	assert.Equal(t, float64(0), body["total_messages"])
	assert.Equal(t, []any{}, body["messages"])

	rec, _ = h.do(t, "u2", http.MethodGet, "/api/conversations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, path := range []string{
		"/api/conversations/" + id + "?limit=-1",
		"/api/conversations/" + id + "?offset=abc",
		"/api/conversations/not-a-uuid",
	} {
		rec, _ = h.do(t, "u1", http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestAPIQuizSubmission(t *testing.T) {
	h := newAPI(t)
	rec, _ := h.do(t, "u1", http.MethodPost, "/api/users/continue", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	quiz := h.seed(t, "u1")

	rec, body := h.do(t, "u1", http.MethodGet, "/api/user-performance/u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, body)

	submit := map[string]any{"quiz_id": quiz.ID.String(), "selected_option": "b", "difficulty": "medium", "subject": "Science"}
	rec, body = h.do(t, "u1", http.MethodPost, "/api/quizzes/submit", submit)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "created", body["status"])
	assert.Equal(t, quiz.ID.String(), body["quiz_id"])
	assert.Equal(t, float64(2), body["score"])

	submit["selected_option"] = "A"
	rec, body = h.do(t, "u1", http.MethodPost, "/api/quizzes/submit", submit)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "updated", body["status"])
	assert.Equal(t, false, body["is_correct"])

	rec, body = h.do(t, "u1", http.MethodGet, "/api/user-performance/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, float64(1), body["total_quizzes_taken"])
	assert.Equal(t, float64(0), body["overall_accuracy"])

	rec, _ = h.do(t, "u1", http.MethodGet, "/api/user-performance/u2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = h.do(t, "u1", http.MethodGet, "/api/quizzes/"+quiz.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, body)
	rec, _ = h.do(t, "u2", http.MethodGet, "/api/quizzes/"+quiz.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIQuizSubmissionRejects(t *testing.T) {
	h := newAPI(t)
	quiz := h.seed(t, "u1")

	cases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"identity mismatch", map[string]any{"user_id": "u2", "quiz_id": quiz.ID.String(), "selected_option": "A"}, http.StatusForbidden},
		{"missing option", map[string]any{"quiz_id": quiz.ID.String()}, http.StatusBadRequest},
		{"bad option", map[string]any{"quiz_id": quiz.ID.String(), "selected_option": "E"}, http.StatusBadRequest},
		{"bad quiz id", map[string]any{"quiz_id": "nope", "selected_option": "A"}, http.StatusBadRequest},
		{"bad difficulty", map[string]any{"quiz_id": quiz.ID.String(), "selected_option": "A", "difficulty": "extreme"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := h.do(t, "u1", http.MethodPost, "/api/quizzes/submit", tc.body)
			assert.Equal(t, tc.status, rec.Code, body)
		})
	}

	rec, _ := h.do(t, "u2", http.MethodPost, "/api/quizzes/submit", map[string]any{"quiz_id": quiz.ID.String(), "selected_option": "A"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "another learner's quiz")
}
