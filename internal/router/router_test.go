package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/learnnav/learning-navigator/internal/handler"
	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/learnnav/learning-navigator/internal/repository/memory"
	"github.com/learnnav/learning-navigator/internal/response"
	"github.com/learnnav/learning-navigator/internal/service"
	"github.com/learnnav/learning-navigator/internal/validator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	validator.Setup()
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, numbersURL string, checks map[string]handler.HealthCheck) *testServer {
	t.Helper()
	log := zerolog.New(io.Discard)
	store := memory.New()

	enrollment := service.NewEnrollmentService(store, store.Students(), store.Subjects(), store.Exams(), store.Enrollments(), nil, log)
	handlers := &Handlers{
		Student: handler.NewStudentHandler(service.NewStudentService(store.Students(), store.Subjects(), store.Exams(), enrollment)),
		Subject: handler.NewSubjectHandler(service.NewSubjectService(store, store.Subjects(), store.Exams(), store.Enrollments(), log)),
		Exam:    handler.NewExamHandler(service.NewExamService(store, store.Exams(), store.Subjects(), store.Enrollments(), enrollment, log)),
		Number:  handler.NewNumberHandler(service.NewNumberService(numbersURL, time.Second, nil, log)),
		Health:  handler.NewHealthHandler(checks, log),
	}
	cfg := &config.Config{GinMode: gin.TestMode, EasterEggRatePerMinute: 2}

	engine, limiter := SetupRouter(handlers, cfg, log)
	if limiter != nil {
		t.Cleanup(limiter.Stop)
	}
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStudents_CreateAndGet(t *testing.T) {
	s := newTestServer(t, "", nil)

	w := s.do(http.MethodPost, "/students", `{"name":"Alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"id":1,"name":"Alice","enrolledSubjects":[],"enrolledExams":[]}`, w.Body.String())

	w = s.do(http.MethodGet, "/students/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Student](t, w)
	assert.Equal(t, "Alice", got.Name)
	assert.GreaterOrEqual(t, got.ID, int64(0))

	w = s.do(http.MethodGet, "/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Student](t, w), 1)
}

func TestStudents_ValidationAndLookupErrors(t *testing.T) {
	s := newTestServer(t, "", nil)

	w := s.do(http.MethodPost, "/students", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[response.ErrorBody](t, w)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Contains(t, body.Fields, "name")

	w = s.do(http.MethodGet, "/students/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/students/9", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Student not found", decode[response.ErrorBody](t, w).Message)
}

func TestSubjects_ListReturnsCreated(t *testing.T) {
	s := newTestServer(t, "", nil)

	w := s.do(http.MethodPost, "/subjects", `{"subjectName":"Physics"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"subjectName":"Physics"}`, w.Body.String())

	w = s.do(http.MethodGet, "/subjects", "")
	require.Equal(t, http.StatusOK, w.Code)
	subjects := decode[[]map[string]any](t, w)
	require.NotEmpty(t, subjects)
	assert.Equal(t, "Physics", subjects[0]["subjectName"])
}

func TestEnrollmentFlow(t *testing.T) {
	s := newTestServer(t, "", nil)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/students", `{"name":"Akash"}`).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/subjects", `{"subjectName":"ENGLISH"}`).Code)

	w := s.do(http.MethodPost, "/exams/subjects/1", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"examName":"ENGLISH EXAM","subjectId":1}`, w.Body.String())

	// Exam before subject is rejected.
	w = s.do(http.MethodPost, "/students/1/exams/1", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Student must be enrolled in the subject before exam registration", decode[response.ErrorBody](t, w).Message)

	w = s.do(http.MethodPost, "/students/1/subjects/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[model.Student](t, w).EnrolledSubjects, 1)

	w = s.do(http.MethodPost, "/students/1/subjects/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/exams/1", "1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ENGLISH EXAM", decode[model.Exam](t, w).Name)

	// Second registration conflicts through either endpoint.
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/exams/1", "1").Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/students/1/exams/1", "").Code)

	w = s.do(http.MethodGet, "/exams/1/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Student](t, w), 1)

	w = s.do(http.MethodGet, "/subjects/1/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Student](t, w), 1)

	w = s.do(http.MethodGet, "/subjects/1/exams", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Exam](t, w), 1)
}

func TestEnrollment_NotFoundAndBadIDs(t *testing.T) {
	s := newTestServer(t, "", nil)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/students", `{"name":"Akash"}`).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown subject", http.MethodPost, "/students/1/subjects/5", "", http.StatusNotFound},
		{"unknown exam", http.MethodPost, "/students/1/exams/5", "", http.StatusNotFound},
		{"exam for unknown subject", http.MethodPost, "/exams/subjects/5", "", http.StatusNotFound},
		{"register for unknown exam", http.MethodPost, "/exams/5", "1", http.StatusNotFound},
		{"non numeric body", http.MethodPost, "/exams/5", "abc", http.StatusBadRequest},
		{"non numeric subject id", http.MethodPost, "/students/1/subjects/x", "", http.StatusBadRequest},
		{"get unknown exam", http.MethodGet, "/exams/5", "", http.StatusNotFound},
		{"get unknown subject", http.MethodGet, "/subjects/5", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/nowhere", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestExams_RegisterReportsExamBeforeStudent(t *testing.T) {
	s := newTestServer(t, "", nil)

	w := s.do(http.MethodPost, "/exams/999", "999")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Exam not found with id: 999", decode[response.ErrorBody](t, w).Message)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/subjects", `{"subjectName":"Maths"}`).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/exams/subjects/1", "").Code)

	w = s.do(http.MethodPost, "/exams/1", "42")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Student not found with id: 42", decode[response.ErrorBody](t, w).Message)
}

func TestSubjects_DeleteCascadesToExams(t *testing.T) {
	s := newTestServer(t, "", nil)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/subjects", `{"subjectName":"Math"}`).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/exams/subjects/1", "").Code)

	w := s.do(http.MethodDelete, "/subjects/1", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/exams/1", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/subjects/1", "").Code)

	w = s.do(http.MethodGet, "/exams", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExams_Delete(t *testing.T) {
	s := newTestServer(t, "", nil)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/subjects", `{"subjectName":"Math"}`).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/exams/subjects/1", "").Code)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/exams/1", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/exams/1", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/subjects/1", "").Code)
}

func TestEasterEgg(t *testing.T) {
	numbers := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/13" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("7 is the number of days in a week."))
	}))
	defer numbers.Close()

	s := newTestServer(t, numbers.URL, nil)

	w := s.do(http.MethodGet, "/easter-egg/hidden-feature/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
	body := decode[model.NumberFactResponse](t, w)
	assert.Equal(t, "Great! You have found the hidden number fact ", body.Message)
	assert.Equal(t, "7 is the number of days in a week.", body.Response)

	w = s.do(http.MethodGet, "/easter-egg/hidden-feature/13", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", decode[response.ErrorBody](t, w).Message)

	// Limit is two per minute.
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/easter-egg/hidden-feature/7", "").Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "", map[string]handler.HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
	w := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{"postgres":"up"}}`, w.Body.String())

	s = newTestServer(t, "", map[string]handler.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "", nil)
	s.do(http.MethodGet, "/subjects", "")

	w := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "learning_navigator_http_requests_total")
}
