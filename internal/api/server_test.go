package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
)

type stubService struct {
	answer    string
	sources   []course.Source
	queryErr  error
	analytics rag.Analytics
	statsErr  error

	gotQuery     string
	gotSessionID string
}

func (s *stubService) Query(_ context.Context, query, sessionID string) (string, []course.Source, error) {
	s.gotQuery = query
	s.gotSessionID = sessionID
	return s.answer, s.sources, s.queryErr
}

func (s *stubService) CourseAnalytics(context.Context) (rag.Analytics, error) {
	return s.analytics, s.statsErr
}

func newTestServer(t *testing.T, svc QueryService) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Logger:      log.NewNop(),
		Service:     svc,
		CORSOrigins: []string{"*"},
	})
	require.NoError(t, err)
	return srv
}

func postQuery(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresService(t *testing.T) {
	_, err := NewServer(ServerConfig{Logger: log.NewNop()})
	assert.Error(t, err)
}

func TestQueryEndpoint(t *testing.T) {
	t.Run("answers with sources and echoes session id", func(t *testing.T) {
		svc := &stubService{
			answer:  "MCP is a protocol.",
			sources: []course.Source{{Text: "Intro - Lesson 1", URL: "https://example.com/1"}},
		}
		srv := newTestServer(t, svc)

		rec := postQuery(t, srv, `{"query":"What is MCP?","session_id":"abc"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp queryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "MCP is a protocol.", resp.Answer)
		assert.Equal(t, "abc", resp.SessionID)
		require.Len(t, resp.Sources, 1)
		assert.Equal(t, "Intro - Lesson 1", resp.Sources[0].Text)
		assert.Equal(t, "abc", svc.gotSessionID)
	})

	t.Run("mints a session id when absent", func(t *testing.T) {
		svc := &stubService{answer: "a"}
		srv := newTestServer(t, svc)

		rec := postQuery(t, srv, `{"query":"hello"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp queryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		_, err := uuid.Parse(resp.SessionID)
		assert.NoError(t, err, "minted session id should be a UUID")
		assert.Equal(t, resp.SessionID, svc.gotSessionID)
	})

	t.Run("empty sources marshal as an array", func(t *testing.T) {
		srv := newTestServer(t, &stubService{answer: "a"})

		rec := postQuery(t, srv, `{"query":"q"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"sources":[]`)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		srv := newTestServer(t, &stubService{})

		rec := postQuery(t, srv, `{"query":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		srv := newTestServer(t, &stubService{})

		rec := postQuery(t, srv, `{"query":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service failure maps to 500", func(t *testing.T) {
		srv := newTestServer(t, &stubService{queryErr: errors.New("model down")})

		rec := postQuery(t, srv, `{"query":"q"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "failed to answer query")
	})

	t.Run("method not allowed", func(t *testing.T) {
		srv := newTestServer(t, &stubService{})

		req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCoursesEndpoint(t *testing.T) {
	t.Run("reports analytics", func(t *testing.T) {
		svc := &stubService{
			analytics: rag.Analytics{TotalCourses: 2, CourseTitles: []string{"A", "B"}},
		}
		srv := newTestServer(t, svc)

		req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got rag.Analytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 2, got.TotalCourses)
		assert.Equal(t, []string{"A", "B"}, got.CourseTitles)
	})

	t.Run("catalog failure maps to 500", func(t *testing.T) {
		srv := newTestServer(t, &stubService{statsErr: errors.New("db down")})

		req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestCORS(t *testing.T) {
	t.Run("wildcard allows any origin", func(t *testing.T) {
		srv := newTestServer(t, &stubService{})

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		srv := newTestServer(t, &stubService{})

		req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("listed origin is echoed", func(t *testing.T) {
		srv, err := NewServer(ServerConfig{
			Logger:      log.NewNop(),
			Service:     &stubService{},
			CORSOrigins: []string{"https://allowed.example.com"},
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://allowed.example.com")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, "https://allowed.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://other.example.com")
		rec = httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := recoveryMiddleware(log.NewNop())(panicking)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}
