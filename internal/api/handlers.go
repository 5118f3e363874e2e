package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/session"
)

// maxRequestBody bounds query payloads; transcripts questions are short.
const maxRequestBody = 1 << 20

type queryHandler struct {
	service QueryService
	logger  log.Logger
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string          `json:"answer"`
	Sources   []course.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

// query answers a question over the ingested corpus. A missing session id
// mints a fresh one so the client can thread follow-ups.
func (h *queryHandler) query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	answer, sources, err := h.service.Query(r.Context(), req.Query, sessionID)
	if err != nil {
		h.logger.Error("query failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "failed to answer query")
		return
	}

	if sources == nil {
		sources = []course.Source{}
	}
	_ = writeJSON(w, http.StatusOK, queryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

// courses reports corpus analytics.
func (h *queryHandler) courses(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CourseAnalytics(r.Context())
	if err != nil {
		h.logger.Error("course analytics failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load course statistics")
		return
	}
	_ = writeJSON(w, http.StatusOK, stats)
}

func health(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
