package rag

import (
	"context"
	"fmt"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/session"
)

// Answerer generates an answer for a query with optional history.
type Answerer interface {
	Answer(ctx context.Context, query, history string) (string, []course.Source, error)
}

// CatalogStats is the analytics surface of the vector store.
type CatalogStats interface {
	CountCourses(ctx context.Context) (int, error)
	ListCourseTitles(ctx context.Context) ([]string, error)
}

// Analytics summarizes the ingested corpus.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System ties the orchestrator, session store and catalog together behind
// the operations the HTTP layer calls.
type System struct {
	answerer Answerer
	sessions session.Store
	catalog  CatalogStats
	logger   log.Logger
}

// NewSystem creates the query facade.
func NewSystem(answerer Answerer, sessions session.Store, catalog CatalogStats, logger log.Logger) *System {
	if logger == nil {
		logger = log.NewNop()
	}
	return &System{
		answerer: answerer,
		sessions: sessions,
		catalog:  catalog,
		logger:   logger,
	}
}

// Query answers a question. With a session id, the session's history
// conditions the answer and the exchange is recorded afterwards; without
// one the query is stateless.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []course.Source, error) {
	var history string
	if sessionID != "" {
		history = s.sessions.History(sessionID)
	}

	answer, sources, err := s.answerer.Answer(ctx, query, history)
	if err != nil {
		return "", nil, err
	}

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, query, answer)
	}
	return answer, sources, nil
}

// CourseAnalytics reports the corpus size and titles.
func (s *System) CourseAnalytics(ctx context.Context) (Analytics, error) {
	count, err := s.catalog.CountCourses(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("counting courses: %w", err)
	}
	titles, err := s.catalog.ListCourseTitles(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("listing course titles: %w", err)
	}
	return Analytics{TotalCourses: count, CourseTitles: titles}, nil
}
