package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/session"
)

// fakeAnswerer records the history it was given.
type fakeAnswerer struct {
	answer     string
	sources    []course.Source
	err        error
	gotHistory []string
}

func (f *fakeAnswerer) Answer(_ context.Context, _ string, history string) (string, []course.Source, error) {
	f.gotHistory = append(f.gotHistory, history)
	return f.answer, f.sources, f.err
}

type fakeCatalog struct {
	count  int
	titles []string
	err    error
}

func (f *fakeCatalog) CountCourses(context.Context) (int, error) {
	return f.count, f.err
}

func (f *fakeCatalog) ListCourseTitles(context.Context) ([]string, error) {
	return f.titles, f.err
}

func TestSystemQuery(t *testing.T) {
	t.Run("stateless without session id", func(t *testing.T) {
		answerer := &fakeAnswerer{answer: "answer"}
		sys := NewSystem(answerer, session.NewMemoryStore(2), &fakeCatalog{}, log.NewNop())

		answer, _, err := sys.Query(context.Background(), "q", "")
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if answer != "answer" {
			t.Errorf("Query() = %q", answer)
		}
		if answerer.gotHistory[0] != "" {
			t.Errorf("history = %q, want empty without session", answerer.gotHistory[0])
		}
	})

	t.Run("records exchange and threads history", func(t *testing.T) {
		answerer := &fakeAnswerer{answer: "first answer"}
		sessions := session.NewMemoryStore(2)
		sys := NewSystem(answerer, sessions, &fakeCatalog{}, log.NewNop())

		if _, _, err := sys.Query(context.Background(), "first question", "s1"); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if _, _, err := sys.Query(context.Background(), "follow-up", "s1"); err != nil {
			t.Fatalf("Query() error = %v", err)
		}

		second := answerer.gotHistory[1]
		if !strings.Contains(second, "first question") || !strings.Contains(second, "first answer") {
			t.Errorf("second query history = %q, want first exchange", second)
		}
	})

	t.Run("failed answer leaves history untouched", func(t *testing.T) {
		answerer := &fakeAnswerer{err: errors.New("model down")}
		sessions := session.NewMemoryStore(2)
		sys := NewSystem(answerer, sessions, &fakeCatalog{}, log.NewNop())

		if _, _, err := sys.Query(context.Background(), "q", "s1"); err == nil {
			t.Fatal("Query() error = nil, want propagation")
		}
		if h := sessions.History("s1"); h != "" {
			t.Errorf("history = %q, want empty after failure", h)
		}
	})

	t.Run("sources pass through", func(t *testing.T) {
		want := []course.Source{{Text: "Intro - Lesson 1", URL: "u"}}
		answerer := &fakeAnswerer{answer: "a", sources: want}
		sys := NewSystem(answerer, session.NewMemoryStore(2), &fakeCatalog{}, log.NewNop())

		_, sources, err := sys.Query(context.Background(), "q", "")
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if diff := cmp.Diff(want, sources); diff != "" {
			t.Errorf("sources mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCourseAnalytics(t *testing.T) {
	t.Run("reports corpus stats", func(t *testing.T) {
		catalog := &fakeCatalog{count: 2, titles: []string{"A", "B"}}
		sys := NewSystem(&fakeAnswerer{}, session.NewMemoryStore(2), catalog, log.NewNop())

		got, err := sys.CourseAnalytics(context.Background())
		if err != nil {
			t.Fatalf("CourseAnalytics() error = %v", err)
		}
		want := Analytics{TotalCourses: 2, CourseTitles: []string{"A", "B"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Analytics mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("catalog failure propagates", func(t *testing.T) {
		catalog := &fakeCatalog{err: errors.New("db down")}
		sys := NewSystem(&fakeAnswerer{}, session.NewMemoryStore(2), catalog, log.NewNop())

		if _, err := sys.CourseAnalytics(context.Background()); err == nil {
			t.Error("CourseAnalytics() error = nil, want propagation")
		}
	})
}
