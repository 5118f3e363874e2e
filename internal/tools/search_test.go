package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/vectorstore"
)

func intPtr(n int) *int { return &n }

// fakeSearchStore returns canned search results and lesson links.
type fakeSearchStore struct {
	results     vectorstore.SearchResults
	lessonLinks map[int]string

	gotQuery  string
	gotCourse string
	gotLesson *int
}

func (f *fakeSearchStore) Search(_ context.Context, query, courseName string, lessonNumber *int) vectorstore.SearchResults {
	f.gotQuery, f.gotCourse, f.gotLesson = query, courseName, lessonNumber
	return f.results
}

func (f *fakeSearchStore) LessonLink(_ context.Context, _ string, lessonNumber int) string {
	return f.lessonLinks[lessonNumber]
}

func TestSearchToolExecute(t *testing.T) {
	t.Run("formats hits and collects sources", func(t *testing.T) {
		store := &fakeSearchStore{
			results: vectorstore.SearchResults{
				Documents: []string{"MCP content here.", "More content."},
				Metadata: []vectorstore.ChunkMeta{
					{CourseTitle: "Introduction to MCP", LessonNumber: intPtr(1)},
					{CourseTitle: "Introduction to MCP"},
				},
				Distances: []float64{0.1, 0.2},
			},
			lessonLinks: map[int]string{1: "https://example.com/mcp/1"},
		}
		tool := NewSearchTool(store, log.NewNop())

		text, sources := tool.Execute(context.Background(), map[string]any{
			"query":       "what is MCP",
			"course_name": "MCP",
		})

		if !strings.Contains(text, "[Introduction to MCP - Lesson 1]\nMCP content here.") {
			t.Errorf("Execute() text = %q, want labeled lesson block", text)
		}
		if !strings.Contains(text, "[Introduction to MCP]\nMore content.") {
			t.Errorf("Execute() text = %q, want course-level block", text)
		}

		wantSources := []course.Source{
			{Text: "Introduction to MCP - Lesson 1", URL: "https://example.com/mcp/1"},
			{Text: "Introduction to MCP"},
		}
		if diff := cmp.Diff(wantSources, sources); diff != "" {
			t.Errorf("sources mismatch (-want +got):\n%s", diff)
		}

		if store.gotQuery != "what is MCP" || store.gotCourse != "MCP" {
			t.Errorf("store saw query=%q course=%q", store.gotQuery, store.gotCourse)
		}
	})

	t.Run("lesson number passes through", func(t *testing.T) {
		store := &fakeSearchStore{}
		tool := NewSearchTool(store, log.NewNop())

		tool.Execute(context.Background(), map[string]any{
			"query":         "anything",
			"lesson_number": 3,
		})

		if store.gotLesson == nil || *store.gotLesson != 3 {
			t.Errorf("store saw lesson = %v, want 3", store.gotLesson)
		}
	})

	t.Run("empty results render filter-aware message", func(t *testing.T) {
		tool := NewSearchTool(&fakeSearchStore{}, log.NewNop())

		text, sources := tool.Execute(context.Background(), map[string]any{
			"query":         "anything",
			"course_name":   "MCP",
			"lesson_number": 2,
		})

		want := "No relevant content found in course 'MCP' in lesson 2."
		if text != want {
			t.Errorf("Execute() text = %q, want %q", text, want)
		}
		if len(sources) != 0 {
			t.Errorf("Execute() sources = %v, want none", sources)
		}
	})

	t.Run("store error text is returned verbatim", func(t *testing.T) {
		store := &fakeSearchStore{
			results: vectorstore.SearchResults{Err: "No course found matching 'Nope'"},
		}
		tool := NewSearchTool(store, log.NewNop())

		text, sources := tool.Execute(context.Background(), map[string]any{"query": "x", "course_name": "Nope"})
		if text != "No course found matching 'Nope'" {
			t.Errorf("Execute() text = %q", text)
		}
		if sources != nil {
			t.Errorf("Execute() sources = %v, want nil", sources)
		}
	})

	t.Run("malformed input renders as text", func(t *testing.T) {
		tool := NewSearchTool(&fakeSearchStore{}, log.NewNop())

		text, _ := tool.Execute(context.Background(), map[string]any{"lesson_number": "three"})
		if !strings.Contains(text, "Invalid input") {
			t.Errorf("Execute() text = %q, want invalid input message", text)
		}
	})
}
