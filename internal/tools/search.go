package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/vectorstore"
)

// SearchToolName is the Genkit tool name for content search.
const SearchToolName = "search_course_content"

// SearchStore is the vector store surface the search tool depends on.
type SearchStore interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) vectorstore.SearchResults
	LessonLink(ctx context.Context, courseTitle string, lessonNumber int) string
}

// SearchInput defines input for the search_course_content tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title (partial matches work, e.g. 'MCP', 'Introduction')"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 3)"`
}

// SearchTool retrieves course content by semantic similarity, optionally
// filtered by course and lesson.
type SearchTool struct {
	store  SearchStore
	logger log.Logger
}

// NewSearchTool creates the content search tool.
func NewSearchTool(store SearchStore, logger log.Logger) *SearchTool {
	if logger == nil {
		logger = log.NewNop()
	}
	return &SearchTool{store: store, logger: logger}
}

// Name implements Tool.
func (*SearchTool) Name() string { return SearchToolName }

// Attach implements Tool.
func (t *SearchTool) Attach(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, SearchToolName,
		"Search course materials with smart course name matching and lesson filtering. "+
			"Returns matching content excerpts labeled with their course and lesson.",
		func(tc *ai.ToolContext, in SearchInput) (string, error) {
			text, _ := t.run(tc, in)
			return text, nil
		})
}

// Execute implements Tool.
func (t *SearchTool) Execute(ctx context.Context, input any) (string, []course.Source) {
	in, err := decodeInput[SearchInput](input)
	if err != nil {
		return fmt.Sprintf("Invalid input for tool '%s': %v", SearchToolName, err), nil
	}
	return t.run(ctx, in)
}

func (t *SearchTool) run(ctx context.Context, in SearchInput) (string, []course.Source) {
	results := t.store.Search(ctx, in.Query, in.CourseName, in.LessonNumber)
	if results.Err != "" {
		return results.Err, nil
	}
	if results.IsEmpty() {
		return emptyMessage(in), nil
	}

	var (
		blocks  []string
		sources []course.Source
	)
	for i, doc := range results.Documents {
		meta := results.Metadata[i]
		label := meta.SourceLabel()
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, doc))

		src := course.Source{Text: label}
		if meta.LessonNumber != nil {
			src.URL = t.store.LessonLink(ctx, meta.CourseTitle, *meta.LessonNumber)
		}
		sources = append(sources, src)
	}

	t.logger.Debug("search tool executed",
		"course", in.CourseName,
		"lesson", in.LessonNumber,
		"hits", len(results.Documents))
	return strings.Join(blocks, "\n\n"), sources
}

// emptyMessage renders the no-results message including any active filters.
func emptyMessage(in SearchInput) string {
	var sb strings.Builder
	sb.WriteString("No relevant content found")
	if in.CourseName != "" {
		fmt.Fprintf(&sb, " in course '%s'", in.CourseName)
	}
	if in.LessonNumber != nil {
		fmt.Fprintf(&sb, " in lesson %d", *in.LessonNumber)
	}
	sb.WriteString(".")
	return sb.String()
}
