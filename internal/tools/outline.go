package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
)

// OutlineToolName is the Genkit tool name for course outlines.
const OutlineToolName = "get_course_outline"

// OutlineStore is the vector store surface the outline tool depends on.
type OutlineStore interface {
	ResolveCourseName(ctx context.Context, name string) (string, error)
	GetCourse(ctx context.Context, title string) (course.Course, error)
}

// OutlineInput defines input for the get_course_outline tool.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title (partial matches work, e.g. 'MCP', 'Introduction')"`
}

// OutlineTool returns a course's full outline: title, link, instructor and
// the numbered lesson list.
type OutlineTool struct {
	store  OutlineStore
	logger log.Logger
}

// NewOutlineTool creates the course outline tool.
func NewOutlineTool(store OutlineStore, logger log.Logger) *OutlineTool {
	if logger == nil {
		logger = log.NewNop()
	}
	return &OutlineTool{store: store, logger: logger}
}

// Name implements Tool.
func (*OutlineTool) Name() string { return OutlineToolName }

// Attach implements Tool.
func (t *OutlineTool) Attach(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, OutlineToolName,
		"Get the complete outline of a course including its title, link, "+
			"instructor and all lesson numbers and titles.",
		func(tc *ai.ToolContext, in OutlineInput) (string, error) {
			text, _ := t.run(tc, in)
			return text, nil
		})
}

// Execute implements Tool.
func (t *OutlineTool) Execute(ctx context.Context, input any) (string, []course.Source) {
	in, err := decodeInput[OutlineInput](input)
	if err != nil {
		return fmt.Sprintf("Invalid input for tool '%s': %v", OutlineToolName, err), nil
	}
	return t.run(ctx, in)
}

func (t *OutlineTool) run(ctx context.Context, in OutlineInput) (string, []course.Source) {
	if in.CourseName == "" {
		return "A course name is required to get an outline.", nil
	}

	title, err := t.store.ResolveCourseName(ctx, in.CourseName)
	if err != nil {
		return fmt.Sprintf("Search error: %v", err), nil
	}
	if title == "" {
		return fmt.Sprintf("No course found matching '%s'", in.CourseName), nil
	}

	c, err := t.store.GetCourse(ctx, title)
	if err != nil {
		return fmt.Sprintf("Search error: %v", err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&sb, "Course Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&sb, "Instructor: %s\n", c.Instructor)
	}
	sb.WriteString("\nLessons:\n")
	if len(c.Lessons) == 0 {
		sb.WriteString("(no lessons listed)\n")
	}
	for _, lesson := range c.Lessons {
		fmt.Fprintf(&sb, "%d. %s\n", lesson.Number, lesson.Title)
	}

	t.logger.Debug("outline tool executed", "course", c.Title, "lessons", len(c.Lessons))
	return strings.TrimRight(sb.String(), "\n"), []course.Source{{Text: c.Title, URL: c.Link}}
}
