// Package ingest turns course transcript files into catalog entries and
// embedded content chunks. A transcript starts with a metadata header
//
//	Course Title: Introduction to MCP
//	Course Link: https://example.com/mcp
//	Course Instructor: Ada Example
//
// followed by lesson sections introduced by "Lesson N: Title" markers, each
// optionally followed by a "Lesson Link:" line. Text before the first lesson
// marker belongs to no lesson.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lectern/lectern/internal/course"
)

// Document is a parsed transcript: course metadata plus the raw text of
// each section, ready for chunking.
type Document struct {
	Course   course.Course
	Sections []Section
}

// Section is the text of one lesson, or the preamble when LessonNumber is
// nil.
type Section struct {
	LessonNumber *int
	Text         string
}

// ErrMissingTitle indicates a transcript without a Course Title header.
var ErrMissingTitle = errors.New("transcript missing Course Title header")

const (
	titleHeader      = "Course Title:"
	linkHeader       = "Course Link:"
	instructorHeader = "Course Instructor:"
	lessonLinkHeader = "Lesson Link:"
)

// ParseTranscript reads a transcript into its course metadata and lesson
// sections. Header lines may appear in any order before the first lesson
// marker; only the title is required.
func ParseTranscript(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{}
	var (
		current       *Section
		currentLesson *course.Lesson
		text          strings.Builder
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(text.String())
		if current.Text != "" {
			doc.Sections = append(doc.Sections, *current)
		}
		text.Reset()
		current = nil
	}
	flushLesson := func() {
		if currentLesson != nil {
			doc.Course.Lessons = append(doc.Course.Lessons, *currentLesson)
			currentLesson = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, titleHeader):
			doc.Course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, titleHeader))
			continue
		case strings.HasPrefix(trimmed, linkHeader) && doc.Course.Link == "":
			doc.Course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, linkHeader))
			continue
		case strings.HasPrefix(trimmed, instructorHeader):
			doc.Course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, instructorHeader))
			continue
		}

		if number, title, ok := parseLessonMarker(trimmed); ok {
			flush()
			flushLesson()
			n := number
			current = &Section{LessonNumber: &n}
			currentLesson = &course.Lesson{Number: number, Title: title}
			continue
		}

		if strings.HasPrefix(trimmed, lessonLinkHeader) && currentLesson != nil && currentLesson.Link == "" {
			currentLesson.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, lessonLinkHeader))
			continue
		}

		if current == nil {
			current = &Section{}
		}
		text.WriteString(line)
		text.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	flush()
	flushLesson()

	if doc.Course.Title == "" {
		return nil, ErrMissingTitle
	}
	return doc, nil
}

// parseLessonMarker recognizes "Lesson N: Title" lines.
func parseLessonMarker(line string) (number int, title string, ok bool) {
	rest, found := strings.CutPrefix(line, "Lesson ")
	if !found {
		return 0, "", false
	}
	numStr, title, found := strings.Cut(rest, ":")
	if !found {
		return 0, "", false
	}
	number, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return 0, "", false
	}
	return number, strings.TrimSpace(title), true
}
