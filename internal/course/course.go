// Package course defines the domain model for ingested course material:
// courses, their lessons, the content chunks stored in the vector store,
// and the source records surfaced alongside answers.
package course

import "fmt"

// Course is the catalog entry for a single course. The title is the unique
// identifier across the corpus. Courses are immutable once ingested.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is one lesson within a course. Number is unique within the course.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Lesson returns the lesson with the given number, or false if the course
// has no such lesson.
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// Chunk is a slice of transcript text stored in the vector store.
// The (CourseTitle, LessonNumber, Index) triple uniquely identifies a chunk
// within the corpus; the vector store is the single source of truth for
// chunk retrieval.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int // nil for text before the first lesson marker
	Index        int  // sequential within the course
}

// Source is a human-readable reference to material used in an answer,
// e.g. "Introduction to MCP - Lesson 1" with an optional link.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// SourceLabel renders the conventional "Course - Lesson N" label.
// When lesson is nil the label is just the course title.
func SourceLabel(courseTitle string, lesson *int) string {
	if lesson == nil {
		return courseTitle
	}
	return fmt.Sprintf("%s - Lesson %d", courseTitle, *lesson)
}
