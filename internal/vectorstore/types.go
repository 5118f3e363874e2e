// Package vectorstore implements semantic search over course transcripts
// using PostgreSQL with the pgvector extension. It keeps two collections:
// the course catalog (one embedded row per course title, used to resolve
// partial course names) and the content chunks (embedded transcript slices,
// used for retrieval).
package vectorstore

import "github.com/lectern/lectern/internal/course"

// VectorDimension is the embedding width of both collections. It must match
// the vector(N) columns in the schema and the embedder model's output.
const VectorDimension = 768

// ChunkMeta identifies where a search hit came from.
type ChunkMeta struct {
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

// SourceLabel renders the conventional "Course - Lesson N" label for the hit.
func (m ChunkMeta) SourceLabel() string {
	return course.SourceLabel(m.CourseTitle, m.LessonNumber)
}

// SearchResults is the outcome of a content search. Recoverable failures
// (unresolvable course name, database error during search) are carried in
// Err as a human-readable message rather than returned as a Go error: the
// caller renders them as tool output for the model's second pass.
type SearchResults struct {
	Documents []string
	Metadata  []ChunkMeta
	Distances []float64
	Err       string
}

// IsEmpty reports whether the search produced no documents.
func (r SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// errorResults returns an empty result set carrying an error message.
func errorResults(msg string) SearchResults {
	return SearchResults{Err: msg}
}
