package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
)

// searchTimeout bounds a single search, embedding call included.
const searchTimeout = 10 * time.Second

// ErrCourseNotFound is returned by exact-title lookups when no catalog row
// matches. Semantic resolution (ResolveCourseName) never returns it.
var ErrCourseNotFound = errors.New("course not found")

// Store provides semantic search and ingestion over the course corpus.
// It owns embedding generation; callers pass plain text.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries    Querier
	embedder   ai.Embedder
	maxResults int
	logger     log.Logger
}

// New creates a Store. maxResults caps the hits returned per search.
func New(querier Querier, embedder ai.Embedder, maxResults int, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries:    querier,
		embedder:   embedder,
		maxResults: maxResults,
		logger:     logger,
	}
}

// embed generates the embedding vector for a single text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("generating embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("embedder returned empty embedding")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// ResolveCourseName finds the catalog title best matching a partial or
// misspelled course name using vector similarity over course titles.
// An empty string with nil error means no course could be resolved.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	embedding, err := s.embed(ctx, name)
	if err != nil {
		return "", err
	}

	match, err := s.queries.BestCourseMatch(ctx, embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("resolving course name %q: %w", name, err)
	}

	s.logger.Debug("resolved course name", "input", name, "resolved", match.Title)
	return match.Title, nil
}

// Search retrieves the chunks most similar to the query, optionally
// restricted to a course (partial names are resolved semantically) and a
// lesson number.
//
// All failures are absorbed into SearchResults.Err rather than returned:
// the caller renders them as text for the model to see. An unresolvable
// course name yields the "No course found" message with no documents.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int) SearchResults {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	var resolvedTitle string
	if courseName != "" {
		title, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			return errorResults(fmt.Sprintf("Search error: %v", err))
		}
		if title == "" {
			return errorResults(fmt.Sprintf("No course found matching '%s'", courseName))
		}
		resolvedTitle = title
	}

	embedding, err := s.embed(ctx, query)
	if err != nil {
		return errorResults(fmt.Sprintf("Search error: %v", err))
	}

	filter := buildFilter(resolvedTitle, lessonNumber)
	hits, err := s.queries.SearchChunks(ctx, embedding, filter, s.maxResults)
	if err != nil {
		return errorResults(fmt.Sprintf("Search error: %v", err))
	}

	results := SearchResults{
		Documents: make([]string, 0, len(hits)),
		Metadata:  make([]ChunkMeta, 0, len(hits)),
		Distances: make([]float64, 0, len(hits)),
	}
	for _, hit := range hits {
		results.Documents = append(results.Documents, hit.Content)
		results.Metadata = append(results.Metadata, hit.Meta)
		results.Distances = append(results.Distances, hit.Distance)
	}

	s.logger.Debug("content search",
		"query_length", len(query),
		"course", resolvedTitle,
		"hits", len(hits))
	return results
}

// GetCourse returns the full catalog entry for an exact title.
// Returns ErrCourseNotFound when the title is not in the catalog.
func (s *Store) GetCourse(ctx context.Context, title string) (course.Course, error) {
	c, err := s.queries.GetCourse(ctx, title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return course.Course{}, fmt.Errorf("%w: %q", ErrCourseNotFound, title)
		}
		return course.Course{}, fmt.Errorf("getting course %q: %w", title, err)
	}
	return c, nil
}

// AddCourse adds a catalog entry, embedding the title for semantic
// resolution.
func (s *Store) AddCourse(ctx context.Context, c course.Course) error {
	embedding, err := s.embed(ctx, c.Title)
	if err != nil {
		return fmt.Errorf("embedding course title %q: %w", c.Title, err)
	}
	return s.queries.InsertCourse(ctx, c, embedding)
}

// AddChunks embeds and stores content chunks. Chunks are inserted one at a
// time; ingestion runs once at startup so throughput is not a concern.
func (s *Store) AddChunks(ctx context.Context, chunks []course.Chunk) error {
	for _, chunk := range chunks {
		embedding, err := s.embed(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk %d of %q: %w", chunk.Index, chunk.CourseTitle, err)
		}
		if err := s.queries.InsertChunk(ctx, chunk, embedding); err != nil {
			return err
		}
	}
	return nil
}

// CountCourses returns the number of courses in the catalog.
func (s *Store) CountCourses(ctx context.Context) (int, error) {
	count, err := s.queries.CountCourses(ctx)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// ListCourseTitles returns all catalog titles in lexical order.
func (s *Store) ListCourseTitles(ctx context.Context) ([]string, error) {
	return s.queries.ListCourseTitles(ctx)
}

// LessonLink returns the link for a lesson of a course, or "" when the
// course or lesson has none.
func (s *Store) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) string {
	c, err := s.queries.GetCourse(ctx, courseTitle)
	if err != nil {
		return ""
	}
	lesson, ok := c.Lesson(lessonNumber)
	if !ok {
		return ""
	}
	return lesson.Link
}
