package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/lectern/lectern/internal/course"
)

// Querier defines the database operations Store depends on. The interface
// is defined by the consumer (like http.RoundTripper or io.Reader) so tests
// can substitute a fake without a database.
type Querier interface {
	// BestCourseMatch returns the catalog row nearest to the embedding.
	// Returns pgx.ErrNoRows when the catalog is empty.
	BestCourseMatch(ctx context.Context, embedding pgvector.Vector) (course.Course, error)

	// SearchChunks performs filtered vector search over content chunks.
	SearchChunks(ctx context.Context, embedding pgvector.Vector, filter Filter, limit int) ([]ChunkRow, error)

	// GetCourse returns a catalog row by exact title.
	GetCourse(ctx context.Context, title string) (course.Course, error)

	// InsertCourse adds a catalog row.
	InsertCourse(ctx context.Context, c course.Course, embedding pgvector.Vector) error

	// InsertChunk adds a content chunk row.
	InsertChunk(ctx context.Context, chunk course.Chunk, embedding pgvector.Vector) error

	// CountCourses returns the catalog size.
	CountCourses(ctx context.Context) (int64, error)

	// ListCourseTitles returns all catalog titles.
	ListCourseTitles(ctx context.Context) ([]string, error)
}

// ChunkRow is one content search hit.
type ChunkRow struct {
	Content  string
	Meta     ChunkMeta
	Distance float64
}

// DBTX is the subset of pgxpool.Pool the queries need.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries implements Querier on top of a pgx connection pool.
type Queries struct {
	db DBTX
}

// NewQueries creates the pgx-backed Querier implementation.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) BestCourseMatch(ctx context.Context, embedding pgvector.Vector) (course.Course, error) {
	row := q.db.QueryRow(ctx, `
		SELECT title, link, instructor, lessons
		FROM courses
		ORDER BY embedding <=> $1
		LIMIT 1`, embedding)
	return scanCourse(row)
}

func (q *Queries) SearchChunks(ctx context.Context, embedding pgvector.Vector, filter Filter, limit int) ([]ChunkRow, error) {
	where, filterArgs := filter.clause(2)
	args := append([]any{embedding}, filterArgs...)
	args = append(args, limit)

	sql := fmt.Sprintf(`
		SELECT content, course_title, lesson_number, chunk_index, embedding <=> $1 AS distance
		FROM chunks
		%s
		ORDER BY embedding <=> $1
		LIMIT $%d`, where, len(args))

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []ChunkRow
	for rows.Next() {
		var hit ChunkRow
		if err := rows.Scan(&hit.Content, &hit.Meta.CourseTitle, &hit.Meta.LessonNumber,
			&hit.Meta.ChunkIndex, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunk rows: %w", err)
	}
	return hits, nil
}

func (q *Queries) GetCourse(ctx context.Context, title string) (course.Course, error) {
	row := q.db.QueryRow(ctx, `
		SELECT title, link, instructor, lessons
		FROM courses
		WHERE title = $1`, title)
	return scanCourse(row)
}

func (q *Queries) InsertCourse(ctx context.Context, c course.Course, embedding pgvector.Vector) error {
	lessons, err := json.Marshal(c.Lessons)
	if err != nil {
		return fmt.Errorf("marshaling lessons: %w", err)
	}
	_, err = q.db.Exec(ctx, `
		INSERT INTO courses (title, link, instructor, lessons, embedding)
		VALUES ($1, $2, $3, $4, $5)`,
		c.Title, c.Link, c.Instructor, lessons, embedding)
	if err != nil {
		return fmt.Errorf("inserting course %q: %w", c.Title, err)
	}
	return nil
}

func (q *Queries) InsertChunk(ctx context.Context, chunk course.Chunk, embedding pgvector.Vector) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO chunks (course_title, lesson_number, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5)`,
		chunk.CourseTitle, chunk.LessonNumber, chunk.Index, chunk.Content, embedding)
	if err != nil {
		return fmt.Errorf("inserting chunk %d of %q: %w", chunk.Index, chunk.CourseTitle, err)
	}
	return nil
}

func (q *Queries) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM courses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting courses: %w", err)
	}
	return count, nil
}

func (q *Queries) ListCourseTitles(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT title FROM courses ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("listing course titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scanning course title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading course titles: %w", err)
	}
	return titles, nil
}

// scanCourse reads one catalog row, decoding the lessons JSONB column.
func scanCourse(row pgx.Row) (course.Course, error) {
	var (
		c       course.Course
		lessons []byte
	)
	if err := row.Scan(&c.Title, &c.Link, &c.Instructor, &lessons); err != nil {
		return course.Course{}, err
	}
	if err := json.Unmarshal(lessons, &c.Lessons); err != nil {
		return course.Course{}, fmt.Errorf("unmarshaling lessons for %q: %w", c.Title, err)
	}
	return c, nil
}
