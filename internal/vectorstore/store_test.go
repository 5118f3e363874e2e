package vectorstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/testutil"
)

// fakeQuerier implements Querier with function fields, overridable per test.
type fakeQuerier struct {
	bestCourseMatch  func(ctx context.Context, embedding pgvector.Vector) (course.Course, error)
	searchChunks     func(ctx context.Context, embedding pgvector.Vector, filter Filter, limit int) ([]ChunkRow, error)
	getCourse        func(ctx context.Context, title string) (course.Course, error)
	insertCourse     func(ctx context.Context, c course.Course, embedding pgvector.Vector) error
	insertChunk      func(ctx context.Context, chunk course.Chunk, embedding pgvector.Vector) error
	countCourses     func(ctx context.Context) (int64, error)
	listCourseTitles func(ctx context.Context) ([]string, error)
}

func (f *fakeQuerier) BestCourseMatch(ctx context.Context, e pgvector.Vector) (course.Course, error) {
	if f.bestCourseMatch != nil {
		return f.bestCourseMatch(ctx, e)
	}
	return course.Course{}, pgx.ErrNoRows
}

func (f *fakeQuerier) SearchChunks(ctx context.Context, e pgvector.Vector, filter Filter, limit int) ([]ChunkRow, error) {
	if f.searchChunks != nil {
		return f.searchChunks(ctx, e, filter, limit)
	}
	return nil, nil
}

func (f *fakeQuerier) GetCourse(ctx context.Context, title string) (course.Course, error) {
	if f.getCourse != nil {
		return f.getCourse(ctx, title)
	}
	return course.Course{}, pgx.ErrNoRows
}

func (f *fakeQuerier) InsertCourse(ctx context.Context, c course.Course, e pgvector.Vector) error {
	if f.insertCourse != nil {
		return f.insertCourse(ctx, c, e)
	}
	return nil
}

func (f *fakeQuerier) InsertChunk(ctx context.Context, c course.Chunk, e pgvector.Vector) error {
	if f.insertChunk != nil {
		return f.insertChunk(ctx, c, e)
	}
	return nil
}

func (f *fakeQuerier) CountCourses(ctx context.Context) (int64, error) {
	if f.countCourses != nil {
		return f.countCourses(ctx)
	}
	return 0, nil
}

func (f *fakeQuerier) ListCourseTitles(ctx context.Context) ([]string, error) {
	if f.listCourseTitles != nil {
		return f.listCourseTitles(ctx)
	}
	return nil, nil
}

func newTestStore(q Querier) *Store {
	return New(q, testutil.NewMockEmbedder(VectorDimension), 5, log.NewNop())
}

func TestResolveCourseName(t *testing.T) {
	t.Run("returns best match title", func(t *testing.T) {
		q := &fakeQuerier{
			bestCourseMatch: func(context.Context, pgvector.Vector) (course.Course, error) {
				return course.Course{Title: "Introduction to MCP"}, nil
			},
		}

		got, err := newTestStore(q).ResolveCourseName(context.Background(), "MCP")
		if err != nil {
			t.Fatalf("ResolveCourseName() error = %v", err)
		}
		if got != "Introduction to MCP" {
			t.Errorf("ResolveCourseName() = %q, want %q", got, "Introduction to MCP")
		}
	})

	t.Run("empty catalog resolves to empty string without error", func(t *testing.T) {
		got, err := newTestStore(&fakeQuerier{}).ResolveCourseName(context.Background(), "MCP")
		if err != nil {
			t.Fatalf("ResolveCourseName() error = %v", err)
		}
		if got != "" {
			t.Errorf("ResolveCourseName() = %q, want empty", got)
		}
	})

	t.Run("database error propagates", func(t *testing.T) {
		q := &fakeQuerier{
			bestCourseMatch: func(context.Context, pgvector.Vector) (course.Course, error) {
				return course.Course{}, errors.New("connection refused")
			},
		}

		if _, err := newTestStore(q).ResolveCourseName(context.Background(), "MCP"); err == nil {
			t.Error("ResolveCourseName() error = nil, want error")
		}
	})
}

func TestSearch(t *testing.T) {
	hit := ChunkRow{
		Content:  "Model Context Protocol lets tools talk to models.",
		Meta:     ChunkMeta{CourseTitle: "Introduction to MCP", LessonNumber: intPtr(1), ChunkIndex: 0},
		Distance: 0.12,
	}

	t.Run("unfiltered search returns hits", func(t *testing.T) {
		q := &fakeQuerier{
			searchChunks: func(_ context.Context, _ pgvector.Vector, filter Filter, limit int) ([]ChunkRow, error) {
				if filter != (Filter{}) {
					t.Errorf("filter = %+v, want empty", filter)
				}
				if limit != 5 {
					t.Errorf("limit = %d, want 5", limit)
				}
				return []ChunkRow{hit}, nil
			},
		}

		results := newTestStore(q).Search(context.Background(), "what is MCP", "", nil)
		if results.Err != "" {
			t.Fatalf("Search() Err = %q, want empty", results.Err)
		}
		if diff := cmp.Diff([]string{hit.Content}, results.Documents); diff != "" {
			t.Errorf("Documents mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]ChunkMeta{hit.Meta}, results.Metadata); diff != "" {
			t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("course name is resolved before filtering", func(t *testing.T) {
		q := &fakeQuerier{
			bestCourseMatch: func(context.Context, pgvector.Vector) (course.Course, error) {
				return course.Course{Title: "Introduction to MCP"}, nil
			},
			searchChunks: func(_ context.Context, _ pgvector.Vector, filter Filter, _ int) ([]ChunkRow, error) {
				if filter.CourseTitle != "Introduction to MCP" {
					t.Errorf("filter.CourseTitle = %q, want resolved title", filter.CourseTitle)
				}
				return []ChunkRow{hit}, nil
			},
		}

		results := newTestStore(q).Search(context.Background(), "what is MCP", "MCP", nil)
		if results.Err != "" {
			t.Fatalf("Search() Err = %q, want empty", results.Err)
		}
	})

	t.Run("unresolvable course yields no-course message", func(t *testing.T) {
		results := newTestStore(&fakeQuerier{}).Search(context.Background(), "anything", "Nonexistent", nil)

		if !results.IsEmpty() {
			t.Errorf("Search() documents = %v, want none", results.Documents)
		}
		want := "No course found matching 'Nonexistent'"
		if results.Err != want {
			t.Errorf("Search() Err = %q, want %q", results.Err, want)
		}
	})

	t.Run("database failure absorbed into Err", func(t *testing.T) {
		q := &fakeQuerier{
			searchChunks: func(context.Context, pgvector.Vector, Filter, int) ([]ChunkRow, error) {
				return nil, errors.New("connection reset")
			},
		}

		results := newTestStore(q).Search(context.Background(), "anything", "", nil)
		if !strings.HasPrefix(results.Err, "Search error:") {
			t.Errorf("Search() Err = %q, want Search error prefix", results.Err)
		}
		if !results.IsEmpty() {
			t.Errorf("Search() documents = %v, want none", results.Documents)
		}
	})

	t.Run("lesson filter passes through", func(t *testing.T) {
		q := &fakeQuerier{
			searchChunks: func(_ context.Context, _ pgvector.Vector, filter Filter, _ int) ([]ChunkRow, error) {
				if filter.LessonNumber == nil || *filter.LessonNumber != 4 {
					t.Errorf("filter.LessonNumber = %v, want 4", filter.LessonNumber)
				}
				return nil, nil
			},
		}

		results := newTestStore(q).Search(context.Background(), "anything", "", intPtr(4))
		if results.Err != "" {
			t.Errorf("Search() Err = %q, want empty", results.Err)
		}
		if !results.IsEmpty() {
			t.Error("Search() want empty results")
		}
	})
}

func TestGetCourse(t *testing.T) {
	t.Run("unknown title", func(t *testing.T) {
		_, err := newTestStore(&fakeQuerier{}).GetCourse(context.Background(), "Nope")
		if !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("GetCourse() error = %v, want ErrCourseNotFound", err)
		}
	})
}

func TestLessonLink(t *testing.T) {
	q := &fakeQuerier{
		getCourse: func(_ context.Context, title string) (course.Course, error) {
			return course.Course{
				Title: title,
				Lessons: []course.Lesson{
					{Number: 1, Title: "Overview", Link: "https://example.com/l1"},
				},
			}, nil
		},
	}
	store := newTestStore(q)

	if got := store.LessonLink(context.Background(), "C", 1); got != "https://example.com/l1" {
		t.Errorf("LessonLink() = %q, want lesson link", got)
	}
	if got := store.LessonLink(context.Background(), "C", 9); got != "" {
		t.Errorf("LessonLink() for missing lesson = %q, want empty", got)
	}
}

func TestAddChunksEmbedsEveryChunk(t *testing.T) {
	var inserted []course.Chunk
	q := &fakeQuerier{
		insertChunk: func(_ context.Context, c course.Chunk, e pgvector.Vector) error {
			if len(e.Slice()) != VectorDimension {
				t.Errorf("embedding dimension = %d, want %d", len(e.Slice()), VectorDimension)
			}
			inserted = append(inserted, c)
			return nil
		},
	}

	chunks := []course.Chunk{
		{Content: "first", CourseTitle: "C", Index: 0},
		{Content: "second", CourseTitle: "C", Index: 1},
	}
	if err := newTestStore(q).AddChunks(context.Background(), chunks); err != nil {
		t.Fatalf("AddChunks() error = %v", err)
	}
	if diff := cmp.Diff(chunks, inserted); diff != "" {
		t.Errorf("inserted chunks mismatch (-want +got):\n%s", diff)
	}
}
