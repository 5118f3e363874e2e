package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
)

// Catalog is the vector store surface the loader writes to.
type Catalog interface {
	ListCourseTitles(ctx context.Context) ([]string, error)
	AddCourse(ctx context.Context, c course.Course) error
	AddChunks(ctx context.Context, chunks []course.Chunk) error
}

// Loader ingests transcript files from a folder into the catalog, skipping
// courses that are already present. It runs once at startup; re-running it
// against the same folder is a no-op.
type Loader struct {
	catalog Catalog
	chunker *Chunker
	logger  log.Logger
}

// NewLoader creates a Loader.
func NewLoader(catalog Catalog, chunker *Chunker, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Loader{catalog: catalog, chunker: chunker, logger: logger}
}

// LoadFolder ingests every .txt transcript under dir. It returns the number
// of courses added. A missing folder is not an error: the service starts
// with whatever corpus it has.
func (l *Loader) LoadFolder(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("docs folder not found, skipping ingestion", "dir", dir)
			return 0, nil
		}
		return 0, fmt.Errorf("reading docs folder %q: %w", dir, err)
	}

	existing, err := l.catalog.ListCourseTitles(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing existing courses: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, title := range existing {
		known[title] = true
	}

	added := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		doc, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable transcript", "file", path, "error", err)
			continue
		}

		if known[doc.Course.Title] {
			l.logger.Debug("course already ingested", "title", doc.Course.Title)
			continue
		}

		chunks := BuildChunks(doc, l.chunker)
		if err := l.catalog.AddCourse(ctx, doc.Course); err != nil {
			return added, fmt.Errorf("adding course %q: %w", doc.Course.Title, err)
		}
		if err := l.catalog.AddChunks(ctx, chunks); err != nil {
			return added, fmt.Errorf("adding chunks for %q: %w", doc.Course.Title, err)
		}

		known[doc.Course.Title] = true
		added++
		l.logger.Info("ingested course",
			"title", doc.Course.Title,
			"lessons", len(doc.Course.Lessons),
			"chunks", len(chunks))
	}
	return added, nil
}

func (l *Loader) loadFile(path string) (*Document, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the configured docs folder
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTranscript(f)
}
