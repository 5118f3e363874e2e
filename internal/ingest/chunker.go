package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lectern/lectern/internal/course"
)

// Chunker splits section text into overlapping, sentence-aligned chunks.
// Chunks never cut a sentence in half: sentences are packed greedily up to
// the size limit, and each chunk restarts with enough trailing sentences of
// its predecessor to cover the overlap.
type Chunker struct {
	size    int // target chunk size in characters
	overlap int // characters of overlap between adjacent chunks
}

// NewChunker creates a chunker. size must be positive and overlap must be
// smaller than size; config validation enforces this upstream.
func NewChunker(size, overlap int) *Chunker {
	return &Chunker{size: size, overlap: overlap}
}

// Split returns the chunks of a text. A text shorter than the chunk size
// yields a single chunk; whitespace-only text yields none.
func (c *Chunker) Split(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		// Pack sentences until the next one would exceed the size limit.
		// A single oversized sentence still becomes its own chunk.
		length := 0
		j := i
		for j < len(sentences) {
			next := len(sentences[j])
			if j > i {
				next++ // joining space
			}
			if length+next > c.size && j > i {
				break
			}
			length += next
			j++
		}
		chunks = append(chunks, strings.Join(sentences[i:j], " "))

		if j >= len(sentences) {
			break
		}

		// Step back over trailing sentences to build the overlap.
		back := j
		overlapLen := 0
		for back > i {
			if overlapLen+len(sentences[back-1]) > c.overlap {
				break
			}
			overlapLen += len(sentences[back-1]) + 1
			back--
		}
		// Guarantee forward progress even when every sentence fits the
		// overlap window.
		if back <= i {
			back = i + 1
		}
		i = back
	}
	return chunks
}

// splitSentences breaks text into sentences on terminal punctuation
// followed by whitespace. Newlines inside a sentence are collapsed.
func splitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if unicode.IsSpace(r) {
			// Collapse runs of whitespace to a single space.
			if current.Len() > 0 && !strings.HasSuffix(current.String(), " ") {
				current.WriteRune(' ')
			}
		} else {
			current.WriteRune(r)
		}

		if (r == '.' || r == '!' || r == '?') &&
			(i+1 >= len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// BuildChunks chunks every section of a parsed transcript and prefixes each
// chunk with its course and lesson context so retrieval hits stay
// attributable even in isolation. Chunk indexes are sequential across the
// whole course.
func BuildChunks(doc *Document, chunker *Chunker) []course.Chunk {
	var chunks []course.Chunk
	index := 0
	for _, section := range doc.Sections {
		for _, piece := range chunker.Split(section.Text) {
			var content string
			if section.LessonNumber != nil {
				content = fmt.Sprintf("Course %s Lesson %d content: %s",
					doc.Course.Title, *section.LessonNumber, piece)
			} else {
				content = fmt.Sprintf("Course %s content: %s", doc.Course.Title, piece)
			}
			chunks = append(chunks, course.Chunk{
				Content:      content,
				CourseTitle:  doc.Course.Title,
				LessonNumber: section.LessonNumber,
				Index:        index,
			})
			index++
		}
	}
	return chunks
}
