package chunker

import (
	"strings"

	"github.com/dgallion1/docrank/internal/classify"
	"github.com/dgallion1/docrank/internal/document"
)

// DefaultTitle names text that appears before a document's first heading.
const DefaultTitle = "Introduction"

// Config controls segmentation.
type Config struct {
	DefaultTitle string // Title of the leading chunk before any heading.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{DefaultTitle: DefaultTitle}
}

type state int

const (
	boundary     state = iota // title set, no body text yet
	accumulating              // collecting body text under the current title
)

// segmenter folds classified lines into chunks in a single pass.
type segmenter struct {
	filename string
	state    state
	title    string
	page     int
	acc      []string
	chunks   []document.Chunk
}

// Segment groups a document's classified lines into heading-delimited
// chunks, preserving line order. Chunks with no body text are never
// emitted.
func Segment(filename string, lines []document.ClassifiedLine, cfg Config) []document.Chunk {
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultTitle
	}

	s := &segmenter{
		filename: filename,
		state:    boundary,
		title:    cfg.DefaultTitle,
		page:     1,
	}
	for _, l := range lines {
		if classify.IsHeading(l.Label) {
			s.heading(l)
		} else {
			s.body(l)
		}
	}
	s.close()
	return s.chunks
}

// heading closes the open section, if any, and starts a new one. A heading
// seen at a boundary replaces the pending title, which had no body.
func (s *segmenter) heading(l document.ClassifiedLine) {
	s.close()
	s.title = l.Text
	s.page = l.Page
}

func (s *segmenter) body(l document.ClassifiedLine) {
	s.acc = append(s.acc, l.Text)
	s.state = accumulating
}

// close emits the accumulated section and returns to the boundary state.
func (s *segmenter) close() {
	if s.state == boundary {
		return
	}
	s.state = boundary
	text := strings.TrimSpace(strings.Join(s.acc, " "))
	s.acc = s.acc[:0]
	if text == "" {
		return
	}
	s.chunks = append(s.chunks, document.Chunk{
		Document:     s.filename,
		PageNumber:   s.page,
		SectionTitle: s.title,
		Text:         text,
	})
}
