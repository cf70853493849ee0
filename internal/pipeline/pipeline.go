package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/docrank/internal/chunker"
	"github.com/dgallion1/docrank/internal/collection"
	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/schemas"
)

// TimestampLayout is ISO-8601 local time with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DefaultTopK is the number of chunks carried into the output.
const DefaultTopK = 5

// Output is the ranked artifact for one collection.
type Output struct {
	Metadata           OutputMetadata       `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis"`
}

type OutputMetadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Phase names reported while a run progresses.
const (
	PhaseDispatching = "dispatching"
	PhaseRanking     = "ranking"
	PhaseRefining    = "refining"
)

// Pipeline segments a collection's documents and ranks the results against
// the collection's persona and task.
type Pipeline struct {
	Dispatcher *Dispatcher
	Ranker     *rank.Ranker
	TopK       int
	DocDir     string
	Log        *slog.Logger

	// Now is the clock used for the output timestamp.
	Now func() time.Time
}

// Run executes the full pipeline for c.
func (p *Pipeline) Run(ctx context.Context, c *collection.Collection) (*Output, error) {
	return p.RunWithProgress(ctx, c, nil)
}

// RunWithProgress is Run with a callback invoked as each phase starts.
func (p *Pipeline) RunWithProgress(ctx context.Context, c *collection.Collection, report func(phase string)) (*Output, error) {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	if report == nil {
		report = func(string) {}
	}
	topK := p.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}

	out := &Output{
		Metadata: OutputMetadata{
			InputDocuments: c.Filenames(),
			Persona:        c.Persona.Role,
			JobToBeDone:    c.JobToBeDone.Task,
		},
		ExtractedSections:  []ExtractedSection{},
		SubsectionAnalysis: []SubsectionAnalysis{},
	}

	docs, err := c.Descriptors(p.DocDir)
	if err != nil {
		return nil, err
	}

	report(PhaseDispatching)
	start := time.Now()
	chunks := p.Dispatcher.Dispatch(ctx, docs)
	log.Info("dispatch complete", "documents", len(docs), "chunks", len(chunks), "elapsed", time.Since(start))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(chunks) > 0 {
		report(PhaseRanking)
		if err := p.rankInto(ctx, out, c.Query(), chunks, topK, report); err != nil {
			return nil, err
		}
	}

	out.Metadata.ProcessingTimestamp = now().Format(TimestampLayout)
	return out, nil
}

func (p *Pipeline) rankInto(ctx context.Context, out *Output, query string, chunks []document.Chunk, topK int, report func(string)) error {
	qvec, err := p.Ranker.EmbedQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("rank chunks: %w", err)
	}

	ranked, err := rank.RankWithQuery(ctx, p.Ranker, qvec, chunks, chunkText)
	if err != nil {
		return fmt.Errorf("rank chunks: %w", err)
	}
	top := ranked[:min(topK, len(ranked))]

	report(PhaseRefining)
	for _, sc := range top {
		ch := sc.Item
		out.ExtractedSections = append(out.ExtractedSections, ExtractedSection{
			Document:       ch.Document,
			SectionTitle:   ch.SectionTitle,
			ImportanceRank: sc.Rank,
			PageNumber:     ch.PageNumber,
		})

		paras, err := rank.RankWithQuery(ctx, p.Ranker, qvec, chunker.SplitParagraphs(ch.Text), identity)
		if err != nil {
			return fmt.Errorf("rank paragraphs of %s p%d: %w", ch.Document, ch.PageNumber, err)
		}
		for _, para := range paras {
			out.SubsectionAnalysis = append(out.SubsectionAnalysis, SubsectionAnalysis{
				Document:    ch.Document,
				RefinedText: para.Item,
				PageNumber:  ch.PageNumber,
			})
		}
	}
	return nil
}

func chunkText(c document.Chunk) string { return c.Text }

func identity(s string) string { return s }

// MarshalOutput renders out as 4-space indented JSON.
func MarshalOutput(out *Output) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("marshal output: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteOutput validates out against the output schema and writes it to
// path. A schema mismatch is logged, not returned.
func WriteOutput(path string, out *Output, log *slog.Logger) error {
	data, err := MarshalOutput(out)
	if err != nil {
		return err
	}
	if err := schemas.ValidateOutput(data); err != nil {
		log.Warn("output does not match schema", "path", path, "error", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
