package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/dgallion1/docrank/internal/chunker"
	"github.com/dgallion1/docrank/internal/classify"
	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/features"
	"github.com/dgallion1/docrank/internal/parser"
)

// DocWorker turns one document into its chunks.
type DocWorker interface {
	Process(ctx context.Context, d document.Descriptor) ([]document.Chunk, error)
}

// LocalWorker processes documents in the calling goroutine with its own
// classifier instance.
type LocalWorker struct {
	classifier classify.Classifier
	parseOpts  parser.Options
	chunkCfg   chunker.Config
	log        *slog.Logger
}

func NewLocalWorker(c classify.Classifier, parseOpts parser.Options, chunkCfg chunker.Config, log *slog.Logger) *LocalWorker {
	return &LocalWorker{
		classifier: c,
		parseOpts:  parseOpts,
		chunkCfg:   chunkCfg,
		log:        log,
	}
}

// Close releases the worker's classifier.
func (w *LocalWorker) Close() error {
	if c, ok := w.classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Process runs parse, features, classify and segment for one document.
func (w *LocalWorker) Process(ctx context.Context, d document.Descriptor) ([]document.Chunk, error) {
	log := w.log.With("document", d.Filename)

	// Phase 1: Parse
	opts := w.parseOpts
	opts.Log = log
	raw, err := parser.ParseFile(d.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	// Phase 2: Features
	lines := features.BuildLines(raw)
	log.Debug("extracted lines", "raw", len(raw), "lines", len(lines))
	if len(lines) == 0 {
		log.Warn("no text lines found")
		return []document.Chunk{}, nil
	}

	// Phase 3: Classify
	labeled, err := classify.Label(ctx, w.classifier, lines)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	// Phase 4: Segment
	chunks := chunker.Segment(d.Filename, labeled, w.chunkCfg)
	tokens := 0
	for _, c := range chunks {
		tokens += chunker.EstimateTokens(c.Text)
	}
	log.Info("segmented document", "chunks", len(chunks), "est_tokens", tokens)
	return chunks, nil
}

// ProcessWorker runs each document in a child process so a crash in
// decoding or inference cannot take down the run. The child is the same
// binary invoked with the segment subcommand; it writes the chunk list to
// stdout as JSON.
type ProcessWorker struct {
	executable string
	log        *slog.Logger
}

func NewProcessWorker(executable string, log *slog.Logger) *ProcessWorker {
	return &ProcessWorker{executable: executable, log: log}
}

// SegmentArgs is the child command line for one document.
func SegmentArgs(d document.Descriptor) []string {
	return []string{"segment", "--file", d.Path, "--name", d.Filename}
}

func (w *ProcessWorker) Process(ctx context.Context, d document.Descriptor) ([]document.Chunk, error) {
	cmd := exec.CommandContext(ctx, w.executable, SegmentArgs(d)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("segment child: %w", err)
	}

	var chunks []document.Chunk
	if err := json.Unmarshal(stdout.Bytes(), &chunks); err != nil {
		return nil, fmt.Errorf("decode child output: %w", err)
	}
	if chunks == nil {
		chunks = []document.Chunk{}
	}
	return chunks, nil
}
