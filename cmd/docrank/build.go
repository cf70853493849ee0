package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/docrank/internal/chunker"
	"github.com/dgallion1/docrank/internal/classify"
	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/rank"
)

func parseOptions(cfg config.Config) parser.Options {
	return parser.Options{
		MinFontSize:       cfg.MinFontSize,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	}
}

func chunkConfig(cfg config.Config) chunker.Config {
	c := chunker.DefaultConfig()
	if cfg.DefaultTitle != "" {
		c.DefaultTitle = cfg.DefaultTitle
	}
	return c
}

// workerFactory builds one worker per dispatcher slot. Process isolation
// re-runs this binary with the segment subcommand.
func workerFactory(cfg config.Config, log *slog.Logger) (pipeline.WorkerFactory, error) {
	switch cfg.Isolation {
	case config.IsolationProcess:
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		return func(slot int) (pipeline.DocWorker, error) {
			return pipeline.NewProcessWorker(exe, log.With("slot", slot)), nil
		}, nil
	case config.IsolationGoroutine:
		return func(slot int) (pipeline.DocWorker, error) {
			wlog := log.With("slot", slot)
			return pipeline.NewLocalWorker(classify.New(cfg, wlog), parseOptions(cfg), chunkConfig(cfg), wlog), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown isolation mode %q", cfg.Isolation)
}

// checkClassifier probes the classifier model server once, before any
// document work. The heuristic classifier has nothing to probe.
func checkClassifier(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.ClassifierURL == "" {
		return nil
	}
	c := classify.NewHTTPClassifier(cfg.ClassifierURL, cfg.ModelTimeout, log)
	defer c.Close()

	log.Debug("checking heading classifier", "url", c.BaseURL())
	if err := c.Check(ctx); err != nil {
		return fmt.Errorf("heading classifier unavailable: %w", err)
	}
	return nil
}

// buildPipeline wires dispatcher, embedder and ranker from cfg. The caller
// owns the returned embedder and must Close it.
func buildPipeline(ctx context.Context, cfg config.Config, log *slog.Logger) (*pipeline.Pipeline, *embed.Instrumented, error) {
	factory, err := workerFactory(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	emb, err := embed.New(ctx, cfg, embed.NewStats(time.Hour), log)
	if err != nil {
		return nil, nil, fmt.Errorf("init embedder: %w", err)
	}

	pipe := &pipeline.Pipeline{
		Dispatcher: &pipeline.Dispatcher{
			Workers:   cfg.WorkerCount,
			NewWorker: factory,
			Log:       log,
		},
		Ranker: &rank.Ranker{Embedder: emb, BatchSize: cfg.BatchSize},
		TopK:   cfg.TopK,
		DocDir: cfg.PDFDir,
		Log:    log,
		Now:    time.Now,
	}
	return pipe, emb, nil
}
