// Package embed provides sentence-embedding backends for ranking.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docrank/internal/config"
)

// Embedder maps texts to vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// DefaultGeminiModel is used when EMBED_MODEL is unset for the gemini provider.
const DefaultGeminiModel = "text-embedding-004"

// New builds the configured embedder wrapped with latency recording.
func New(ctx context.Context, cfg config.Config, stats *Stats, log *slog.Logger) (*Instrumented, error) {
	var inner Embedder
	switch cfg.EmbedProvider {
	case config.EmbedProviderGemini:
		model := cfg.EmbedModel
		if model == "" {
			model = DefaultGeminiModel
		}
		g, err := NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, model)
		if err != nil {
			return nil, err
		}
		inner = g
	case config.EmbedProviderHTTP, "":
		inner = NewHTTPEmbedder(cfg.EmbedURL, cfg.ModelTimeout, log)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbedProvider)
	}
	return NewInstrumented(inner, stats), nil
}

// Instrumented records the latency and outcome of every Embed call.
type Instrumented struct {
	inner Embedder
	stats *Stats
}

func NewInstrumented(inner Embedder, stats *Stats) *Instrumented {
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	return &Instrumented{inner: inner, stats: stats}
}

func (e *Instrumented) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.inner.Embed(ctx, texts)
	if err != nil {
		e.stats.RecordFailure()
		return nil, err
	}
	e.stats.Record(time.Since(start).Milliseconds(), len(texts))
	return vecs, nil
}

// Check probes the backend when it supports health checks.
func (e *Instrumented) Check(ctx context.Context) error {
	if c, ok := e.inner.(interface{ Check(context.Context) error }); ok {
		return c.Check(ctx)
	}
	return nil
}

// Stats returns the latency window shared by this embedder.
func (e *Instrumented) Stats() *Stats {
	return e.stats
}

func (e *Instrumented) Close() error {
	return e.inner.Close()
}
