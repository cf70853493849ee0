// Package rank orders items by cosine similarity of their embeddings to a
// query embedding.
package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEmbeddingCount is returned when an embedder yields a different number
// of vectors than texts it was given.
var ErrEmbeddingCount = errors.New("embedding count mismatch")

// DefaultBatchSize is the number of texts sent per embedding call.
const DefaultBatchSize = 16

// Embedder maps texts to fixed-length vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Scored is an item with its similarity score and 1-based rank.
type Scored[T any] struct {
	Item  T
	Score float64
	Rank  int
}

// Ranker scores texts against a query using Embedder.
type Ranker struct {
	Embedder  Embedder
	BatchSize int
}

// EmbedQuery returns the query vector so callers can reuse it across
// several ranking passes.
func (r *Ranker) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := r.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors for 1 text: %w", len(vecs), ErrEmbeddingCount)
	}
	return vecs[0], nil
}

// Scores embeds texts in sequential batches and returns the cosine
// similarity of each to queryVec, in input order.
func (r *Ranker) Scores(ctx context.Context, queryVec []float32, texts []string) ([]float64, error) {
	size := r.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	scores := make([]float64, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vecs, err := r.Embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors: %w", start, end, len(vecs), ErrEmbeddingCount)
		}
		for _, v := range vecs {
			scores = append(scores, Cosine(queryVec, v))
		}
	}
	return scores, nil
}

// Rank embeds query and items and returns the items ordered by descending
// similarity. Ties keep input order. items is not modified.
func Rank[T any](ctx context.Context, r *Ranker, query string, items []T, textOf func(T) string) ([]Scored[T], error) {
	if len(items) == 0 {
		return []Scored[T]{}, nil
	}
	qvec, err := r.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return RankWithQuery(ctx, r, qvec, items, textOf)
}

// RankWithQuery is Rank with a precomputed query vector.
func RankWithQuery[T any](ctx context.Context, r *Ranker, queryVec []float32, items []T, textOf func(T) string) ([]Scored[T], error) {
	if len(items) == 0 {
		return []Scored[T]{}, nil
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = textOf(it)
	}
	scores, err := r.Scores(ctx, queryVec, texts)
	if err != nil {
		return nil, err
	}

	out := make([]Scored[T], len(items))
	for i, it := range items {
		out[i] = Scored[T]{Item: it, Score: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b computed in float64.
// A zero-norm vector scores 0. Extra trailing dimensions are ignored.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
