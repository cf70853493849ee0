package rank

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps each text to a fixed vector and records batch sizes.
type fakeEmbedder struct {
	vectors map[string][]float32
	batches []int
	short   bool
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, len(texts))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out = append(out, v)
	}
	if f.short && len(texts) > 1 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func identity(s string) string { return s }

func newFake() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"query": {1, 0, 0},
		"best":  {1, 0, 0},
		"good":  {1, 1, 0},
		"tie-a": {0, 1, 0},
		"tie-b": {0, 1, 0},
		"zero":  {0, 0, 0},
	}}
}

func TestRank_SortedContiguousAndStable(t *testing.T) {
	emb := newFake()
	r := &Ranker{Embedder: emb, BatchSize: 2}
	items := []string{"tie-a", "good", "zero", "best", "tie-b"}
	orig := append([]string(nil), items...)

	out, err := Rank(context.Background(), r, "query", items, identity)
	require.NoError(t, err)
	require.Len(t, out, len(items))

	got := make([]string, len(out))
	for i, s := range out {
		got[i] = s.Item
		assert.Equal(t, i+1, s.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, out[i-1].Score, s.Score)
		}
	}
	// Equal scores keep input order.
	assert.Equal(t, []string{"best", "good", "tie-a", "zero", "tie-b"}, got)
	assert.Equal(t, orig, items, "input must not be mutated")

	assert.InDelta(t, 1.0, out[0].Score, 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, out[1].Score, 1e-9)
	assert.Equal(t, 0.0, out[3].Score)

	// One query call, then batches of at most 2.
	assert.Equal(t, []int{1, 2, 2, 1}, emb.batches)
}

func TestRank_EmptyMakesNoCalls(t *testing.T) {
	emb := newFake()
	r := &Ranker{Embedder: emb, BatchSize: 4}
	out, err := Rank(context.Background(), r, "query", []string{}, identity)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Empty(t, emb.batches)
}

func TestRank_BatchSizeDoesNotChangeResults(t *testing.T) {
	items := []string{"good", "tie-b", "best", "zero", "tie-a", "unknown"}
	var results [][]Scored[string]
	for _, size := range []int{1, 3, 16} {
		r := &Ranker{Embedder: newFake(), BatchSize: size}
		out, err := Rank(context.Background(), r, "query", items, identity)
		require.NoError(t, err)
		results = append(results, out)
	}
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[0], results[2])
}

func TestRank_SelfSimilarityIsOne(t *testing.T) {
	r := &Ranker{Embedder: newFake()}
	out, err := Rank(context.Background(), r, "good", []string{"good"}, identity)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[0].Score, 1e-9)
	assert.Equal(t, 1, out[0].Rank)
}

func TestRank_CountMismatch(t *testing.T) {
	emb := newFake()
	emb.short = true
	r := &Ranker{Embedder: emb, BatchSize: 4}
	_, err := Rank(context.Background(), r, "query", []string{"a", "b", "c"}, identity)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmbeddingCount))
}

func TestRank_EmbedderErrorPropagates(t *testing.T) {
	emb := newFake()
	emb.err = errors.New("model down")
	r := &Ranker{Embedder: emb}
	_, err := Rank(context.Background(), r, "query", []string{"a"}, identity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model down")
}

func TestRankWithQuery_ReusesVector(t *testing.T) {
	emb := newFake()
	r := &Ranker{Embedder: emb, BatchSize: 16}
	qvec, err := r.EmbedQuery(context.Background(), "query")
	require.NoError(t, err)

	type para struct{ text string }
	items := []para{{"good"}, {"best"}}
	textOf := func(p para) string { return strings.TrimSpace(p.text) }

	a, err := RankWithQuery(context.Background(), r, qvec, items, textOf)
	require.NoError(t, err)
	b, err := Rank(context.Background(), &Ranker{Embedder: newFake(), BatchSize: 16}, "query", items, textOf)
	require.NoError(t, err)
	assert.Equal(t, b, a)
	assert.Equal(t, "best", a[0].Item.text)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, -1.0, Cosine([]float32{1, 2}, []float32{-1, -2}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}
