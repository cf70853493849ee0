package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teiServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/embed":
			var req embedRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Normalize || !req.Truncate {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			out := make([][]float32, len(req.Inputs))
			for i, in := range req.Inputs {
				out[i] = []float32{float32(len(in)), 1}
			}
			json.NewEncoder(w).Encode(out)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestHTTPEmbedder(t *testing.T) {
	srv := teiServer(t)
	defer srv.Close()

	e := NewHTTPEmbedder(srv.URL, time.Second, nil)
	defer e.Close()

	require.NoError(t, e.Check(context.Background()))

	vecs, err := e.Embed(context.Background(), []string{"a", "abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {3, 1}}, vecs)

	empty, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHTTPEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(srv.URL, time.Second, nil)
	e.client.Backoff = func(int) time.Duration { return time.Millisecond }

	_, err := e.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

type stubEmbedder struct {
	err    error
	closed bool
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return make([][]float32, len(texts)), nil
}

func (s *stubEmbedder) Close() error {
	s.closed = true
	return nil
}

func TestInstrumentedRecords(t *testing.T) {
	stub := &stubEmbedder{}
	e := NewInstrumented(stub, nil)

	_, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	stub.err = errors.New("boom")
	_, err = e.Embed(context.Background(), []string{"d"})
	require.Error(t, err)

	snap := e.Stats().Snapshot()
	assert.Equal(t, 1, snap.Calls)
	assert.Equal(t, 3, snap.Texts)
	assert.Equal(t, 1, snap.Failures)

	// Backends without a health probe are always healthy.
	assert.NoError(t, e.Check(context.Background()))

	require.NoError(t, e.Close())
	assert.True(t, stub.closed)
}

func TestNew(t *testing.T) {
	srv := teiServer(t)
	defer srv.Close()

	e, err := New(context.Background(), config.Config{EmbedProvider: config.EmbedProviderHTTP, EmbedURL: srv.URL}, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, e.Check(context.Background()))
	_, ok := e.inner.(*HTTPEmbedder)
	assert.True(t, ok)

	_, err = New(context.Background(), config.Config{EmbedProvider: config.EmbedProviderGemini}, nil, nil)
	assert.Error(t, err, "gemini without an API key must fail")

	_, err = New(context.Background(), config.Config{EmbedProvider: "word2vec"}, nil, nil)
	assert.Error(t, err)
}

func TestGeminiEmbedder_EmptyInput(t *testing.T) {
	vecs, err := (&GeminiEmbedder{}).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.NoError(t, (&GeminiEmbedder{}).Close())
}

func TestInBatches_SplitsAtGeminiLimit(t *testing.T) {
	texts := make([]string, 2*GeminiMaxBatch+5)
	for i := range texts {
		texts[i] = string(rune('a' + i%26))
	}

	var sizes []int
	vecs, err := inBatches(context.Background(), texts, GeminiMaxBatch, func(_ context.Context, batch []string) ([][]float32, error) {
		sizes = append(sizes, len(batch))
		out := make([][]float32, len(batch))
		for i, s := range batch {
			out[i] = []float32{float32(s[0])}
		}
		return out, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{GeminiMaxBatch, GeminiMaxBatch, 5}, sizes)
	require.Len(t, vecs, len(texts))
	for i, v := range vecs {
		assert.Equal(t, float32(texts[i][0]), v[0], "vector %d out of order", i)
	}
}

func TestInBatches_CountMismatch(t *testing.T) {
	_, err := inBatches(context.Background(), []string{"a", "b"}, GeminiMaxBatch, func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	})
	assert.Error(t, err)
}
