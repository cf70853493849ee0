package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docrank/internal/modelclient"
)

// HTTPEmbedder talks to a text-embeddings-inference style server.
type HTTPEmbedder struct {
	client *modelclient.Client
}

func NewHTTPEmbedder(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPEmbedder {
	return &HTTPEmbedder{client: modelclient.New(baseURL, timeout, log)}
}

type embedRequest struct {
	Inputs    []string `json:"inputs"`
	Normalize bool     `json:"normalize"`
	Truncate  bool     `json:"truncate"`
}

func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var vecs [][]float32
	req := embedRequest{Inputs: texts, Normalize: true, Truncate: true}
	if err := e.client.PostJSON(ctx, "/embed", req, &vecs); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vecs, nil
}

// Check verifies the embedding server is reachable.
func (e *HTTPEmbedder) Check(ctx context.Context) error {
	return e.client.Check(ctx)
}

func (e *HTTPEmbedder) Close() error {
	e.client.Close()
	return nil
}
