package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/modelclient"
)

// HTTPClassifier sends feature rows to a model server's /predict endpoint.
type HTTPClassifier struct {
	client *modelclient.Client
}

func NewHTTPClassifier(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPClassifier {
	return &HTTPClassifier{client: modelclient.New(baseURL, timeout, log)}
}

type predictRequest struct {
	FeatureNames []string    `json:"feature_names"`
	Rows         [][]float64 `json:"rows"`
}

type predictResponse struct {
	Labels []string `json:"labels"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, lines []document.Line) ([]string, error) {
	if len(lines) == 0 {
		return []string{}, nil
	}

	req := predictRequest{
		FeatureNames: document.FeatureNames,
		Rows:         make([][]float64, len(lines)),
	}
	for i, l := range lines {
		req.Rows[i] = l.Features.Vector()
	}

	var resp predictResponse
	if err := c.client.PostJSON(ctx, "/predict", req, &resp); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(resp.Labels) != len(lines) {
		return nil, fmt.Errorf("predict returned %d labels for %d rows", len(resp.Labels), len(lines))
	}
	return resp.Labels, nil
}

// Check verifies the model server is reachable.
func (c *HTTPClassifier) Check(ctx context.Context) error {
	return c.client.Check(ctx)
}

// BaseURL returns the model server root.
func (c *HTTPClassifier) BaseURL() string {
	return c.client.BaseURL()
}

// Close releases idle connections.
func (c *HTTPClassifier) Close() error {
	c.client.Close()
	return nil
}
