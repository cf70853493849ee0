package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthy(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
}

func embedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	healthy(mux)
	mux.HandleFunc("POST /embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Inputs []string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		vecs := make([][]float32, len(req.Inputs))
		for i := range vecs {
			vecs[i] = []float32{1, 0}
		}
		json.NewEncoder(w).Encode(vecs)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func classifierServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	healthy(mux)
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Rows [][]float64 `json:"rows"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		labels := make([]string, len(req.Rows))
		for i := range labels {
			labels[i] = "other"
		}
		json.NewEncoder(w).Encode(map[string]any{"labels": labels})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func closedURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func writeTextCollection(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "PDFs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PDFs", "guide.txt"), []byte("Pack light.\nBook early.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "challenge1b_input.json"), []byte(`{
		"documents": [{"filename": "guide.txt"}],
		"persona": {"role": "Travel Planner"},
		"job_to_be_done": {"task": "Plan a weekend"}
	}`), 0o644))
	return dir
}

func runAnalyzeArgs(t *testing.T, classifierURL, dir string) error {
	t.Helper()
	t.Setenv("CLASSIFIER_URL", classifierURL)
	t.Setenv("EMBED_PROVIDER", config.EmbedProviderHTTP)
	t.Setenv("EMBED_URL", embedServer(t).URL)
	t.Setenv("LOG_LEVEL", "error")
	rootCmd.SetArgs([]string{"analyze", "--collection", dir, "--isolation", config.IsolationGoroutine, "--workers", "1"})
	return rootCmd.ExecuteContext(context.Background())
}

func TestAnalyze_ClassifierDownAbortsBeforeWriting(t *testing.T) {
	dir := writeTextCollection(t)

	err := runAnalyzeArgs(t, closedURL(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heading classifier unavailable")

	_, statErr := os.Stat(filepath.Join(dir, "challenge1b_output.json"))
	assert.True(t, os.IsNotExist(statErr), "no artifact may be written when the classifier is down")
}

func TestAnalyze_WritesRankedOutput(t *testing.T) {
	dir := writeTextCollection(t)

	require.NoError(t, runAnalyzeArgs(t, classifierServer(t).URL, dir))

	data, err := os.ReadFile(filepath.Join(dir, "challenge1b_output.json"))
	require.NoError(t, err)
	var out struct {
		ExtractedSections []struct {
			Document       string `json:"document"`
			SectionTitle   string `json:"section_title"`
			ImportanceRank int    `json:"importance_rank"`
		} `json:"extracted_sections"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.ExtractedSections, 1)
	assert.Equal(t, "guide.txt", out.ExtractedSections[0].Document)
	assert.Equal(t, "Introduction", out.ExtractedSections[0].SectionTitle)
	assert.Equal(t, 1, out.ExtractedSections[0].ImportanceRank)
}

func TestCheckClassifier(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	assert.NoError(t, checkClassifier(ctx, config.Config{}, log), "heuristic classifier needs no probe")
	assert.NoError(t, checkClassifier(ctx, config.Config{ClassifierURL: classifierServer(t).URL}, log))

	err := checkClassifier(ctx, config.Config{ClassifierURL: closedURL()}, log)
	assert.ErrorContains(t, err, "heading classifier unavailable")
}
