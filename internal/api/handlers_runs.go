package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/collection"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type submitRunRequest struct {
	Collection string `json:"collection"`
}

func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	var req submitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	name, err := collectionName(req.Collection)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	dir := filepath.Join(s.cfg.CollectionsRoot, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		jsonError(w, fmt.Sprintf("collection %q not found", name), http.StatusNotFound)
		return
	}

	c, err := collection.Load(dir, s.cfg.InputFile)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, collection.ErrMetadataNotFound) {
			code = http.StatusNotFound
		}
		jsonError(w, fmt.Sprintf("collection %q: %v", name, err), code)
		return
	}
	if bad := c.UnsupportedDocuments(); len(bad) > 0 {
		jsonError(w, fmt.Sprintf("unsupported document types: %s", strings.Join(bad, ", ")), http.StatusUnprocessableEntity)
		return
	}

	run := pipeline.NewRun(name, dir)
	if err := s.orchestrator.Submit(run); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("run submitted", "run_id", run.ID, "collection", name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":   run.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/runs/%s", run.ID),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

// collectionName accepts a single path element naming a directory directly
// under the collections root.
func collectionName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("collection is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("collection must be a directory name, got %q", raw)
	}
	return name, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
