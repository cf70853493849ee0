package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/embed"
)

func (s *Server) handleEmbedStats(w http.ResponseWriter, r *http.Request) {
	if s.embedStats == nil {
		jsonError(w, "embedding stats unavailable", http.StatusServiceUnavailable)
		return
	}

	provider := s.cfg.EmbedProvider
	if provider == "" {
		provider = config.EmbedProviderHTTP
	}
	model := s.cfg.EmbedModel
	if model == "" && provider == config.EmbedProviderGemini {
		model = embed.DefaultGeminiModel
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"provider": provider,
		"model":    model,
		"stats":    s.embedStats.Snapshot(),
	})
}
