package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Isolation modes for per-document processing.
const (
	IsolationProcess   = "process"
	IsolationGoroutine = "goroutine"
)

// Embedding providers.
const (
	EmbedProviderHTTP   = "http"
	EmbedProviderGemini = "gemini"
)

type Config struct {
	// Pipeline
	WorkerCount          int
	Isolation            string
	BatchSize            int
	TopK                 int
	MinFontSize          float64
	DefaultTitle         string
	PDFFallbackPdftotext bool

	// Collection layout
	InputFile  string
	OutputFile string
	PDFDir     string

	// Model servers
	ClassifierURL string
	EmbedProvider string
	EmbedURL      string
	EmbedModel    string
	GeminiAPIKey  string
	ModelTimeout  time.Duration

	// HTTP server
	Port            string
	DocrankAPIKey   string
	CollectionsRoot string
	MaxQueueSize    int
	RunTTL          time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() Config {
	cfg := Config{
		WorkerCount:          envInt("WORKER_COUNT", runtime.NumCPU()),
		Isolation:            envOr("ISOLATION", IsolationProcess),
		BatchSize:            envInt("BATCH_SIZE", 16),
		TopK:                 envInt("TOP_K", 5),
		MinFontSize:          envFloat("MIN_FONT_SIZE", 6),
		DefaultTitle:         envOr("DEFAULT_TITLE", "Introduction"),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		InputFile:  envOr("INPUT_FILE", "challenge1b_input.json"),
		OutputFile: envOr("OUTPUT_FILE", "challenge1b_output.json"),
		PDFDir:     envOr("PDF_DIR", "PDFs"),

		ClassifierURL: os.Getenv("CLASSIFIER_URL"),
		EmbedProvider: envOr("EMBED_PROVIDER", EmbedProviderHTTP),
		EmbedURL:      envOr("EMBED_URL", "http://localhost:8081"),
		EmbedModel:    os.Getenv("EMBED_MODEL"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		ModelTimeout:  envDuration("MODEL_TIMEOUT", 0),

		Port:            envOr("PORT", "8090"),
		DocrankAPIKey:   os.Getenv("DOCRANK_API_KEY"),
		CollectionsRoot: envOr("COLLECTIONS_ROOT", "."),
		MaxQueueSize:    envInt("MAX_QUEUE_SIZE", 100),
		RunTTL:          envDuration("RUN_TTL", 1*time.Hour),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.MinFontSize < 0 {
		cfg.MinFontSize = 6
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}
	if cfg.ModelTimeout < 0 {
		cfg.ModelTimeout = 0
	}

	return cfg
}

// Validate checks settings needed by every command.
func (c Config) Validate() error {
	switch c.Isolation {
	case IsolationProcess, IsolationGoroutine:
	default:
		return fmt.Errorf("ISOLATION must be %q or %q, got %q", IsolationProcess, IsolationGoroutine, c.Isolation)
	}
	switch c.EmbedProvider {
	case EmbedProviderHTTP:
		if c.EmbedURL == "" {
			return fmt.Errorf("EMBED_URL is required for the http embedding provider")
		}
	case EmbedProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini embedding provider")
		}
	default:
		return fmt.Errorf("EMBED_PROVIDER must be %q or %q, got %q", EmbedProviderHTTP, EmbedProviderGemini, c.EmbedProvider)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	return nil
}

// ValidateServe adds the checks only the HTTP server needs.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DocrankAPIKey == "" {
		return fmt.Errorf("DOCRANK_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
