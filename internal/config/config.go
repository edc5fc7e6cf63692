// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smbops/invoice-copilot/internal/models"
)

// Defaults returns a configuration that runs with no file and no environment.
func Defaults() *models.Config {
	return &models.Config{
		Port:  5000,
		Host:  "0.0.0.0",
		Store: models.StoreConfig{Mode: models.StoreHistory},
		Extraction: models.ExtractionConfig{
			Mode: models.MethodPattern,
			Synthetic: models.SyntheticConfig{
				MinTotal:   50,
				MaxTotal:   2500,
				MaxDueDays: 14,
				TaxRate:    0.10,
			},
		},
		Storage: models.StorageConfig{
			Backend: "local",
			Dir:     "uploads",
			MinIO: models.MinIOConfig{
				Endpoint: "localhost:9000",
				Bucket:   "invoices",
				Prefix:   "uploads",
			},
		},
		AI: models.AIConfig{
			DefaultProvider: "ollama",
			Timeout:         10 * time.Second,
			Ollama: models.OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "mistral:latest",
			},
			OpenAI: models.OpenAIConfig{Model: "gpt-4o-mini"},
			Gemini: models.GeminiConfig{Model: "gemini-1.5-flash"},
		},
		Auth:   models.AuthConfig{TokenTTL: 24 * time.Hour},
		Upload: models.UploadConfig{MaxBytes: 10 * 1024 * 1024},
		Log:    models.LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, applies environment overrides and validates.
// A missing file is not an error.
func Load(path string) (*models.Config, error) {
	config := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := ApplyEnv(config, os.Getenv); err != nil {
		return nil, err
	}
	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides config with any variables getenv reports as set.
func ApplyEnv(config *models.Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		config.Port = p
	}
	str("HOST", &config.Host)
	str("STORE_MODE", &config.Store.Mode)
	str("EXTRACTION_MODE", &config.Extraction.Mode)

	str("AI_PROVIDER", &config.AI.DefaultProvider)
	if v := getenv("AI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AI_TIMEOUT %q: %w", v, err)
		}
		config.AI.Timeout = d
	}
	str("OLLAMA_BASE_URL", &config.AI.Ollama.BaseURL)
	str("OLLAMA_MODEL", &config.AI.Ollama.Model)
	str("OPENAI_API_KEY", &config.AI.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &config.AI.OpenAI.BaseURL)
	str("OPENAI_MODEL", &config.AI.OpenAI.Model)
	str("GEMINI_API_KEY", &config.AI.Gemini.APIKey)
	str("GEMINI_MODEL", &config.AI.Gemini.Model)

	str("STORAGE_BACKEND", &config.Storage.Backend)
	str("UPLOAD_DIR", &config.Storage.Dir)
	str("MINIO_ENDPOINT", &config.Storage.MinIO.Endpoint)
	str("MINIO_ACCESS_KEY", &config.Storage.MinIO.AccessKey)
	str("MINIO_SECRET_KEY", &config.Storage.MinIO.SecretKey)
	str("MINIO_BUCKET", &config.Storage.MinIO.Bucket)
	if v := getenv("MINIO_USE_SSL"); v != "" {
		config.Storage.MinIO.UseSSL = v == "true" || v == "1"
	}

	str("DATABASE_URL", &config.Database.URL)
	str("JWT_SECRET", &config.Auth.JWTSecret)
	str("LOG_LEVEL", &config.Log.Level)
	str("LOG_FORMAT", &config.Log.Format)
	return nil
}

// Validate rejects unknown modes and inconsistent bounds.
func Validate(config *models.Config) error {
	switch config.Store.Mode {
	case models.StoreHistory, models.StoreLatest:
	default:
		return fmt.Errorf("unsupported store mode: %q", config.Store.Mode)
	}

	switch config.Extraction.Mode {
	case models.MethodPattern, models.MethodSynthetic:
	default:
		return fmt.Errorf("unsupported extraction mode: %q", config.Extraction.Mode)
	}

	syn := config.Extraction.Synthetic
	if syn.MinTotal < 0 || syn.MaxTotal < syn.MinTotal {
		return fmt.Errorf("synthetic totals out of range: min=%v max=%v", syn.MinTotal, syn.MaxTotal)
	}
	if syn.MaxDueDays < 1 {
		return fmt.Errorf("synthetic max_due_days must be at least 1")
	}
	if syn.TaxRate < 0 {
		return fmt.Errorf("synthetic tax_rate must not be negative")
	}

	switch config.AI.DefaultProvider {
	case "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported AI provider: %s", config.AI.DefaultProvider)
	}
	if config.AI.Timeout <= 0 {
		return fmt.Errorf("ai timeout must be positive")
	}

	switch config.Storage.Backend {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported storage backend: %q", config.Storage.Backend)
	}

	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}
	return nil
}

// NewLogger builds the process logger from the log section.
func NewLogger(lc models.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
