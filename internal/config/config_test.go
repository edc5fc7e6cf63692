package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smbops/invoice-copilot/internal/models"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Mode != models.StoreHistory || cfg.Extraction.Mode != models.MethodPattern {
		t.Fatalf("unexpected modes: %+v %+v", cfg.Store, cfg.Extraction)
	}
	if cfg.AI.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.AI.Timeout)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
port: 8081
store:
  mode: latest
extraction:
  mode: synthetic
ai:
  timeout: 3s
  ollama:
    model: llama3
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8081 || cfg.Store.Mode != models.StoreLatest || cfg.Extraction.Mode != models.MethodSynthetic {
		t.Fatalf("file not applied: %+v", cfg)
	}
	if cfg.AI.Timeout != 3*time.Second || cfg.AI.Ollama.Model != "llama3" {
		t.Fatalf("ai section not applied: %+v", cfg.AI)
	}
	// untouched nested defaults survive
	if cfg.AI.Ollama.BaseURL != "http://localhost:11434" {
		t.Fatalf("base url default lost: %q", cfg.AI.Ollama.BaseURL)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := ApplyEnv(cfg, envMap(map[string]string{
		"PORT":          "9000",
		"AI_PROVIDER":   "openai",
		"AI_TIMEOUT":    "250ms",
		"MINIO_USE_SSL": "true",
		"STORE_MODE":    "latest",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Port != 9000 || cfg.AI.DefaultProvider != "openai" || cfg.AI.Timeout != 250*time.Millisecond {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if !cfg.Storage.MinIO.UseSSL || cfg.Store.Mode != models.StoreLatest {
		t.Fatalf("env not applied: %+v", cfg)
	}

	if err := ApplyEnv(Defaults(), envMap(map[string]string{"PORT": "abc"})); err == nil {
		t.Fatalf("expected error for bad PORT")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*models.Config){
		"store mode":    func(c *models.Config) { c.Store.Mode = "ring" },
		"extraction":    func(c *models.Config) { c.Extraction.Mode = "ml" },
		"provider":      func(c *models.Config) { c.AI.DefaultProvider = "claude" },
		"bounds":        func(c *models.Config) { c.Extraction.Synthetic.MaxTotal = 1 },
		"backend":       func(c *models.Config) { c.Storage.Backend = "s3" },
		"zero timeout":  func(c *models.Config) { c.AI.Timeout = 0 },
		"due window":    func(c *models.Config) { c.Extraction.Synthetic.MaxDueDays = 0 },
		"negative port": func(c *models.Config) { c.Port = -1 },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(cfg)
		if err := Validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}
