package models

import "time"

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	Store      StoreConfig      `yaml:"store"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Storage    StorageConfig    `yaml:"storage"`
	AI         AIConfig         `yaml:"ai"`
	Auth       AuthConfig       `yaml:"auth"`
	Database   DatabaseConfig   `yaml:"database"`
	Upload     UploadConfig     `yaml:"upload"`
	Log        LogConfig        `yaml:"log"`
}

// Store modes
const (
	StoreHistory = "history" // append-only
	StoreLatest  = "latest"  // single slot
)

// StoreConfig selects how uploads are retained
type StoreConfig struct {
	Mode string `yaml:"mode"`
}

// ExtractionConfig selects the field extraction strategy
type ExtractionConfig struct {
	Mode      string          `yaml:"mode"` // "pattern" or "synthetic"
	Synthetic SyntheticConfig `yaml:"synthetic"`
}

// SyntheticConfig bounds the demo generator
type SyntheticConfig struct {
	MinTotal   float64 `yaml:"min_total"`
	MaxTotal   float64 `yaml:"max_total"`
	MaxDueDays int     `yaml:"max_due_days"`
	TaxRate    float64 `yaml:"tax_rate"`
}

// StorageConfig selects where raw documents are kept
type StorageConfig struct {
	Backend string      `yaml:"backend"` // "local" or "minio"
	Dir     string      `yaml:"dir"`
	MinIO   MinIOConfig `yaml:"minio"`
}

// MinIOConfig for S3 compatible storage
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AIConfig represents AI provider configuration
type AIConfig struct {
	// OpenAI
	OpenAI OpenAIConfig `yaml:"openai"`

	// Gemini
	Gemini GeminiConfig `yaml:"gemini"`

	// Ollama (local)
	Ollama OllamaConfig `yaml:"ollama"`

	// Default provider
	DefaultProvider string `yaml:"default_provider"` // "openai", "gemini", "ollama"

	// Upper bound for one model call
	Timeout time.Duration `yaml:"timeout"`
}

// OpenAIConfig for OpenAI compatible endpoints
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OllamaConfig for local Ollama
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // Default: "http://localhost:11434"
	Model   string `yaml:"model"`    // e.g., "mistral:latest"
}

// AuthConfig enables bearer token auth when JWTSecret is set
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Users     []UserConfig  `yaml:"users"`
}

// UserConfig is a static login. PasswordHash is a bcrypt hash.
type UserConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// DatabaseConfig for the optional upload journal
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// UploadConfig limits incoming documents
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}
