// ABOUTME: Centralized configuration for the knowledge-store server
// ABOUTME: Loads from KNOWLEDGE_STORE_* environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Embedding providers selectable via KNOWLEDGE_STORE_EMBEDDING_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds all configuration for the knowledge store
type Config struct {
	// Server settings
	Host string
	Port int

	// Store settings
	DataDir        string
	CollectionName string

	// Embedding settings
	EmbeddingProvider string
	EmbeddingModel    string
	OpenAIKey         string
	OllamaURL         string

	// Search defaults
	DefaultSearchLimit         int
	DefaultSimilarityThreshold float64

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		Host:                       getEnv("KNOWLEDGE_STORE_HOST", "127.0.0.1"),
		Port:                       getEnvInt("KNOWLEDGE_STORE_PORT", 4004),
		DataDir:                    getEnv("KNOWLEDGE_STORE_DATA_DIR", filepath.Join("data", "knowledge")),
		CollectionName:             getEnv("KNOWLEDGE_STORE_COLLECTION", "knowledge_patterns"),
		EmbeddingProvider:          getEnv("KNOWLEDGE_STORE_EMBEDDING_PROVIDER", ProviderOpenAI),
		EmbeddingModel:             getEnv("KNOWLEDGE_STORE_EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIKey:                  os.Getenv("OPENAI_API_KEY"),
		OllamaURL:                  getEnv("KNOWLEDGE_STORE_OLLAMA_URL", "http://localhost:11434/api/embed"),
		DefaultSearchLimit:         getEnvInt("KNOWLEDGE_STORE_SEARCH_LIMIT", 10),
		DefaultSimilarityThreshold: getEnvFloat("KNOWLEDGE_STORE_SIMILARITY_THRESHOLD", 0.85),
		LogLevel:                   getEnv("KNOWLEDGE_STORE_LOG_LEVEL", "info"),
		LogFormat:                  getEnv("KNOWLEDGE_STORE_LOG_FORMAT", "console"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("KNOWLEDGE_STORE_PORT must be 1-65535, got %d", c.Port)
	}
	if c.DefaultSearchLimit < 1 {
		return fmt.Errorf("KNOWLEDGE_STORE_SEARCH_LIMIT must be positive, got %d", c.DefaultSearchLimit)
	}
	if c.DefaultSimilarityThreshold < 0 || c.DefaultSimilarityThreshold > 1 {
		return fmt.Errorf("KNOWLEDGE_STORE_SIMILARITY_THRESHOLD must be 0-1, got %f", c.DefaultSimilarityThreshold)
	}
	if c.EmbeddingProvider != ProviderOpenAI && c.EmbeddingProvider != ProviderOllama {
		return fmt.Errorf("KNOWLEDGE_STORE_EMBEDDING_PROVIDER must be %q or %q, got %q",
			ProviderOpenAI, ProviderOllama, c.EmbeddingProvider)
	}
	return nil
}

// EnsureDirs creates the persistent storage directory if missing
func (c *Config) EnsureDirs() error {
	return os.MkdirAll(c.DataDir, 0o755)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
