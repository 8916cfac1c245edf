package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chat service.
type Config struct {
	Sources   []string        `yaml:"sources"`
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds indexing configuration. Sizes are in runes.
type IndexConfig struct {
	Path         string `yaml:"path"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "hash"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// ChatConfig holds language model configuration for condensation and answering.
type ChatConfig struct {
	Provider     string  `yaml:"provider"` // "openai"
	Model        string  `yaml:"model"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	BaseURL      string  `yaml:"base_url"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	Organization string  `yaml:"organization"`
}

// FetchConfig controls how source pages are downloaded.
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	Concurrency       int           `yaml:"concurrency"`
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultSources are the pages describing Promtior.
var DefaultSources = []string{
	"https://www.promtior.ai",
	"https://www.promtior.ai/service",
	"https://cie.ort.edu.uy/emprendimientos/promptior",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sources: append([]string(nil), DefaultSources...),
		Index: IndexConfig{
			Path:         filepath.Join("vectorstore", "index.db"),
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			CacheSize: 128,
			CacheTTL:  10 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Chat: ChatConfig{
			Provider:     "openai",
			Model:        "gpt-3.5-turbo",
			APIKeyEnv:    "OPENAI_API_KEY",
			Temperature:  0,
			Organization: "Promtior",
		},
		Fetch: FetchConfig{
			Timeout:           30 * time.Second,
			Concurrency:       4,
			UserAgent:         "ragchat/1.0 (+ingest)",
			RequestsPerSecond: 2,
		},
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadEnv reads a .env file into the process environment. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides configuration values from environment variables.
func (c *Config) ApplyEnv() {
	c.Chat.Model = getEnv("CHAT_MODEL", c.Chat.Model)
	c.Embedding.Model = getEnv("EMBEDDING_MODEL", c.Embedding.Model)
	if dir := os.Getenv("VECTORSTORE_PATH"); dir != "" {
		// Accept either the index file itself or the directory holding it.
		if filepath.Ext(dir) == ".db" {
			c.Index.Path = dir
		} else {
			c.Index.Path = filepath.Join(dir, "index.db")
		}
	}
	c.Server.Addr = getEnv("RAG_ADDR", c.Server.Addr)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Retrieve.TopK = getEnvAsInt("RAG_TOP_K", c.Retrieve.TopK)
}

// Validate reports configuration that cannot produce a working pipeline.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("config: at least one source is required")
	}
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("config: index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("config: index.chunk_overlap must be in [0, %d), got %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("config: retrieve.top_k must be at least 1, got %d", c.Retrieve.TopK)
	}
	if c.Index.Path == "" {
		return errors.New("config: index.path is required")
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// APIKey returns the value of the environment variable named by env.
func APIKey(env string) string {
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
