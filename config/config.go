// Package config loads server configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jandrana/vectordb/core"
)

// Config is the full configuration of the vectordb server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port the server listens on.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// StoreConfig configures the embedded store and its action log.
type StoreConfig struct {
	Path             string `yaml:"path"`
	Compress         bool   `yaml:"compress"`
	CompressionLevel int    `yaml:"compression_level"`
	// Durability is "sync" or "async".
	Durability       string `yaml:"durability"`
	ArchiveOnCompact bool   `yaml:"archive_on_compact"`
}

// EmbeddingConfig configures the external embedding provider. The API key is
// never read from YAML; it comes from the COHERE_API_KEY environment
// variable (a .env file is honored).
type EmbeddingConfig struct {
	// Provider is "cohere" or empty to run without embeddings.
	Provider          string `yaml:"provider"`
	Model             string `yaml:"model"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	MaxRetries        int    `yaml:"max_retries"`

	APIKey string `yaml:"-"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path:             "./data",
			CompressionLevel: 3,
			Durability:       "sync",
		},
		Embedding: EmbeddingConfig{
			Provider:   "cohere",
			MaxRetries: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration. path may be empty, which selects defaults.
// A .env file in the working directory is loaded if present; COHERE_API_KEY
// from the environment fills the embedding API key.
func Load(path string) (*Config, error) {
	// Missing .env is the common case outside development.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Embedding.APIKey = os.Getenv("COHERE_API_KEY")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Durability {
	case "sync", "async":
	default:
		return core.NewValidationError("store.durability", "must be sync or async")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return core.NewValidationError("logging.level", "must be debug, info, warn or error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return core.NewValidationError("logging.format", "must be text or json")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return core.NewValidationError("server.port", "must be between 1 and 65535")
	}
	return nil
}
