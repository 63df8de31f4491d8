// Package config loads runtime configuration for the indexing service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/coderadar/internal/logger"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Repos     ReposConfig     `mapstructure:"repos"`
	Chunk     ChunkConfig     `mapstructure:"chunk"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	VectorDB  VectorDBConfig  `mapstructure:"vectordb"`
	Database  DBConfig        `mapstructure:"database"`
	Logging   logger.Config   `mapstructure:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port       string `mapstructure:"port"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

// ReposConfig locates the repositories the gateway may read.
type ReposConfig struct {
	RootDir       string `mapstructure:"root_dir"`
	DefaultBranch string `mapstructure:"default_branch"`
	StateFile     string `mapstructure:"state_file"`
}

// ChunkConfig tunes chunking behavior.
type ChunkConfig struct {
	LineWindow       int `mapstructure:"line_window"`
	TokenBudget      int `mapstructure:"token_budget"`
	CharsPerToken    int `mapstructure:"chars_per_token"`
	MinCharsPerChunk int `mapstructure:"min_chars_per_chunk"`
}

// MaxChars returns the effective per-chunk character cap, floored so an
// empty chunk can never be produced.
func (c ChunkConfig) MaxChars() int {
	budget := c.TokenBudget * c.CharsPerToken
	if budget < c.MinCharsPerChunk {
		return c.MinCharsPerChunk
	}
	return budget
}

// EmbeddingConfig points at the embedding HTTP service.
type EmbeddingConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	BatchSize int           `mapstructure:"batch_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// VectorDBConfig points at the Qdrant deployment.
type VectorDBConfig struct {
	Host        string        `mapstructure:"host"`
	APIKey      string        `mapstructure:"api_key"`
	UseTLS      bool          `mapstructure:"use_tls"`
	UpsertBatch int           `mapstructure:"upsert_batch_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Dimension   int           `mapstructure:"dimension"`
}

// DBConfig configures the Registry Bridge's Postgres connection.
type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GetDSN builds the Postgres connection string.
func (db *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// LoadConfig loads configuration with precedence: env vars > config file > defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.coderadar")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_workers", 5)

	v.SetDefault("repos.root_dir", "./data/repos")
	v.SetDefault("repos.default_branch", "main")
	v.SetDefault("repos.state_file", "./data/state.json")

	v.SetDefault("chunk.line_window", 120)
	v.SetDefault("chunk.token_budget", 512)
	v.SetDefault("chunk.chars_per_token", 4)
	v.SetDefault("chunk.min_chars_per_chunk", 200)

	v.SetDefault("embedding.base_url", "http://127.0.0.1:8000")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.timeout", "30s")

	v.SetDefault("vectordb.host", "localhost:6334")
	v.SetDefault("vectordb.use_tls", false)
	v.SetDefault("vectordb.upsert_batch_size", 100)
	v.SetDefault("vectordb.timeout", "10s")
	v.SetDefault("vectordb.dimension", 768)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "coderadar")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// ValidateForServer checks invariants required before serving HTTP traffic.
func (c *Config) ValidateForServer() error {
	if strings.TrimSpace(c.Repos.RootDir) == "" {
		return errors.New("repos.root_dir is required")
	}
	if c.Embedding.BatchSize <= 0 {
		return errors.New("embedding.batch_size must be positive")
	}
	if c.VectorDB.UpsertBatch <= 0 {
		return errors.New("vectordb.upsert_batch_size must be positive")
	}
	return nil
}

// ValidateForCLI checks invariants required before running a CLI command.
func (c *Config) ValidateForCLI() error {
	if strings.TrimSpace(c.Repos.RootDir) == "" {
		return errors.New("repos.root_dir is required")
	}
	return nil
}
