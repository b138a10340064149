// Package config loads the engine configuration from a JSON or YAML file.
// Missing files get a generated default; API keys may reference ${ENV_VAR}
// placeholders.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level engine configuration.
type Config struct {
	Port    int    `json:"port" yaml:"port"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	AI        AIConfig        `json:"ai" yaml:"ai"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Vector    VectorConfig    `json:"vector" yaml:"vector"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
}

// AIConfig selects the answer-generation provider.
type AIConfig struct {
	Provider string `json:"provider" yaml:"provider"` // "ollama" (default), "openai"
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // supports ${ENV_VAR}
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider string `json:"provider" yaml:"provider"` // "ollama" (default), "openai"
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // supports ${ENV_VAR}
}

// VectorConfig tunes chunking and retrieval.
type VectorConfig struct {
	ChunkSize    int `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`       // default 1200 characters
	ChunkOverlap int `json:"chunk_overlap,omitempty" yaml:"chunk_overlap,omitempty"` // default 200 characters
	TopK         int `json:"top_k,omitempty" yaml:"top_k,omitempty"`                 // default 5
	HistoryTurns int `json:"history_turns,omitempty" yaml:"history_turns,omitempty"` // default 8
}

// SchedulerConfig controls periodic re-training of URL sources.
type SchedulerConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	RefreshSpec string `json:"refresh_spec,omitempty" yaml:"refresh_spec,omitempty"` // cron spec, default "@daily"
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Port:    8080,
		DataDir: "data",
		AI: AIConfig{
			Provider: "ollama",
			Model:    "llama3.2:3b",
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "llama3.2:3b",
		},
		Vector: VectorConfig{
			ChunkSize:    1200,
			ChunkOverlap: 200,
			TopK:         5,
			HistoryTurns: 8,
		},
		Scheduler: SchedulerConfig{
			Enabled:     false,
			RefreshSpec: "@daily",
		},
	}
}

// Load reads the configuration at path, creating a default file when none
// exists. YAML is used when the filename ends in .yaml or .yml, JSON
// otherwise.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		fmt.Printf("Created default configuration at %s\n", path)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnvVars()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to path in the format matching its
// extension.
func (c *Config) Save(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks for configuration errors worth failing startup over.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.AI.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.AI.Provider == "openai" && c.AI.APIKey == "" {
		return fmt.Errorf("ai provider openai requires api_key")
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding provider openai requires api_key")
	}
	return nil
}

// AgentsDir is where agent metadata records live.
func (c *Config) AgentsDir() string {
	return filepath.Join(c.DataDir, "agents")
}

// VectorDir is the root for per-namespace vector snapshots.
func (c *Config) VectorDir() string {
	return filepath.Join(c.DataDir, "vector_store")
}

// SessionsPath is the SQLite file holding chat history.
func (c *Config) SessionsPath() string {
	return filepath.Join(c.DataDir, "sessions.db")
}

func (c *Config) expandEnvVars() {
	c.DataDir = os.ExpandEnv(c.DataDir)
	c.AI.APIKey = os.ExpandEnv(c.AI.APIKey)
	c.Embedding.APIKey = os.ExpandEnv(c.Embedding.APIKey)
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.AI.Provider == "" {
		c.AI.Provider = def.AI.Provider
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = def.Embedding.Provider
	}
	if c.Vector.ChunkSize == 0 {
		c.Vector.ChunkSize = def.Vector.ChunkSize
	}
	if c.Vector.ChunkOverlap == 0 {
		c.Vector.ChunkOverlap = def.Vector.ChunkOverlap
	}
	if c.Vector.TopK == 0 {
		c.Vector.TopK = def.Vector.TopK
	}
	if c.Vector.HistoryTurns == 0 {
		c.Vector.HistoryTurns = def.Vector.HistoryTurns
	}
	if c.Scheduler.RefreshSpec == "" {
		c.Scheduler.RefreshSpec = def.Scheduler.RefreshSpec
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
