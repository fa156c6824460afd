package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogFilePath string `yaml:"log_file_path"`
}

// KBConfig locates the knowledge base and sets the chunking window.
type KBConfig struct {
	Dir       string `yaml:"dir"`
	IndexDir  string `yaml:"index_dir"`
	ChunkSize int    `yaml:"chunk_size"`
	Overlap   int    `yaml:"overlap"`
}

// OpenAIConfig configures an OpenAI-compatible endpoint. The API key is
// indirected through an env var name so the YAML file stays secret-free.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the embedding capability.
type EmbedderConfig struct {
	Type   string        `yaml:"type"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
}

// GeneratorConfig selects and configures the generation capability.
type GeneratorConfig struct {
	Type   string        `yaml:"type"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
}

// RetrievalConfig sets the retrieval policy knobs. MinScore is what lets the
// system report "not found" instead of grounding an answer in noise.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
}

// ComposerConfig sets the answer-composition truncation limits.
type ComposerConfig struct {
	ContextChars int `yaml:"context_chars"`
	SnippetChars int `yaml:"snippet_chars"`
	MaxCitations int `yaml:"max_citations"`
}

// TriageHTTPConfig points at the triage-model sidecar.
type TriageHTTPConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// TriageConfig selects the triage classifier implementation.
type TriageConfig struct {
	Type string            `yaml:"type"`
	HTTP *TriageHTTPConfig `yaml:"http,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	KB        KBConfig        `yaml:"kb"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Composer  ComposerConfig  `yaml:"composer"`
	Triage    TriageConfig    `yaml:"triage"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	if cfg.KB.ChunkSize <= 0 {
		return fmt.Errorf("kb.chunk_size must be positive, got %d", cfg.KB.ChunkSize)
	}
	if cfg.KB.Overlap < 0 || cfg.KB.Overlap >= cfg.KB.ChunkSize {
		return fmt.Errorf("kb.overlap must be in [0, chunk_size), got %d", cfg.KB.Overlap)
	}
	if cfg.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", cfg.Retrieval.TopK)
	}
	return nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server:    ServerConfig{Port: "8080", Environment: "development", LogFilePath: "logs/copilot.log"},
		KB:        KBConfig{Dir: "data/kb", IndexDir: "indexes"},
		Embedder:  EmbedderConfig{Type: "openai"},
		Generator: GeneratorConfig{Type: "openai"},
		Triage:    TriageConfig{Type: "keyword"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Server.LogFilePath == "" {
		cfg.Server.LogFilePath = "logs/copilot.log"
	}
	if cfg.KB.Dir == "" {
		cfg.KB.Dir = "data/kb"
	}
	if cfg.KB.IndexDir == "" {
		cfg.KB.IndexDir = "indexes"
	}
	if cfg.KB.ChunkSize == 0 {
		cfg.KB.ChunkSize = 800
	}
	if cfg.KB.Overlap == 0 {
		cfg.KB.Overlap = 120
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small", 30)
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "openai"
	}
	if cfg.Generator.Type == "openai" {
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Generator.OpenAI, "gpt-4.1-mini", 60)
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.MinScore == 0 {
		cfg.Retrieval.MinScore = 0.25
	}
	if cfg.Composer.ContextChars == 0 {
		cfg.Composer.ContextChars = 600
	}
	if cfg.Composer.SnippetChars == 0 {
		cfg.Composer.SnippetChars = 240
	}
	if cfg.Composer.MaxCitations == 0 {
		cfg.Composer.MaxCitations = 2
	}
	if cfg.Triage.Type == "" {
		cfg.Triage.Type = "keyword"
	}
	if cfg.Triage.Type == "http" && cfg.Triage.HTTP != nil && cfg.Triage.HTTP.TimeoutSecs == 0 {
		cfg.Triage.HTTP.TimeoutSecs = 10
	}
}

// Generation calls get a longer default timeout than embedding calls, so the
// per-capability default is passed in rather than hard-coded here.
func applyOpenAIDefaults(c *OpenAIConfig, model string, timeoutSecs int) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeoutSecs
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
}
