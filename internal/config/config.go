// Package config loads the orchestrator configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. DEALROOM_LLM_API_KEY.
const EnvPrefix = "DEALROOM"

// Config holds all orchestrator configuration.
type Config struct {
	Mode       string           `mapstructure:"mode" yaml:"mode"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval" yaml:"retrieval"`
	Deals      DealsConfig      `mapstructure:"deals" yaml:"deals"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// LLMConfig configures the generation backend and its retry policy.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider" yaml:"provider"`
	Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
	Model          string        `mapstructure:"model" yaml:"model"`
	APIKey         string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Temperature    float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RetryAttempts  int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay" yaml:"retry_max_delay"`
}

// RetrievalConfig selects and configures the knowledge-retrieval backend.
type RetrievalConfig struct {
	// Backend is "http" or "qdrant".
	Backend       string          `mapstructure:"backend" yaml:"backend"`
	BackendName   string          `mapstructure:"backend_name" yaml:"backend_name"`
	Endpoint      string          `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey        string          `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Timeout       time.Duration   `mapstructure:"timeout" yaml:"timeout"`
	SlowThreshold time.Duration   `mapstructure:"slow_threshold" yaml:"slow_threshold"`
	Qdrant        QdrantConfig    `mapstructure:"qdrant" yaml:"qdrant"`
	Embedding     EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host       string  `mapstructure:"host" yaml:"host"`
	Port       int     `mapstructure:"port" yaml:"port"`
	APIKey     string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	UseTLS     bool    `mapstructure:"use_tls" yaml:"use_tls"`
	Collection string  `mapstructure:"collection" yaml:"collection"`
	TopK       int     `mapstructure:"top_k" yaml:"top_k"`
	MinScore   float32 `mapstructure:"min_score" yaml:"min_score"`
}

// EmbeddingConfig points at the remote embedding service.
type EmbeddingConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DealsConfig configures where deal metadata is read from.
type DealsConfig struct {
	PostgresDSN string        `mapstructure:"postgres_dsn" yaml:"postgres_dsn,omitempty"`
	RedisAddr   string        `mapstructure:"redis_addr" yaml:"redis_addr,omitempty"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	// Static deals are used when no database is configured.
	Static []StaticDeal `mapstructure:"static" yaml:"static,omitempty"`
}

// StaticDeal is a deal declared directly in the config file.
type StaticDeal struct {
	ID            string `mapstructure:"id" yaml:"id"`
	Name          string `mapstructure:"name" yaml:"name"`
	DocumentCount int    `mapstructure:"document_count" yaml:"document_count"`
}

// ClassifierConfig sizes the optional classification cache. Size 0 disables it.
type ClassifierConfig struct {
	CacheSize int           `mapstructure:"cache_size" yaml:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// ValidationConfig extends the soft validation rules.
type ValidationConfig struct {
	RulesPath     string `mapstructure:"rules_path" yaml:"rules_path,omitempty"`
	MaxQueryRunes int    `mapstructure:"max_query_runes" yaml:"max_query_runes"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode: "supervisor",
		LLM: LLMConfig{
			Provider:       "openai",
			Endpoint:       "http://localhost:8000/v1",
			Model:          "Qwen/Qwen2.5-7B-Instruct",
			Temperature:    0.1,
			MaxTokens:      1024,
			TimeoutSeconds: 60,
			RetryAttempts:  3,
			RetryBaseDelay: 500 * time.Millisecond,
			RetryMaxDelay:  8 * time.Second,
		},
		Retrieval: RetrievalConfig{
			Backend:       "http",
			BackendName:   "backend",
			Endpoint:      "http://localhost:8080",
			Timeout:       10 * time.Second,
			SlowThreshold: 500 * time.Millisecond,
			Qdrant: QdrantConfig{
				Host:       "localhost",
				Port:       6334,
				Collection: "dealroom_chunks",
				TopK:       8,
			},
			Embedding: EmbeddingConfig{
				Endpoint: "http://localhost:8081/embed",
				Timeout:  5 * time.Second,
			},
		},
		Deals: DealsConfig{
			CacheTTL: 5 * time.Minute,
		},
		Classifier: ClassifierConfig{
			CacheSize: 1024,
			CacheTTL:  10 * time.Minute,
		},
		Validation: ValidationConfig{
			MaxQueryRunes: 4000,
		},
		Server: ServerConfig{
			Addr:            ":8090",
			RequestTimeout:  90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads the config file at path, layered over defaults and environment.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

// LoadFromPaths loads the first existing file among paths, then
// $HOME/.dealroom/config.yaml. With no file found it returns defaults with
// environment overrides applied.
func LoadFromPaths(paths ...string) (*Config, error) {
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".dealroom", "config.yaml"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

// setDefaults registers every default so AutomaticEnv can override keys that
// are missing from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("mode", d.Mode)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.endpoint", d.LLM.Endpoint)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	v.SetDefault("llm.retry_attempts", d.LLM.RetryAttempts)
	v.SetDefault("llm.retry_base_delay", d.LLM.RetryBaseDelay)
	v.SetDefault("llm.retry_max_delay", d.LLM.RetryMaxDelay)

	v.SetDefault("retrieval.backend", d.Retrieval.Backend)
	v.SetDefault("retrieval.backend_name", d.Retrieval.BackendName)
	v.SetDefault("retrieval.endpoint", d.Retrieval.Endpoint)
	v.SetDefault("retrieval.api_key", d.Retrieval.APIKey)
	v.SetDefault("retrieval.timeout", d.Retrieval.Timeout)
	v.SetDefault("retrieval.slow_threshold", d.Retrieval.SlowThreshold)
	v.SetDefault("retrieval.qdrant.host", d.Retrieval.Qdrant.Host)
	v.SetDefault("retrieval.qdrant.port", d.Retrieval.Qdrant.Port)
	v.SetDefault("retrieval.qdrant.api_key", d.Retrieval.Qdrant.APIKey)
	v.SetDefault("retrieval.qdrant.use_tls", d.Retrieval.Qdrant.UseTLS)
	v.SetDefault("retrieval.qdrant.collection", d.Retrieval.Qdrant.Collection)
	v.SetDefault("retrieval.qdrant.top_k", d.Retrieval.Qdrant.TopK)
	v.SetDefault("retrieval.qdrant.min_score", d.Retrieval.Qdrant.MinScore)
	v.SetDefault("retrieval.embedding.endpoint", d.Retrieval.Embedding.Endpoint)
	v.SetDefault("retrieval.embedding.timeout", d.Retrieval.Embedding.Timeout)

	v.SetDefault("deals.postgres_dsn", d.Deals.PostgresDSN)
	v.SetDefault("deals.redis_addr", d.Deals.RedisAddr)
	v.SetDefault("deals.cache_ttl", d.Deals.CacheTTL)

	v.SetDefault("classifier.cache_size", d.Classifier.CacheSize)
	v.SetDefault("classifier.cache_ttl", d.Classifier.CacheTTL)

	v.SetDefault("validation.rules_path", d.Validation.RulesPath)
	v.SetDefault("validation.max_query_runes", d.Validation.MaxQueryRunes)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unsupported %q", c.LLM.Provider))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.LLM.RetryAttempts < 1 {
		errs = append(errs, errors.New("llm.retry_attempts must be at least 1"))
	}
	switch c.Retrieval.Backend {
	case "http":
		if c.Retrieval.Endpoint == "" {
			errs = append(errs, errors.New("retrieval.endpoint is required for the http backend"))
		}
	case "qdrant":
		if c.Retrieval.Qdrant.Host == "" || c.Retrieval.Qdrant.Collection == "" {
			errs = append(errs, errors.New("retrieval.qdrant.host and collection are required"))
		}
		if c.Retrieval.Embedding.Endpoint == "" {
			errs = append(errs, errors.New("retrieval.embedding.endpoint is required for the qdrant backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("retrieval.backend: unsupported %q", c.Retrieval.Backend))
	}
	if c.Classifier.CacheSize < 0 {
		errs = append(errs, errors.New("classifier.cache_size must not be negative"))
	}
	for i, d := range c.Deals.Static {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("deals.static[%d]: id is required", i))
		}
	}
	return errors.Join(errs...)
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
