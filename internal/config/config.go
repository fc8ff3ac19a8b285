// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"SHOP_HOST" yaml:"host"`
	Port int    `envconfig:"SHOP_PORT" yaml:"port"`

	// Feature flags
	EnableConversation    bool `envconfig:"SHOP_ENABLE_CONVERSATION" yaml:"enable_conversation"`
	EnablePersonalization bool `envconfig:"SHOP_ENABLE_PERSONALIZATION" yaml:"enable_personalization"`

	// Qdrant configuration
	Qdrant QdrantConfig `yaml:"qdrant"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Pipeline configuration
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Ranking configuration
	Ranking RankingConfig `yaml:"ranking"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host       string `envconfig:"QDRANT_HOST" yaml:"host"`
	Port       int    `envconfig:"QDRANT_PORT" yaml:"port"`
	APIKey     string `envconfig:"QDRANT_API_KEY" yaml:"api_key"`
	UseTLS     bool   `envconfig:"QDRANT_USE_TLS" yaml:"use_tls"`
	Collection string `envconfig:"QDRANT_COLLECTION" yaml:"collection"`
}

// LLMConfig holds language model service settings.
type LLMConfig struct {
	BaseURL        string        `envconfig:"SHOP_LLM_URL" yaml:"base_url"`
	APIKey         string        `envconfig:"SHOP_LLM_API_KEY" yaml:"api_key"`
	Model          string        `envconfig:"SHOP_LLM_MODEL" yaml:"model"`
	EmbedModel     string        `envconfig:"SHOP_EMBED_MODEL" yaml:"embed_model"`
	EmbedDim       int           `envconfig:"SHOP_EMBED_DIM" yaml:"embed_dim"`
	Temperature    float64       `envconfig:"SHOP_LLM_TEMPERATURE" yaml:"temperature"`
	RequestTimeout time.Duration `envconfig:"SHOP_LLM_TIMEOUT" yaml:"request_timeout"`
}

// SessionConfig holds conversation session store settings.
type SessionConfig struct {
	Type     string        `envconfig:"SHOP_SESSION_TYPE" yaml:"type"` // memory or redis
	RedisURL string        `envconfig:"SHOP_REDIS_URL" yaml:"redis_url"`
	TTL      time.Duration `envconfig:"SHOP_SESSION_TTL" yaml:"ttl"`
	MaxTurns int           `envconfig:"SHOP_SESSION_MAX_TURNS" yaml:"max_turns"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"SHOP_BUS_TYPE" yaml:"type"` // memory or kafka
	KafkaBrokers string `envconfig:"SHOP_KAFKA_BROKERS" yaml:"kafka_brokers"`
}

// PipelineConfig holds pipeline settings.
type PipelineConfig struct {
	RetrievalK      int           `envconfig:"SHOP_RETRIEVAL_K" yaml:"retrieval_k"`
	TopN            int           `envconfig:"SHOP_TOP_N" yaml:"top_n"`
	MaxQueryLength  int           `envconfig:"SHOP_MAX_QUERY_LENGTH" yaml:"max_query_length"`
	StageTimeout    time.Duration `envconfig:"SHOP_STAGE_TIMEOUT" yaml:"stage_timeout"`
	ConfidenceFloor float64       `envconfig:"SHOP_CONFIDENCE_FLOOR" yaml:"confidence_floor"`
}

// RankingConfig holds ranking settings. Per-intent weights are kept in the
// rank package's weight table; these knobs tune its global behavior.
type RankingConfig struct {
	StrictPriceFilter    bool    `envconfig:"SHOP_STRICT_PRICE_FILTER" yaml:"strict_price_filter"`
	PersonalizationBoost float64 `envconfig:"SHOP_PERSONALIZATION_BOOST" yaml:"personalization_boost"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"SHOP_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"SHOP_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	APIKey    string `envconfig:"SHOP_API_KEY" yaml:"api_key"`
	RateLimit int    `envconfig:"SHOP_RATE_LIMIT" yaml:"rate_limit"` // 0 = disabled
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080
	cfg.EnableConversation = true
	cfg.EnablePersonalization = true

	cfg.Qdrant = QdrantConfig{
		Host:       "localhost",
		Port:       6334,
		Collection: "products",
	}

	cfg.LLM = LLMConfig{
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		EmbedModel:     "text-embedding-3-large",
		EmbedDim:       1536,
		Temperature:    0.1,
		RequestTimeout: 10 * time.Second,
	}

	cfg.Session = SessionConfig{
		Type:     "memory",
		RedisURL: "redis://localhost:6379",
		TTL:      time.Hour,
		MaxTurns: 10,
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Pipeline = PipelineConfig{
		RetrievalK:      10,
		TopN:            3,
		MaxQueryLength:  500,
		StageTimeout:    10 * time.Second,
		ConfidenceFloor: 0.3,
	}

	cfg.Ranking = RankingConfig{
		StrictPriceFilter:    false,
		PersonalizationBoost: 0.2,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit: 0,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// LLM validation
	if c.LLM.EmbedDim < 1 {
		errs = append(errs, "embed_dim must be positive")
	}

	if c.LLM.RequestTimeout <= 0 {
		errs = append(errs, "llm request_timeout must be positive")
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "llm temperature must be between 0 and 2")
	}

	// Session validation
	validSessionTypes := map[string]bool{"memory": true, "redis": true}
	if !validSessionTypes[c.Session.Type] {
		errs = append(errs, fmt.Sprintf("invalid session type: %s (must be memory or redis)", c.Session.Type))
	}

	if c.Session.MaxTurns < 1 {
		errs = append(errs, "session max_turns must be positive")
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	// Pipeline validation
	if c.Pipeline.RetrievalK < 1 {
		errs = append(errs, "retrieval_k must be positive")
	}

	if c.Pipeline.TopN < 1 {
		errs = append(errs, "top_n must be positive")
	}

	if c.Pipeline.TopN > c.Pipeline.RetrievalK {
		errs = append(errs, "top_n must not exceed retrieval_k")
	}

	if c.Pipeline.MaxQueryLength < 1 {
		errs = append(errs, "max_query_length must be positive")
	}

	if c.Pipeline.ConfidenceFloor < 0 || c.Pipeline.ConfidenceFloor > 1 {
		errs = append(errs, "confidence_floor must be between 0 and 1")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
