package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Decision sinks
const (
	SinkRedis = "redis"
	SinkKafka = "kafka"
)

// Config holds all configuration for the inquiry worker
type Config struct {
	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"inquiry-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"inquiry.inbound"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"inquiry-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"inquiry.routed"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3"`

	// Conversation state
	StateKeyPrefix string        `env:"STATE_KEY_PREFIX" envDefault:"inquiry:state:"`
	StateTTL       time.Duration `env:"STATE_TTL" envDefault:"24h"`
	HistoryLimit   int           `env:"HISTORY_LIMIT" envDefault:"20"`

	// Decision sink
	DecisionSink string   `env:"DECISION_SINK" envDefault:"redis"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"inquiry.routed"`

	// Optional table overrides
	KeywordsFile string `env:"KEYWORDS_FILE"`
	DTCFile      string `env:"DTC_FILE"`

	// LLM fallback configuration
	LLMFallbackEnabled bool          `env:"LLM_FALLBACK_ENABLED" envDefault:"false"`
	LLMProvider        string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey          string        `env:"LLM_API_KEY"`
	LLMModel           string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMTimeout         time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.WorkerID == "" {
		return fmt.Errorf("WORKER_ID is required")
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.StreamKey == "" {
		return fmt.Errorf("STREAM_KEY is required")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}

	if c.ResultStream == "" {
		return fmt.Errorf("RESULT_STREAM is required")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be non-negative")
	}

	if c.StateKeyPrefix == "" {
		return fmt.Errorf("STATE_KEY_PREFIX is required")
	}

	if c.StateTTL < 0 {
		return fmt.Errorf("STATE_TTL must be non-negative")
	}

	if c.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must be non-negative")
	}

	switch c.DecisionSink {
	case SinkRedis:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when DECISION_SINK=kafka")
		}
		if c.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_TOPIC is required when DECISION_SINK=kafka")
		}
	default:
		return fmt.Errorf("DECISION_SINK must be one of: redis, kafka")
	}

	// LLM_API_KEY is optional; without it the fallback stays off
	if c.LLMFallbackEnabled {
		if c.LLMProvider == "" {
			return fmt.Errorf("LLM_PROVIDER is required")
		}
		if c.LLMModel == "" {
			return fmt.Errorf("LLM_MODEL is required")
		}
	}

	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// LLMFallbackActive reports whether the LLM fallback classifier should be built
func (c *Config) LLMFallbackActive() bool {
	return c.LLMFallbackEnabled && c.LLMAPIKey != ""
}

// ErrorStream is the stream failed messages are reported to
func (c *Config) ErrorStream() string {
	return c.ResultStream + ".errors"
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, "+
			"ResultStream=%s, DecisionSink=%s, KafkaBrokers=%s, HistoryLimit=%d, StateTTL=%s, "+
			"LLMFallback=%v, LLMProvider=%s, LLMModel=%s, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.ResultStream,
		c.DecisionSink,
		strings.Join(c.KafkaBrokers, ","),
		c.HistoryLimit,
		c.StateTTL,
		c.LLMFallbackActive(),
		c.LLMProvider,
		c.LLMModel,
		c.HealthPort,
		c.LogLevel,
	)
}
