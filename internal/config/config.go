package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for rfClassifier.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Inference InferenceConfig
	Modes     ModesConfig
	Kafka     KafkaConfig
	Model     ModelConfig
}

type ServerConfig struct {
	Port              int
	Env               string
	RequestsPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional. An empty URL disables the mode cache and rate limiting.
type RedisConfig struct {
	URL string
	// Namespace prefixes every key written by this process.
	Namespace    string
	ModeCacheTTL time.Duration
}

type InferenceConfig struct {
	Backend string
	Timeout time.Duration
	KServe  KServeConfig
}

type KServeConfig struct {
	BaseURL     string
	CavityModel string
	FaultModel  string
}

// ModesConfig selects which archiver deployment control modes are read from.
type ModesConfig struct {
	// Deployment is "auto", "ops" or "history".
	Deployment string
	// OpsWindow is how far back "auto" still reads the ops deployment.
	OpsWindow time.Duration
}

// KafkaConfig is optional. No brokers disables publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type ModelConfig struct {
	// DescriptionFile overrides the embedded model description when set.
	DescriptionFile string
}

// LoadModel reads only the model settings. Commands that never touch the
// database or inference engines use it instead of Load.
func LoadModel() ModelConfig {
	return ModelConfig{DescriptionFile: os.Getenv("MODEL_DESCRIPTION_FILE")}
}

var validBackends = map[string]bool{
	"kserve": true,
}

var validDeployments = map[string]bool{
	"auto":    true,
	"ops":     true,
	"history": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              envInt("RFCLASSIFIER_PORT", 8080),
			Env:               envString("RFCLASSIFIER_ENV", "development"),
			RequestsPerMinute: envInt("RFCLASSIFIER_RATE_LIMIT_PER_MIN", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Namespace:    envString("REDIS_NAMESPACE", "rfclassifier"),
			ModeCacheTTL: envDuration("MODE_CACHE_TTL", 24*time.Hour),
		},
		Inference: InferenceConfig{
			Backend: envString("INFERENCE_BACKEND", "kserve"),
			Timeout: envDurationSecs("INFERENCE_TIMEOUT_SECS", 30*time.Second),
			KServe: KServeConfig{
				BaseURL:     os.Getenv("INFERENCE_BASE_URL"),
				CavityModel: envString("INFERENCE_CAVITY_MODEL", "cavity_model"),
				FaultModel:  envString("INFERENCE_FAULT_MODEL", "fault_model"),
			},
		},
		Modes: ModesConfig{
			Deployment: envString("MODE_DEPLOYMENT", "auto"),
			OpsWindow:  envDuration("MODE_OPS_WINDOW", 7*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_TOPIC", "rf-fault-classifications"),
		},
		Model: LoadModel(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if !validBackends[c.Inference.Backend] {
		return fmt.Errorf("INFERENCE_BACKEND must be kserve; got %q", c.Inference.Backend)
	}
	if c.Inference.KServe.BaseURL == "" {
		return fmt.Errorf("INFERENCE_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Inference.KServe.BaseURL, "http://") && !strings.HasPrefix(c.Inference.KServe.BaseURL, "https://") {
		return fmt.Errorf("INFERENCE_BASE_URL must start with http:// or https://, got %q", c.Inference.KServe.BaseURL)
	}
	if c.Inference.KServe.CavityModel == "" || c.Inference.KServe.FaultModel == "" {
		return fmt.Errorf("INFERENCE_CAVITY_MODEL and INFERENCE_FAULT_MODEL must not be empty")
	}

	if !validDeployments[c.Modes.Deployment] {
		return fmt.Errorf("MODE_DEPLOYMENT must be one of auto, ops, history; got %q", c.Modes.Deployment)
	}
	if c.Modes.OpsWindow <= 0 {
		return fmt.Errorf("MODE_OPS_WINDOW must be positive")
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
