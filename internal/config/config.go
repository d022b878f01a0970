package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Raw-content archive for fetched payloads. Optional; scouting
	// proceeds without archiving when unset.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"brandpulse-raw"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Base URL of the collector service fronting the platform crawlers.
	CollectorURL string `envconfig:"COLLECTOR_URL"`

	// Static API keys accepted by the HTTP API, comma separated.
	APIKeys []string `envconfig:"API_KEYS"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	SimilarityThreshold float32       `envconfig:"SIMILARITY_THRESHOLD" default:"0.35"`
	RetrievalTopK       int           `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	MaxStageAttempts    int           `envconfig:"MAX_STAGE_ATTEMPTS" default:"3"`
	WorkerPollInterval  time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("BRANDPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
