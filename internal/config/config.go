// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
// A .env file in the working directory is loaded first if present.
type Config struct {
	// NASA NeoWs client.
	NasaAPIKey  string        `env:"NASA_API_KEY"`
	NasaBaseURL string        `env:"NASA_BASE_URL" env-default:""`
	NasaTimeout time.Duration `env:"NASA_TIMEOUT" env-default:"30s"`

	// Relational store.
	DBPath string `env:"DB_PATH" env-default:"neo.db"`

	HTTPAddr        string        `env:"HTTP_ADDR" env-default:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" env-default:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	// One-shot ingest at boot.
	IngestOnStart    bool `env:"INGEST_ON_START" env-default:"false"`
	IngestWindowDays int  `env:"INGEST_WINDOW_DAYS" env-default:"1"`

	// Kafka sink (feature-flagged).
	KafkaEnabled   bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaSinkTopic string   `env:"KAFKA_SINK_TOPIC" env-default:"normalized-asteroids"`

	// OpenAI report polish (feature-flagged via OPENAI_API_KEY).
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIModel   string        `env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL" env-default:""`
	OpenAITimeout time.Duration `env:"OPENAI_TIMEOUT" env-default:"20s"`
}

// Load reads configuration from the environment, applying defaults where
// unset, and validates cross-field constraints.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if cfg.NasaTimeout <= 0 {
		return nil, errors.New("NASA_TIMEOUT must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.LogFormat)
	}
	if cfg.IngestWindowDays < 1 || cfg.IngestWindowDays > 7 {
		return nil, fmt.Errorf("INGEST_WINDOW_DAYS must be 1-7, got %d", cfg.IngestWindowDays)
	}
	if cfg.IngestOnStart && cfg.NasaAPIKey == "" {
		return nil, errors.New("INGEST_ON_START is true but NASA_API_KEY is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}

	return &cfg, nil
}
