package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from the environment.
type Config struct {
	// Server
	Port  int  `envconfig:"PORT" default:"8080"`
	Debug bool `envconfig:"DEBUG" default:"false"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// OpenAI
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	GenerationModel     string `envconfig:"GENERATION_MODEL" default:"gpt-4o-mini"`

	// Chunking
	ChunkMaxChars    int `envconfig:"CHUNK_MAX_CHARS" default:"1200"`
	ChunkMinChars    int `envconfig:"CHUNK_MIN_CHARS" default:"400"`
	ChunkOverlap     int `envconfig:"CHUNK_OVERLAP" default:"200"`
	ChunkMaxPerTopic int `envconfig:"CHUNK_MAX_PER_TOPIC" default:"500"`

	// Pipeline
	DefaultTopK  int           `envconfig:"DEFAULT_TOP_K" default:"5"`
	MaxAttempts  int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	StageTimeout time.Duration `envconfig:"STAGE_TIMEOUT" default:"30s"`

	// Query worker pool
	QueryPoolSize  int `envconfig:"QUERY_POOL_SIZE" default:"64"`
	QueryQueueSize int `envconfig:"QUERY_QUEUE_SIZE" default:"128"`

	// Index worker
	IndexWorkerEnabled  bool          `envconfig:"INDEX_WORKER_ENABLED" default:"true"`
	IndexWorkerInterval time.Duration `envconfig:"INDEX_WORKER_INTERVAL" default:"5s"`

	// S3-compatible archive (optional)
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Sentry (optional)
	SentryDSN         string  `envconfig:"SENTRY_DSN"`
	SentrySampleRate  float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"0.1"`
	SentryEnvironment string  `envconfig:"SENTRY_ENVIRONMENT" default:"development"`

	// Bootstrap (optional): create an institution + API key on first start
	InitInstitutionName string `envconfig:"INIT_INSTITUTION_NAME"`
	InitAPIKey          string `envconfig:"INIT_API_KEY"`
}

// Load reads configuration from the environment, loading .env first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}

	var cfg Config
	if err := envconfig.Process("SYLLABIQ", &cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration or exits.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// HasOpenAI reports whether an OpenAI API key is configured.
func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasS3 reports whether the source-text archive is configured.
func (c *Config) HasS3() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// HasSentry reports whether Sentry error reporting is configured.
func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
