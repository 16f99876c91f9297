package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port     string `validate:"required,numeric"`
	LogLevel string

	StoreBackend string `validate:"oneof=postgres memory"`
	PostgresURI  string `validate:"required_if=StoreBackend postgres"`

	RedisURL     string        `validate:"required_if=QueueBackend redis"`
	CacheTTL     time.Duration `validate:"gte=0"`
	QueueBackend string        `validate:"oneof=redis memory"`
	QueueStream  string        `validate:"required"`
	QueueGroup   string        `validate:"required"`
	QueueMaxLen  int64         `validate:"gte=0"`
	QueueSize    int           `validate:"gt=0"`
	WorkerCount  int           `validate:"gt=0"`
	TaskTimeout  time.Duration `validate:"gt=0"`
	ConsumerName string

	MongoURI       string
	MongoDB        string        `validate:"required_with=MongoURI"`
	AuditRetention time.Duration `validate:"gte=0"`

	StorageBackend string `validate:"oneof=local gcs"`
	UploadDir      string `validate:"required_if=StorageBackend local"`
	GCSBucket      string `validate:"required_if=StorageBackend gcs"`
	SignedURLTTL   time.Duration

	LLMProvider       string `validate:"oneof=ollama vertex none"`
	OllamaURL         string `validate:"required_if=LLMProvider ollama"`
	OllamaModel       string
	VertexProject     string `validate:"required_if=LLMProvider vertex"`
	VertexLocation    string `validate:"required_if=LLMProvider vertex"`
	VertexModel       string
	GoogleCredentials string

	ExtractionTimeout time.Duration `validate:"min=60s,max=120s"`
	GenerationTimeout time.Duration `validate:"min=60s,max=120s"`
	MinTextLength     int           `validate:"gt=0"`

	SenderEmail string `validate:"required,email"`
	SenderName  string `validate:"required"`

	MaxUploadBytes int64 `validate:"gt=0"`
}

// Load reads .env when present, then the environment, and validates the
// result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "postgres")),
		PostgresURI:  os.Getenv("POSTGRES_URI"),

		RedisURL:     firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		CacheTTL:     getEnvAsDuration("CANDIDATE_CACHE_TTL", 5*time.Minute),
		QueueBackend: strings.ToLower(getEnv("QUEUE_BACKEND", "redis")),
		QueueStream:  getEnv("QUEUE_STREAM", "hirebuddy:tasks"),
		QueueGroup:   getEnv("QUEUE_GROUP", "hirebuddy-workers"),
		QueueMaxLen:  int64(getEnvAsInt("QUEUE_MAX_LEN", 10000)),
		QueueSize:    getEnvAsInt("QUEUE_SIZE", 100),
		WorkerCount:  getEnvAsInt("WORKER_COUNT", 4),
		TaskTimeout:  getEnvAsDuration("TASK_TIMEOUT", 5*time.Minute),
		ConsumerName: getEnv("WORKER_CONSUMER", hostname()),

		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getEnv("MONGO_DB", "hirebuddy"),
		AuditRetention: getEnvAsDuration("AUDIT_RETENTION", 30*24*time.Hour),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		SignedURLTTL:   getEnvAsDuration("SIGNED_URL_TTL", 15*time.Minute),

		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
		OllamaURL:         getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3:instruct"),
		VertexProject:     os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:    getEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:       getEnv("VERTEX_MODEL", "gemini-1.5-flash"),
		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		ExtractionTimeout: getEnvAsDuration("EXTRACTION_TIMEOUT", 90*time.Second),
		GenerationTimeout: getEnvAsDuration("GENERATION_TIMEOUT", 60*time.Second),
		MinTextLength:     getEnvAsInt("MIN_RESUME_TEXT", 50),

		SenderEmail: getEnv("SENDER_EMAIL", "hr@hiring.com"),
		SenderName:  getEnv("SENDER_NAME", "Hiring Team"),

		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 16)) << 20,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// AuditEnabled reports whether extraction audits go to Mongo.
func (c *Config) AuditEnabled() bool { return c.MongoURI != "" }

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvAsInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "worker"
	}
	return h
}
