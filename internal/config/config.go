package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	LLM         LLMConfig
	Embedding   EmbeddingConfig
	Rerank      RerankConfig
	Conversion  ConversionConfig
	ObjectStore ObjectStoreConfig
	Splitter    SplitterConfig
}

type ServerConfig struct {
	Host             string
	Port             int
	RequestDeadline  time.Duration
	AllowedOrigins   []string
	HTTPRateLimitRPS int
	HTTPRateBurst    int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

// LLMConfig configures ChatLLM providers (C1), per spec.md §4.1.
type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
	RateLimitRPS     float64
	RateLimitBurst   int
}

// EmbeddingConfig configures the Embedder provider (C1), per spec.md §4.1.
// Dimension is fixed at startup and checked against the vector collection
// (DIMENSION_MISMATCH is fatal at startup, per spec.md §4.1/§7).
type EmbeddingConfig struct {
	Provider  string // hash | local-model | openai-compatible-http
	Model     string
	Dimension int
	OllamaURL string
	OpenAIKey string
}

// RerankConfig configures the Reranker provider (C1).
type RerankConfig struct {
	Provider string // none | openai-compatible-http
	BaseURL  string
	APIKey   string
	Model    string
}

// ConversionConfig configures the PdfToMarkdown/OCR providers and the worker
// pool (C1/C5), per spec.md §4.1/§4.5/§5.
type ConversionConfig struct {
	MinTextChars  int
	OCREnabled    bool
	TesseractBin  string
	MaxRetries    int
	JobTimeout    time.Duration
	WorkerConcurrency int
}

type ObjectStoreConfig struct {
	Backend string // filesystem | http
	Root    string // filesystem root
	BaseURL string // http backend base URL
	Token   string // http backend bearer token
}

// SplitterConfig configures the chunk splitter (C4), per spec.md §4.4.
// It applies to every tenant: TenantSettings carries no splitter fields, so
// there is no per-tenant override.
type SplitterConfig struct {
	Strategy       string
	ChunkSize      int
	OverlapPercent int
	Delimiters     []string
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}
	embedDim, err := getEnvInt("EMBEDDING_DIMENSION", 384)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_DIMENSION: %w", err)
	}
	minTextChars, err := getEnvInt("CONVERSION_MIN_TEXT_CHARS", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid CONVERSION_MIN_TEXT_CHARS: %w", err)
	}
	convMaxRetries, err := getEnvInt("CONVERSION_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid CONVERSION_MAX_RETRIES: %w", err)
	}
	workerConcurrency, err := getEnvInt("CONVERSION_WORKER_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid CONVERSION_WORKER_CONCURRENCY: %w", err)
	}
	chunkSize, err := getEnvInt("SPLITTER_CHUNK_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid SPLITTER_CHUNK_SIZE: %w", err)
	}
	overlapPercent, err := getEnvInt("SPLITTER_OVERLAP_PERCENT", 15)
	if err != nil {
		return nil, fmt.Errorf("invalid SPLITTER_OVERLAP_PERCENT: %w", err)
	}
	rateLimitRPS, err := getEnvFloat("LLM_RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_RATE_LIMIT_RPS: %w", err)
	}
	rateLimitBurst, err := getEnvInt("LLM_RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_RATE_LIMIT_BURST: %w", err)
	}
	requestDeadline, err := getEnvDuration("REQUEST_DEADLINE", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_DEADLINE: %w", err)
	}
	jobTimeout, err := getEnvDuration("CONVERSION_JOB_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid CONVERSION_JOB_TIMEOUT: %w", err)
	}
	httpRateLimitRPS, err := getEnvInt("HTTP_RATE_LIMIT_RPS", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_RATE_LIMIT_RPS: %w", err)
	}
	httpRateBurst, err := getEnvInt("HTTP_RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:             getEnv("SERVER_HOST", "0.0.0.0"),
			Port:             port,
			RequestDeadline:  requestDeadline,
			AllowedOrigins:   strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ","),
			HTTPRateLimitRPS: httpRateLimitRPS,
			HTTPRateBurst:    httpRateBurst,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "ollama"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "llama3"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
			RateLimitRPS:     rateLimitRPS,
			RateLimitBurst:   rateLimitBurst,
		},
		Embedding: EmbeddingConfig{
			Provider:  getEnv("EMBEDDING_PROVIDER", "hash"),
			Model:     getEnv("EMBEDDING_MODEL", "hash-384"),
			Dimension: embedDim,
			OllamaURL: getEnv("OLLAMA_URL", "http://localhost:11434"),
			OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		},
		Rerank: RerankConfig{
			Provider: getEnv("RERANK_PROVIDER", "none"),
			BaseURL:  getEnv("RERANK_BASE_URL", ""),
			APIKey:   getEnv("RERANK_API_KEY", ""),
			Model:    getEnv("RERANK_MODEL", ""),
		},
		Conversion: ConversionConfig{
			MinTextChars:      minTextChars,
			OCREnabled:        getEnvBool("OCR_ENABLED", true),
			TesseractBin:      getEnv("OCR_TESSERACT_BIN", "tesseract"),
			MaxRetries:        convMaxRetries,
			JobTimeout:        jobTimeout,
			WorkerConcurrency: workerConcurrency,
		},
		ObjectStore: ObjectStoreConfig{
			Backend: getEnv("OBJECT_STORE_BACKEND", "filesystem"),
			Root:    getEnv("OBJECT_STORE_ROOT", "./data/objects"),
			BaseURL: getEnv("OBJECT_STORE_BASE_URL", ""),
			Token:   getEnv("OBJECT_STORE_TOKEN", ""),
		},
		Splitter: SplitterConfig{
			Strategy:       getEnv("SPLITTER_STRATEGY", "recursive-separator"),
			ChunkSize:      chunkSize,
			OverlapPercent: overlapPercent,
			Delimiters:     strings.Split(getEnv("SPLITTER_DELIMITERS", "\n\n|\n|. | "), "|"),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
