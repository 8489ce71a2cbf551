package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// CorpusDir is the directory of Markdown documentation to index.
	CorpusDir string
	// IndexDir is where the persisted index artifacts live (vectors.bin + chunks.db).
	IndexDir string

	EmbeddingBaseURL string
	EmbeddingModel   string
	GenerationBaseURL string
	GenerationModel   string
	APIKey            string

	// VectorSize is the embedding dimensionality. It must match the output
	// size of the embedding model; there is no safe default.
	VectorSize int

	// TopK is the default number of chunks retrieved per query; MaxTopK caps
	// caller-supplied values.
	TopK    int
	MaxTopK int

	// SimilarityThreshold is the cosine score below which a query is refused
	// without invoking generation.
	SimilarityThreshold float32

	// ContextBudget is the maximum number of runes of chunk text assembled
	// into the generation prompt.
	ContextBudget int

	// RefusalPattern overrides the default regexp used to detect a
	// model-reported absence in generated text. Empty selects the default.
	RefusalPattern string

	// BuildWorkers bounds embedding parallelism during index builds.
	BuildWorkers int
	// MaxEmbedFailureRatio is the fraction of chunk embedding failures above
	// which a build is aborted instead of dropping the failed chunks.
	MaxEmbedFailureRatio float64

	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration

	LogLevel  slog.Level
	LogFormat string
	APIPort   string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory, it is loaded first;
// environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CorpusDir:         getEnv("CORPUS_DIR", "./data/docs"),
		IndexDir:          getEnv("INDEX_DIR", "./data/index"),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "intfloat-e5-base"),
		GenerationBaseURL: getEnv("GENERATION_BASE_URL", "http://localhost:8080"),
		GenerationModel:   getEnv("GENERATION_MODEL", "flan-t5-base"),
		APIKey:            getEnv("LLM_API_KEY", "dummy-key"),
		RefusalPattern:    getEnv("REFUSAL_PATTERN", ""),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		APIPort:           getEnv("API_PORT", "9000"),
	}

	// VECTOR_SIZE must match the output vector size of the embedding model.
	// If the model changes, the index must be rebuilt.
	vectorSizeStr := getEnv("VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	cfg.VectorSize = vectorSize

	if cfg.TopK, err = getEnvInt("TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.MaxTopK, err = getEnvInt("MAX_TOP_K", 20); err != nil {
		return nil, err
	}
	if cfg.TopK <= 0 || cfg.MaxTopK < cfg.TopK {
		return nil, fmt.Errorf("TOP_K must be positive and MAX_TOP_K must be >= TOP_K")
	}

	threshold, err := getEnvFloat("SIMILARITY_THRESHOLD", 0.30)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("SIMILARITY_THRESHOLD must be in [0, 1]")
	}
	cfg.SimilarityThreshold = float32(threshold)

	if cfg.ContextBudget, err = getEnvInt("CONTEXT_BUDGET", 2000); err != nil {
		return nil, err
	}
	if cfg.ContextBudget <= 0 {
		return nil, fmt.Errorf("CONTEXT_BUDGET must be greater than 0")
	}

	if cfg.BuildWorkers, err = getEnvInt("BUILD_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.BuildWorkers <= 0 {
		return nil, fmt.Errorf("BUILD_WORKERS must be greater than 0")
	}

	if cfg.MaxEmbedFailureRatio, err = getEnvFloat("MAX_EMBED_FAILURE_RATIO", 0.2); err != nil {
		return nil, err
	}
	if cfg.MaxEmbedFailureRatio < 0 || cfg.MaxEmbedFailureRatio > 1 {
		return nil, fmt.Errorf("MAX_EMBED_FAILURE_RATIO must be in [0, 1]")
	}

	if cfg.EmbedTimeout, err = getEnvDuration("EMBED_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.GenerateTimeout, err = getEnvDuration("GENERATE_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}

	cfg.LogLevel = parseLogLevel(getEnv("LOG_LEVEL", "info"))

	// Ensure the index directory exists before anything tries to persist into it.
	if err := os.MkdirAll(cfg.IndexDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return d, nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
