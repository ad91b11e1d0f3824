package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const Version = "1.0.0"

// Config holds every setting the api, the worker and the tools read from
// the environment.
type Config struct {
	Environment string
	Debug       bool
	LogLevel    string
	Port        string

	DatabaseURL string
	RedisURL    string

	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string
	GroqBaseURL  string
	LLMProviders []string
	GCPProjectID string
	VertexRegion string

	LLMTemperature float64
	LLMMaxTokens   int

	StorageBackend   string
	UploadDir        string
	GCSBucket        string
	MaxUploadSize    int64
	AllowedFileTypes []string
	AllowedOrigins   []string

	DefaultPageSize int
	MaxPageSize     int

	ExtractionTimeout     time.Duration
	MaxRetries            int
	WorkerConcurrency     int
	ExtractionConcurrency int
}

// LoadConfig reads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// .env is optional; in production variables are set directly
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Debug:       getEnvBool("DEBUG", true),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		Port:        getEnv("PORT", "8000"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),
		GroqModel:    getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqBaseURL:  getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMProviders: getEnvList("LLM_PROVIDERS", []string{"gemini", "groq"}),
		GCPProjectID: getEnv("GCP_PROJECT_ID", ""),
		VertexRegion: getEnv("VERTEX_REGION", "us-central1"),

		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8192),

		StorageBackend:   getEnv("STORAGE_BACKEND", "local"),
		UploadDir:        getEnv("UPLOAD_DIR", "/data/uploads"),
		GCSBucket:        getEnv("GCS_BUCKET", ""),
		MaxUploadSize:    int64(getEnvInt("MAX_UPLOAD_SIZE", 52428800)),
		AllowedFileTypes: getEnvList("ALLOWED_FILE_TYPES", []string{".pdf", ".docx", ".html", ".txt"}),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3004", "http://127.0.0.1:3004"}),

		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 50),
		MaxPageSize:     getEnvInt("MAX_PAGE_SIZE", 100),

		ExtractionTimeout:     time.Duration(getEnvInt("EXTRACTION_TIMEOUT", 300)) * time.Second,
		MaxRetries:            getEnvInt("MAX_RETRIES", 3),
		WorkerConcurrency:     getEnvInt("WORKER_CONCURRENCY", 10),
		ExtractionConcurrency: getEnvInt("EXTRACTION_CONCURRENCY", 4),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "legal_review"),
			getEnv("DB_PORT", "5432"),
		)
	}

	if cfg.StorageBackend != "local" && cfg.StorageBackend != "gcs" {
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == "gcs" && cfg.GCSBucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required when STORAGE_BACKEND is gcs")
	}
	if cfg.MaxPageSize <= 0 {
		return nil, fmt.Errorf("MAX_PAGE_SIZE must be positive")
	}

	return cfg, nil
}

// IsAllowedFileType reports whether ext (with leading dot) is accepted for
// upload.
func (c *Config) IsAllowedFileType(ext string) bool {
	ext = strings.ToLower(ext)
	for _, t := range c.AllowedFileTypes {
		if strings.ToLower(t) == ext {
			return true
		}
	}
	return false
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
