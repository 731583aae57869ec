package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	KT       KTConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider    string // "gemini" or "ollama"
	EmbeddingModel       string
	EmbeddingDim         int
	OllamaBaseURL        string
	LLMProvider          string // "ollama"
	LLMModel             string // primary model, extraction and reports
	SecondaryLLMModel    string // lighter model, question phrasing
	GoogleGeminiKey      string
	GeminiEmbeddingModel string
}

// KTConfig carries the knowledge-capture tunables.
type KTConfig struct {
	CoverageThreshold int
	SessionTTL        time.Duration
	SweepInterval     time.Duration
	ChunkSize         int
	ChunkOverlap      int
	SearchContextSize int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:       getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingDim:         getEnvAsInt("EMBEDDING_DIM", 768),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "qwen2.5"),
			SecondaryLLMModel:    getEnv("LLM_SECONDARY_MODEL", "llama3"),
			GoogleGeminiKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GeminiEmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		},
		KT: KTConfig{
			CoverageThreshold: getEnvAsInt("KT_COVERAGE_THRESHOLD", 80),
			SessionTTL:        getEnvAsDuration("KT_SESSION_TTL", 6*time.Hour),
			SweepInterval:     getEnvAsDuration("KT_SWEEP_INTERVAL", 30*time.Minute),
			ChunkSize:         getEnvAsInt("KT_CHUNK_SIZE", 1000),
			ChunkOverlap:      getEnvAsInt("KT_CHUNK_OVERLAP", 100),
			SearchContextSize: getEnvAsInt("KT_SEARCH_CONTEXT_SIZE", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
