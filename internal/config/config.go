package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Knowledge KnowledgeConfig
	Session   SessionConfig
	Events    EventsConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	AuditLogPath       string
	FeedLogPath        string
	CorsAllowedOrigins string
	DownloadDir        string
	UploadLimitMB      int
}

type DatabaseConfig struct {
	// Connection is optional; without it the knowledge base is read from
	// Knowledge.File and retrieval runs without reference material.
	Connection string
}

type AIConfig struct {
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	LLMBaseURL        string
	LLMAPIKey         string
	EmbeddingProvider string // "ollama", "openai" or "" to disable retrieval
	EmbeddingModel    string
	EmbeddingBaseURL  string
	PromptFile        string
	MaxAttempts       int
	Concurrency       int
}

type KnowledgeConfig struct {
	File            string
	CommonRulesFile string
	AssetPortalURL  string
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type EventsConfig struct {
	Topic    string
	NatsURL  string
	RedisURL string
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
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogPath:       getEnv("AUDIT_LOG_PATH", "logs/audit.log"),
			FeedLogPath:        getEnv("FEED_LOG_PATH", "logs/feed.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			DownloadDir:        getEnv("DOWNLOAD_DIR", "downloads"),
			UploadLimitMB:      getEnvAsInt("UPLOAD_LIMIT_MB", 20),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			PromptFile:        getEnv("PROMPT_FILE", ""),
			MaxAttempts:       getEnvAsInt("LLM_MAX_ATTEMPTS", 5),
			Concurrency:       getEnvAsInt("ANALYSIS_CONCURRENCY", 4),
		},
		Knowledge: KnowledgeConfig{
			File:            getEnv("KNOWLEDGE_FILE", "data/knowledge.json"),
			CommonRulesFile: getEnv("COMMON_RULES_FILE", ""),
			AssetPortalURL:  getEnv("ASSET_PORTAL_URL", ""),
		},
		Session: SessionConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 30*time.Minute),
		},
		Events: EventsConfig{
			Topic:    getEnv("EVENTS_TOPIC", "clearance.events"),
			NatsURL:  getEnv("NATS_URL", ""),
			RedisURL: getEnv("REDIS_URL", ""),
		},
	}
}

// IsProduction switches the console logger off.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
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

// TracingEnabled mirrors OTEL_ENABLED.
func TracingEnabled() bool {
	return getEnvAsBool("OTEL_ENABLED", false)
}
