package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	SMTP         SMTPConfig
	Ai           AIConfig
	Conversation ConversationConfig
	Auth         AuthConfig
	Analytics    AnalyticsConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host            string
	Port            int
	Email           string
	Password        string
	SenderName      string
	EscalationInbox string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	EmbeddingBaseURL  string
	EmbeddingModel    string
	EmbeddingAPIKey   string
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string // e.g. "llama3", "qwen2.5"
	LLMBaseURL        string
	LLMAPIKey         string
	Temperature       float64
}

// ConversationConfig carries the dialogue pipeline knobs. Defaults mirror
// flow.DefaultConfig; env vars exist so operators can tune without a deploy.
type ConversationConfig struct {
	IssueConfidenceThreshold  float64
	CaseConfidenceThreshold   float64
	SimilarityThreshold       float64
	MaxClassificationAttempts int
	MaxQuestionsPerCase       int
	MaxConversationTurns      int
	EscalateAfterErrors       int
	ClassifyTopK              int
	NarrowTopK                int
	TurnTimeout               time.Duration
	QuestionStrategy          string
}

type AuthConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	SeedAdminEmail string
	SeedAdminPass  string
}

type AnalyticsConfig struct {
	// Sessions idle longer than this are treated as ended.
	SessionIdleWindow time.Duration
	// How often the aggregation job sweeps for stale sessions.
	SweepInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:            getEnv("SMTP_HOST", ""),
			Port:            getEnvAsInt("SMTP_PORT", 587),
			Email:           getEnv("SMTP_EMAIL", ""),
			Password:        getEnv("SMTP_PASSWORD", ""),
			SenderName:      getEnv("SMTP_SENDER_NAME", "VoC Support"),
			EscalationInbox: getEnv("SMTP_ESCALATION_INBOX", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		},
		Conversation: ConversationConfig{
			IssueConfidenceThreshold:  getEnvAsFloat("ISSUE_CONFIDENCE_THRESHOLD", 0.7),
			CaseConfidenceThreshold:   getEnvAsFloat("CASE_CONFIDENCE_THRESHOLD", 0.6),
			SimilarityThreshold:       getEnvAsFloat("SIMILARITY_THRESHOLD", 0.3),
			MaxClassificationAttempts: getEnvAsInt("MAX_CLASSIFICATION_ATTEMPTS", 3),
			MaxQuestionsPerCase:       getEnvAsInt("MAX_QUESTIONS_PER_CASE", 4),
			MaxConversationTurns:      getEnvAsInt("MAX_CONVERSATION_TURNS", 10),
			EscalateAfterErrors:       getEnvAsInt("ESCALATE_AFTER_ERRORS", 3),
			ClassifyTopK:              getEnvAsInt("CLASSIFY_TOP_K", 5),
			NarrowTopK:                getEnvAsInt("NARROW_TOP_K", 5),
			TurnTimeout:               getEnvAsDuration("TURN_TIMEOUT", 60*time.Second),
			QuestionStrategy:          getEnv("QUESTION_STRATEGY", "progressive"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			TokenTTL:       getEnvAsDuration("JWT_TOKEN_TTL", 24*time.Hour),
			SeedAdminEmail: getEnv("SEED_ADMIN_EMAIL", ""),
			SeedAdminPass:  getEnv("SEED_ADMIN_PASSWORD", ""),
		},
		Analytics: AnalyticsConfig{
			SessionIdleWindow: getEnvAsDuration("SESSION_IDLE_WINDOW", 15*time.Minute),
			SweepInterval:     getEnvAsDuration("ANALYTICS_SWEEP_INTERVAL", 5*time.Minute),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
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
