package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Ai       AIConfig
	Pipeline PipelineConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	IngestTopic        string
	ChatRateLimit      int // chat requests per user per minute, 0 disables
	SessionTimeout     time.Duration
}

type DatabaseConfig struct {
	Connection string
}

type RedisConfig struct {
	URL        string
	MessageTTL time.Duration
}

// AIConfig carries provider defaults and backend credentials. Credentials
// have no fallback values; the LLM factory reports them missing on first use.
type AIConfig struct {
	EmbeddingProvider  string // "gemini" or "ollama"
	ReasoningProvider  string
	GenerationProvider string

	GoogleAPIKey         string
	GoogleBaseURL        string
	GoogleChatModel      string
	GoogleEmbeddingModel string

	QwenAPIKey          string
	QwenAPIBase         string
	QwenModel           string
	QwenReasoningModel  string
	QwenGenerationModel string

	OllamaBaseURL        string
	OllamaModel          string
	OllamaEmbeddingModel string

	Reasoning  PurposeConfig
	Generation PurposeConfig

	OverrideBackend string // "redis" or "memory"
	OverrideTTL     time.Duration
}

// PurposeConfig holds sampling settings for one model purpose.
type PurposeConfig struct {
	Temperature     float64
	MaxOutputTokens int
}

type PipelineConfig struct {
	DefinitionPath string
	RetrievalTopK  int
	HistoryLimit   int
	HistoryBackend string // "redis" or "memory"
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8501"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			IngestTopic:        getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
			ChatRateLimit:      getEnvAsInt("CHAT_RATE_LIMIT", 60),
			SessionTimeout:     getEnvAsSeconds("SESSION_TIMEOUT", 300),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Redis: RedisConfig{
			URL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			MessageTTL: getEnvAsSeconds("REDIS_MESSAGE_TTL", 86400),
		},
		Ai: AIConfig{
			EmbeddingProvider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", "gemini")),
			ReasoningProvider:  strings.ToLower(getEnv("REASONING_PROVIDER", "gemini")),
			GenerationProvider: strings.ToLower(getEnv("GENERATION_PROVIDER", "gemini")),

			GoogleAPIKey:         getEnv("GOOGLE_API_KEY", ""),
			GoogleBaseURL:        getEnv("GOOGLE_API_BASE", ""),
			GoogleChatModel:      getEnv("GOOGLE_CHAT_MODEL", "gemini-1.5-pro"),
			GoogleEmbeddingModel: getEnv("GOOGLE_EMBEDDING_MODEL", "text-embedding-004"),

			QwenAPIKey:          getEnv("QWEN_API_KEY", ""),
			QwenAPIBase:         getEnv("QWEN_API_BASE", ""),
			QwenModel:           getEnv("QWEN_MODEL_NAME", "qwen2.5-72b-instruct"),
			QwenReasoningModel:  getEnv("QWEN_REASONING_MODEL", ""),
			QwenGenerationModel: getEnv("QWEN_GENERATION_MODEL", ""),

			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:          getEnv("LLM_MODEL", "llama3"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),

			Reasoning: PurposeConfig{
				Temperature:     getEnvAsFloat("REASONING_TEMPERATURE", 0.7),
				MaxOutputTokens: getEnvAsInt("REASONING_MAX_OUTPUT_TOKENS", 2048),
			},
			Generation: PurposeConfig{
				Temperature:     getEnvAsFloat("GENERATION_TEMPERATURE", 0.7),
				MaxOutputTokens: getEnvAsInt("GENERATION_MAX_OUTPUT_TOKENS", 2048),
			},

			OverrideBackend: strings.ToLower(getEnv("OVERRIDE_BACKEND", "redis")),
			OverrideTTL:     getEnvAsSeconds("PROVIDER_OVERRIDE_TTL", 1800),
		},
		Pipeline: PipelineConfig{
			DefinitionPath: getEnv("PIPELINE_CONFIG_PATH", ""),
			RetrievalTopK:  getEnvAsInt("RETRIEVAL_TOP_K", 3),
			HistoryLimit:   getEnvAsInt("HISTORY_LIMIT", 50),
			HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", "redis")),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "rag-chat-backend"),
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

// getEnvAsSeconds reads a whole number of seconds.
func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
