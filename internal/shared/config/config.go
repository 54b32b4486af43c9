package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider   string
	LLMBaseURL    string
	LLMAPIKey     string
	LLMModel      string
	LLMTimeout    time.Duration
	ParseModel    string
	AnalysisModel string

	QueueBackend string
	SQSQueueURL  string
	AMQPURL      string
	AMQPQueue    string

	RedisAddr string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience. Existing
	// environment variables are never overridden.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "deepseek"))
	model := getEnv("LLM_MODEL", defaultModel(provider))

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		LLMProvider:   provider,
		LLMBaseURL:    getEnv("LLM_BASE_URL", defaultBaseURL(provider)),
		LLMAPIKey:     providerAPIKey(provider),
		LLMModel:      model,
		LLMTimeout:    getEnvDuration("LLM_TIMEOUT_SECONDS", 120*time.Second),
		ParseModel:    getEnv("LLM_PARSE_MODEL", model),
		AnalysisModel: getEnv("LLM_ANALYSIS_MODEL", model),

		QueueBackend: normalizeQueueBackend(getEnv("ANALYSIS_QUEUE_BACKEND", "")),
		SQSQueueURL:  getEnv("ANALYSIS_SQS_QUEUE_URL", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPQueue:    getEnv("AMQP_QUEUE", "analysis_jobs"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", "http://localhost:3000"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		log.Printf("config: %s invalid, using default %s", key, def)
		return def
	}
	return time.Duration(seconds) * time.Second
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "deepseek":
		return "deepseek"
	case "none", "placeholder":
		return "placeholder"
	default:
		return "deepseek"
	}
}

func normalizeQueueBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	case "amqp":
		return "amqp"
	default:
		return ""
	}
}

// defaultBaseURL returns the chat completions endpoint for providers that
// speak the OpenAI wire format at a different host.
func defaultBaseURL(provider string) string {
	if provider == "deepseek" {
		return "https://api.deepseek.com/v1"
	}
	return ""
}

func defaultModel(provider string) string {
	if provider == "deepseek" {
		return "deepseek-chat"
	}
	return "gpt-4o-mini"
}

func providerAPIKey(provider string) string {
	switch provider {
	case "deepseek":
		return os.Getenv("DEEPSEEK_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}
