package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	Env                string
	DatabaseURL        string
	ServiceDatabaseURL string
	JWTSecret          string
	LLMModel           string
	LLMAPIKey          string
	LLMBaseURL         string
	LLMTimeout         time.Duration
	LLMReferer         string
	LLMTitle           string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	PublicBaseURL      string
	RedisURL           string
	VocabularyCacheTTL time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() Config {
	v := newViper()
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(v, "cmd/.env", ".env")

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:               v.GetString("PORT"),
		CORSAllowOrigin:    splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		Env:                env,
		DatabaseURL:        dbURL,
		ServiceDatabaseURL: strings.TrimSpace(v.GetString("SERVICE_DATABASE_URL")),
		JWTSecret:          v.GetString("JWT_SECRET"),
		LLMModel:           strings.TrimSpace(v.GetString("LLM_MODEL")),
		LLMAPIKey:          strings.TrimSpace(v.GetString("OPENROUTER_API_KEY")),
		LLMBaseURL:         v.GetString("LLM_BASE_URL"),
		LLMTimeout:         secondsOrDefault(v.GetInt("LLM_TIMEOUT_SECONDS"), 120),
		LLMReferer:         v.GetString("LLM_REFERER"),
		LLMTitle:           v.GetString("LLM_TITLE"),
		ObjectStoreType:    normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:      v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:          v.GetString("AWS_REGION"),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Prefix:           v.GetString("S3_PREFIX"),
		PublicBaseURL:      strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		RedisURL:           strings.TrimSpace(v.GetString("REDIS_URL")),
		VocabularyCacheTTL: v.GetDuration("VOCABULARY_CACHE_TTL"),
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("LLM_TIMEOUT_SECONDS", 120)
	v.SetDefault("LLM_TITLE", "Recruit Backend")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("VOCABULARY_CACHE_TTL", "5m")
	v.AutomaticEnv()
	return v
}

// IsDevLike reports whether env allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func secondsOrDefault(seconds, def int) time.Duration {
	if seconds <= 0 {
		seconds = def
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
