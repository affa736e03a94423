package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"interview-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	OracleProvider string
	OracleModel    string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	OracleTimeout  time.Duration
	ScoringMode    string

	PersistBackend   string
	DatabaseURL      string
	DBMaxOpenConns   int
	RedisURL         string
	AutosaveInterval time.Duration
	SweepInterval    time.Duration

	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		OracleProvider: normalizeProvider(getEnv("ORACLE_PROVIDER", "gemini")),
		OracleModel:    getEnv("ORACLE_MODEL", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OracleTimeout:  getDuration("ORACLE_TIMEOUT", 45*time.Second),
		ScoringMode:    getEnv("SCORING_MODE", "per_answer"),

		PersistBackend:   normalizeBackend(getEnv("PERSIST_BACKEND", "object")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:   getInt("DB_MAX_OPEN_CONNS", 4),
		RedisURL:         os.Getenv("REDIS_URL"),
		AutosaveInterval: getDuration("AUTOSAVE_INTERVAL", 5*time.Second),
		SweepInterval:    getDuration("SWEEP_INTERVAL", time.Second),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 20),
	}

	if env == "production" {
		switch {
		case cfg.PersistBackend == "postgres" && cfg.DatabaseURL == "":
			telemetry.Warn("config.missing", map[string]any{"key": "DATABASE_URL"})
		case cfg.PersistBackend == "redis" && cfg.RedisURL == "":
			telemetry.Warn("config.missing", map[string]any{"key": "REDIS_URL"})
		}
	}
	return cfg
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	telemetry.Warn("config.invalid", map[string]any{"key": key, "value": raw})
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
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
	case "gemini", "google":
		return "gemini"
	case "openai":
		return "openai"
	default:
		return "none"
	}
}

func normalizeBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "redis":
		return "redis"
	case "memory":
		return "memory"
	default:
		return "object"
	}
}
