package app

import (
	"strings"
	"time"

	"github.com/yungbote/advisor-backend/internal/data/db"
	"github.com/yungbote/advisor-backend/internal/platform/envutil"
	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/platform/ratelimit"
	"github.com/yungbote/advisor-backend/internal/platform/redisdb"
)

type Config struct {
	Port           string
	ServiceName    string
	ServiceVersion string
	Environment    string

	JWTSecretKey string
	JWTIssuer    string

	DB    db.Config
	Redis redisdb.Config

	LLM            llm.Config
	LLMCredentials []llm.Credential

	FingerprintTTL time.Duration
	ChatRateLimit  ratelimit.Config
	AllowedOrigins []string

	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	provider := envutil.String("LLM_PROVIDER", llm.ProviderGemini)
	model := envutil.String("LLM_MODEL", "")
	models := map[string]string{}
	if model != "" {
		models[strings.ToLower(provider)] = model
	}

	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		ServiceName:    envutil.String("SERVICE_NAME", "advisor"),
		ServiceVersion: envutil.String("SERVICE_VERSION", "dev"),
		Environment:    envutil.String("ENVIRONMENT", "development"),

		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		JWTIssuer:    envutil.String("JWT_ISSUER", "advisor"),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", "postgres"),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "advisor"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:       envutil.String("SQLITE_PATH", "advisor.db"),
		},
		Redis: redisdb.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},

		LLM: llm.Config{
			DefaultProvider: provider,
			Models:          models,
			BaseURL:         envutil.String("OPENAI_BASE_URL", ""),
			Timeout:         envutil.Seconds("LLM_TIMEOUT_SECONDS", 60*time.Second),
			Temperature:     envutil.Float("LLM_TEMPERATURE", 0.7),
			MaxTokens:       envutil.Int("LLM_MAX_TOKENS", 2048),
		},
		LLMCredentials: llm.ParseCredentials(credentialEntries(), provider),

		FingerprintTTL: envutil.Seconds("FINGERPRINT_TTL_SECONDS", 24*time.Hour),
		ChatRateLimit: ratelimit.Config{
			Limit:  envutil.Int("CHAT_RATE_LIMIT", ratelimit.DefaultChat.Limit),
			Window: envutil.Seconds("CHAT_RATE_WINDOW_SECONDS", ratelimit.DefaultChat.Window),
			Block:  envutil.Seconds("CHAT_RATE_BLOCK_SECONDS", ratelimit.DefaultChat.Block),
		},
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS"),

		MetricsAddr: envutil.String("METRICS_ADDR", ":9090"),
	}

	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY is not set; every authenticated request will be rejected")
	}
	if len(cfg.LLMCredentials) == 0 {
		log.Warn("no LLM credentials configured; chat replies will report a configuration error")
	}
	return cfg
}

// credentialEntries merges LLM_API_KEYS with the Gemini-specific variables.
// Entries may carry a provider prefix ("openai:sk-...").
func credentialEntries() []string {
	entries := envutil.List("LLM_API_KEYS")
	for _, k := range envutil.List("GEMINI_API_KEYS") {
		entries = append(entries, llm.ProviderGemini+":"+k)
	}
	if k := envutil.String("GEMINI_API_KEY", ""); k != "" {
		entries = append(entries, llm.ProviderGemini+":"+k)
	}
	return entries
}
