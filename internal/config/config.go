package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"microwallet/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	AppPort          string
	Version          string
	StorageDriver    string
	DatabaseURL      string
	StatementTimeout time.Duration
	JWTSecret        string
	TokenTTL         time.Duration
	BcryptCost       int
	AllowedOrigin    string
	TrustedProxies   []string
	AdminAPIToken    string
	RequestTimeout   time.Duration

	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Chat completion provider
	OpenRouterAPIKey string
	OpenRouterURL    string
	ChatModel        string
	ChatTimeout      time.Duration
	ChatReferer      string
	ChatTitle        string

	// Rate limits
	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration
	ChatRateLimit  int
	ChatRateWindow time.Duration
}

// Load reads .env (if present) and the environment. Missing secrets are fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// FromEnv builds a Config from the given lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}
	getInt := func(key string, fallback int) int {
		if v := getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
		return fallback
	}
	seconds := func(key string, fallback int) time.Duration {
		return time.Duration(getInt(key, fallback)) * time.Second
	}

	cfg := &Config{
		AppPort:          get("APP_PORT", "8080"),
		Version:          get("APP_VERSION", "dev"),
		StorageDriver:    get("STORAGE_DRIVER", StoragePostgres),
		DatabaseURL:      getenv("DATABASE_URL"),
		StatementTimeout: time.Duration(getInt("DB_STATEMENT_TIMEOUT_MS", 5000)) * time.Millisecond,
		JWTSecret:        getenv("JWT_SECRET"),
		TokenTTL:         time.Duration(getInt("JWT_TTL_HOURS", 168)) * time.Hour,
		BcryptCost:       getInt("BCRYPT_COST", 10),
		AllowedOrigin:    getenv("ALLOWED_ORIGIN"),
		AdminAPIToken:    getenv("ADMIN_API_TOKEN"),
		RequestTimeout:   seconds("REQUEST_TIMEOUT_SECONDS", 45),

		LogLevel: get("LOG_LEVEL", "info"),
		LogJSON:  getenv("LOG_JSON") == "true",

		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),

		OpenRouterAPIKey: getenv("OPENROUTER_API_KEY"),
		OpenRouterURL:    get("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
		ChatModel:        get("CHAT_MODEL", "google/gemini-flash-1.5"),
		ChatTimeout:      seconds("CHAT_TIMEOUT_SECONDS", 30),
		ChatReferer:      get("CHAT_REFERER", "https://microwallet.app"),
		ChatTitle:        get("CHAT_TITLE", "Protege"),

		APIRateLimit:   getInt("API_RATE_LIMIT", 60),
		APIRateWindow:  seconds("API_RATE_WINDOW_SECONDS", 60),
		AuthRateLimit:  getInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow: seconds("AUTH_RATE_WINDOW_SECONDS", 60),
		ChatRateLimit:  getInt("CHAT_RATE_LIMIT", 20),
		ChatRateWindow: seconds("CHAT_RATE_WINDOW_SECONDS", 60),
	}

	cfg.TrustedProxies = splitList(getenv("TRUSTED_PROXIES"))

	// REDIS_DB=0 is valid, so it does not go through getInt
	if v := getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is not set")
		}
	case StorageMemory:
	default:
		return nil, errors.New("STORAGE_DRIVER must be postgres or memory")
	}

	return cfg, nil
}

// splitList parses a comma separated list, skipping blanks. An empty input
// yields nil.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
