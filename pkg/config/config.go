package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port     string
		GRPCPort string
		Env      string
		Timeout  time.Duration
		BaseURL  string
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration

		ConnectRetries int
		ConnectDelay   time.Duration
	}

	// JWT configuration
	JWT struct {
		Secret      string
		ExpiryHours time.Duration
		CookieName  string
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// OpenAI completion provider
	OpenAI struct {
		APIKey       string
		BaseURL      string
		DefaultModel string
		Timeout      time.Duration
		MaxTokens    int64
		Temperature  float64
		// BreakerThreshold consecutive provider failures open the circuit; 0 disables it
		BreakerThreshold int
		BreakerCooldown  time.Duration
	}

	// Quota and entitlement settings
	Quota struct {
		Backend         string
		FreeDaily       int
		PremiumDaily    int
		PremiumPlanIDs  []string
		Timezone        string
		Strict          bool
		HistoryLimit    int
		TitleMaxLength  int
		FeatureKey      string
		ActiveStatus    string
		FallbackMessage string
	}

	// Redis settings
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Vault settings
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		Namespace   string
		SecretsPath string
	}

	// Observability settings
	Observability struct {
		ServiceName    string
		TracingEnabled bool
		HealthSchedule string
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load builds a fresh Config from the current environment without touching the singleton.
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.GRPCPort = getEnvString("GRPC_PORT", "")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 90*time.Second)
	cfg.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.Server.Port)

	// Database config
	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "membership")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)
	cfg.Database.ConnectRetries = getEnvInt("DB_CONNECT_RETRIES", 5)
	cfg.Database.ConnectDelay = getEnvDuration("DB_CONNECT_DELAY", 5*time.Second)

	// JWT config
	cfg.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
	cfg.JWT.ExpiryHours = getEnvDuration("JWT_EXPIRY", 24*time.Hour)
	cfg.JWT.CookieName = getEnvString("SESSION_COOKIE_NAME", "session")

	// Security config
	cfg.Security.RateLimit = getEnvFloat("RATE_LIMIT", 2)
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 5)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// OpenAI config
	cfg.OpenAI.APIKey = getEnvString("OPENAI_API_KEY", "")
	cfg.OpenAI.BaseURL = getEnvString("OPENAI_BASE_URL", "")
	cfg.OpenAI.DefaultModel = getEnvString("OPENAI_DEFAULT_MODEL", "gpt-4o-mini")
	cfg.OpenAI.Timeout = getEnvDuration("OPENAI_TIMEOUT", 60*time.Second)
	cfg.OpenAI.MaxTokens = getEnvInt64("OPENAI_MAX_TOKENS", 1000)
	cfg.OpenAI.Temperature = getEnvFloat("OPENAI_TEMPERATURE", 0.7)
	cfg.OpenAI.BreakerThreshold = getEnvInt("OPENAI_BREAKER_THRESHOLD", 0)
	cfg.OpenAI.BreakerCooldown = getEnvDuration("OPENAI_BREAKER_COOLDOWN", 30*time.Second)

	// Quota config
	cfg.Quota.Backend = getEnvString("QUOTA_BACKEND", "postgres")
	cfg.Quota.FreeDaily = getEnvInt("QUOTA_FREE_DAILY", 8)
	cfg.Quota.PremiumDaily = getEnvInt("QUOTA_PREMIUM_DAILY", 20)
	cfg.Quota.PremiumPlanIDs = getEnvStringSlice("PREMIUM_PLAN_IDS", []string{"premium"})
	cfg.Quota.Timezone = getEnvString("QUOTA_TIMEZONE", "Local")
	cfg.Quota.Strict = getEnvBool("QUOTA_STRICT", false)
	cfg.Quota.HistoryLimit = getEnvInt("CHAT_HISTORY_LIMIT", 20)
	cfg.Quota.TitleMaxLength = getEnvInt("CHAT_TITLE_MAX_LENGTH", 50)
	cfg.Quota.FeatureKey = getEnvString("QUOTA_FEATURE_KEY", "ai_chat_interactions")
	cfg.Quota.ActiveStatus = getEnvString("SUBSCRIPTION_ACTIVE_STATUS", "active")
	cfg.Quota.FallbackMessage = getEnvString("CHAT_FALLBACK_MESSAGE", "Sorry, I couldn't generate a response. Please try again.")

	// Redis config
	cfg.Redis.Addr = getEnvString("REDIS_URL", "localhost:6379")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// Vault config
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "membership-platform")

	// Observability config
	cfg.Observability.ServiceName = getEnvString("SERVICE_NAME", "membership-chat")
	cfg.Observability.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Observability.HealthSchedule = getEnvString("HEALTH_CHECK_SCHEDULE", "@every 30s")

	// Cache settings
	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

	return cfg
}

// IsProduction reports whether error details must be withheld from clients.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Location returns the time zone used for quota day boundaries.
func (c *Config) Location() *time.Location {
	if c.Quota.Timezone == "" || c.Quota.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Quota.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
