package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServiceConfig identifies the running service instance.
type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Port    string
}

// LoggingConfig controls the global zerolog level.
type LoggingConfig struct {
	Level string
}

// TracingConfig controls the OTLP trace exporter.
type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

// DatabaseConfig holds the pgx connection string.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds connection settings for the shared fetch cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds token signing and session lifetime settings.
// The private key is read once at startup; an unreadable key is a
// configuration error and aborts the process.
type AuthConfig struct {
	PrivateKeyPath string
	TokenIssuer    string
	TokenTTL       time.Duration
	SessionTTL     time.Duration
	BcryptCost     int
}

// HRConfig describes the downstream HR service used for login enrichment.
// The HR service is treated as unreliable: fetch failures degrade the
// enrichment payload but never the authentication decision.
type HRConfig struct {
	BaseURL     string
	FreshTTL    time.Duration
	MaxRetries  int
	CallTimeout time.Duration
}

// TelegramConfig holds the optional outage-alert notifier settings.
// Both values are injected here; they must never appear as literals in code.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// Config is the full process configuration, loaded once in main.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	HR        HRConfig
	Telegram  TelegramConfig

	ShutdownTimeoutSeconds     int
	ReadinessDrainDelaySeconds int
}

// Load reads configuration from a .env file (if present) and the
// environment. Missing optional values fall back to defaults; required
// values are checked by Validate.
func Load() *Config {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Name:    getEnv("SERVICE_NAME", "auth-gateway"),
			Version: getEnv("SERVICE_VERSION", "dev"),
			Env:     getEnv("SERVICE_ENV", "development"),
			Port:    getEnv("SERVICE_PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("TRACING_ENDPOINT", "localhost:4318"),
			SampleRate: getFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Profiling: ProfilingConfig{
			Enabled:  getBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PROFILING_ENDPOINT", "http://localhost:4040"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			PrivateKeyPath: getEnv("PRIVATE_KEY_PATH", "keys/private.pem"),
			TokenIssuer:    getEnv("TOKEN_ISSUER", "AUTH_SERVICE"),
			TokenTTL:       getDuration("TOKEN_TTL", 10*time.Minute),
			SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour),
			BcryptCost:     getInt("BCRYPT_COST", 12),
		},
		HR: HRConfig{
			BaseURL:     getEnv("HR_SERVICE_URL", ""),
			FreshTTL:    getDuration("HR_CACHE_FRESH_TTL", 5*time.Minute),
			MaxRetries:  getInt("HR_FETCH_RETRIES", 2),
			CallTimeout: getDuration("HR_CALL_TIMEOUT", 5*time.Second),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},
		ShutdownTimeoutSeconds:     getInt("SHUTDOWN_TIMEOUT_SECONDS", 15),
		ReadinessDrainDelaySeconds: getInt("READINESS_DRAIN_DELAY_SECONDS", 0),
	}
}

// Validate checks that required configuration is present. Called once at
// startup; a failure here aborts the process.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.Auth.PrivateKeyPath == "" {
		return fmt.Errorf("PRIVATE_KEY_PATH is required")
	}
	if c.HR.BaseURL == "" {
		return fmt.Errorf("HR_SERVICE_URL is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.HR.MaxRetries < 1 {
		return fmt.Errorf("HR_FETCH_RETRIES must be at least 1")
	}
	return nil
}

// GetShutdownTimeoutDuration returns the graceful shutdown timeout.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// GetReadinessDrainDelayDuration returns how long to keep serving after
// readiness starts failing, so load balancers can drain traffic.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return time.Duration(c.ReadinessDrainDelaySeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
