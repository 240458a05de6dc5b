package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Gateway  GatewayConfig
	Support  SupportConfig
	Retry    RetryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// GatewayConfig describes the messaging gateway integration: the staff
// group that hosts discussion threads and the shared secret used to verify
// webhook deliveries.
type GatewayConfig struct {
	APIBaseURL    string
	APIToken      string
	StaffGroupID  int64
	WebhookSecret string
	BotID         int64
	BotUsername   string
}

// SupportConfig tunes the support flow itself.
type SupportConfig struct {
	BranchTimezone   string
	StaffedHourFrom  int
	StaffedHourTo    int
	RecentOrderLimit int
	MenuPath         string
	StateTTLMinutes  int
	UseRedisState    bool
}

// RetryConfig bounds the persistence retry policy.
type RetryConfig struct {
	Attempts      int
	BaseDelayMSec int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	staffGroupID, err := strconv.ParseInt(getEnv("GATEWAY_STAFF_GROUP_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_STAFF_GROUP_ID: %w", err)
	}
	botID, err := strconv.ParseInt(getEnv("GATEWAY_BOT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_BOT_ID: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-router"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Gateway: GatewayConfig{
			APIBaseURL:    getEnv("GATEWAY_API_BASE_URL", "http://127.0.0.1:8081"),
			APIToken:      os.Getenv("GATEWAY_API_TOKEN"),
			StaffGroupID:  staffGroupID,
			WebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", "dev-secret"),
			BotID:         botID,
			BotUsername:   getEnv("GATEWAY_BOT_USERNAME", ""),
		},
		Support: SupportConfig{
			BranchTimezone:   getEnv("SUPPORT_BRANCH_TIMEZONE", "Asia/Yakutsk"),
			StaffedHourFrom:  getEnvAsInt("SUPPORT_STAFFED_HOUR_FROM", 8),
			StaffedHourTo:    getEnvAsInt("SUPPORT_STAFFED_HOUR_TO", 23),
			RecentOrderLimit: getEnvAsInt("SUPPORT_RECENT_ORDER_LIMIT", 3),
			MenuPath:         getEnv("SUPPORT_MENU_PATH", "menu.yaml"),
			StateTTLMinutes:  getEnvAsInt("SUPPORT_STATE_TTL_MINUTES", 60),
			UseRedisState:    getEnvAsBool("SUPPORT_STATE_USE_REDIS", false),
		},
		Retry: RetryConfig{
			Attempts:      getEnvAsInt("STORAGE_RETRY_ATTEMPTS", 3),
			BaseDelayMSec: getEnvAsInt("STORAGE_RETRY_BASE_DELAY_MS", 100),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// StateTTL returns how long abandoned intake state is kept.
func (s SupportConfig) StateTTL() time.Duration {
	if s.StateTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.StateTTLMinutes) * time.Minute
}

// BaseDelay returns the base backoff delay; attempt N waits N times this.
func (r RetryConfig) BaseDelay() time.Duration {
	if r.BaseDelayMSec <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(r.BaseDelayMSec) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
