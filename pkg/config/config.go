package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Restrictions RestrictionsConfig
	Restore      RestoreConfig
	Reports      ReportsConfig
	Calendar     CalendarConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RestrictionsConfig governs the due-date restriction core.
type RestrictionsConfig struct {
	// Timezone is the display calendar location used when decomposing
	// and re-encoding due dates. Empty means the host's local time.
	Timezone string
	// SettingsCacheTTL bounds how long adapter configuration lives in Redis.
	SettingsCacheTTL time.Duration
}

// RestoreConfig gates the restore-event intake endpoint.
type RestoreConfig struct {
	Enabled bool
}

// ReportsConfig tunes the restriction report endpoints.
type ReportsConfig struct {
	Enabled         bool
	DefaultPageSize int
	MaxPageSize     int
	// ExportDir is where archived exports are written; export download
	// tokens stay valid for ExportTTL.
	ExportDir string
	ExportTTL time.Duration
}

// CalendarConfig tunes the deferred calendar-refresh queue.
type CalendarConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Restrictions = RestrictionsConfig{
		Timezone:         v.GetString("RESTRICTIONS_TIMEZONE"),
		SettingsCacheTTL: parseDuration(v.GetString("RESTRICTIONS_SETTINGS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Restore = RestoreConfig{
		Enabled: v.GetBool("ENABLE_RESTORE_EVENTS"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:         v.GetBool("ENABLE_REPORTS"),
		DefaultPageSize: v.GetInt("REPORTS_DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("REPORTS_MAX_PAGE_SIZE"),
		ExportDir:       v.GetString("REPORTS_EXPORT_DIR"),
		ExportTTL:       parseDuration(v.GetString("REPORTS_EXPORT_TTL"), 24*time.Hour),
	}

	cfg.Calendar = CalendarConfig{
		Workers:    v.GetInt("CALENDAR_QUEUE_WORKERS"),
		BufferSize: v.GetInt("CALENDAR_QUEUE_BUFFER"),
		MaxRetries: v.GetInt("CALENDAR_QUEUE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("CALENDAR_QUEUE_RETRY_DELAY"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "submission_restrict")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "submission-restrict-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RESTRICTIONS_TIMEZONE", "")
	v.SetDefault("RESTRICTIONS_SETTINGS_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_RESTORE_EVENTS", true)

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_DEFAULT_PAGE_SIZE", 30)
	v.SetDefault("REPORTS_MAX_PAGE_SIZE", 200)
	v.SetDefault("REPORTS_EXPORT_DIR", "./exports")
	v.SetDefault("REPORTS_EXPORT_TTL", "24h")

	v.SetDefault("CALENDAR_QUEUE_WORKERS", 1)
	v.SetDefault("CALENDAR_QUEUE_BUFFER", 16)
	v.SetDefault("CALENDAR_QUEUE_RETRIES", 3)
	v.SetDefault("CALENDAR_QUEUE_RETRY_DELAY", "5s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
