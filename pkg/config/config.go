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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	Reporting  ReportingConfig
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
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig tunes the recording engine.
type AttendanceConfig struct {
	// TokenTTL is the default lifetime of an issued check-in token.
	TokenTTL time.Duration
	// GraceWindow is how long after period start a scan still counts as present.
	GraceWindow time.Duration
	// ClosedWeekday is the weekday on which attendance cannot be recorded.
	ClosedWeekday time.Weekday
	// SlotStarts are the period start times (HH:MM) that make up a school day,
	// in order. The slot vector has exactly one entry per start time.
	SlotStarts []string
	// BulkMaxItems caps a single bulk request.
	BulkMaxItems int
}

// ReportingConfig governs cache behaviour for slot vectors and summaries.
type ReportingConfig struct {
	CacheEnabled bool
	SlotCacheTTL time.Duration
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
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	closed := v.GetInt("ATTENDANCE_CLOSED_WEEKDAY")
	if closed < 0 || closed > 6 {
		closed = int(time.Sunday)
	}
	bulkMax := v.GetInt("ATTENDANCE_BULK_MAX_ITEMS")
	if bulkMax <= 0 {
		bulkMax = 200
	}
	cfg.Attendance = AttendanceConfig{
		TokenTTL:      parseDuration(v.GetString("ATTENDANCE_TOKEN_TTL"), 5*time.Minute),
		GraceWindow:   parseDuration(v.GetString("ATTENDANCE_GRACE_WINDOW"), 15*time.Minute),
		ClosedWeekday: time.Weekday(closed),
		SlotStarts:    splitAndTrim(v.GetString("ATTENDANCE_SLOT_STARTS")),
		BulkMaxItems:  bulkMax,
	}

	cfg.Reporting = ReportingConfig{
		CacheEnabled: v.GetBool("REPORTING_CACHE_ENABLED"),
		SlotCacheTTL: parseDuration(v.GetString("REPORTING_SLOT_CACHE_TTL"), 2*time.Minute),
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
	v.SetDefault("DB_NAME", "presensi_sma")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_TOKEN_TTL", "5m")
	v.SetDefault("ATTENDANCE_GRACE_WINDOW", "15m")
	v.SetDefault("ATTENDANCE_CLOSED_WEEKDAY", int(time.Sunday))
	v.SetDefault("ATTENDANCE_SLOT_STARTS", "07:00,08:00,09:00,10:00,11:00,13:00,14:00,15:00")
	v.SetDefault("ATTENDANCE_BULK_MAX_ITEMS", 200)

	v.SetDefault("REPORTING_CACHE_ENABLED", false)
	v.SetDefault("REPORTING_SLOT_CACHE_TTL", "2m")
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
