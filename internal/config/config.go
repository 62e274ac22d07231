package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	RabbitMQ   RabbitMQConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
	SSEExpiration    time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string
	Version        string
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// RabbitMQConfig holds the event bus settings. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type AttendanceConfig struct {
	StandardWorkday           time.Duration
	MaxDuration               time.Duration
	EditableShiftCap          time.Duration
	DefaultGracePeriodMinutes int
	EarlyArrivalThreshold     time.Duration
	AbsenceThreshold          time.Duration
	AbsentEligibilityHour     int

	DefaultTimezone     string
	TimezoneCacheTTL    time.Duration
	LateArrivalInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using environment", "error", err)
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	p := &parser{}
	defaults := timeclock.DefaultPolicy()

	config := &Config{}

	config.App = AppConfig{
		Name:           getEnv("APP_NAME", "attendance-backend"),
		Version:        getEnv("APP_VERSION", "dev"),
		Port:           p.int("APP_PORT", 8080),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// Database configuration
	config.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            p.int("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "attendance"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxConns:        int32(p.int("DB_MAX_CONNS", 25)),
		MinConns:        int32(p.int("DB_MIN_CONNS", 5)),
		MaxConnLifetime: p.duration("DB_MAX_CONN_LIFETIME", time.Hour),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: p.duration("JWT_ACCESS_EXPIRATION_TIME", time.Hour),
		SSEExpiration:    p.duration("JWT_SSE_EXPIRATION_TIME", 5*time.Minute),
	}

	config.RabbitMQ = RabbitMQConfig{
		URL:      getEnv("RABBITMQ_URL", ""),
		Exchange: getEnv("RABBITMQ_EXCHANGE", "attendance.events"),
	}

	config.Attendance = AttendanceConfig{
		StandardWorkday:           p.duration("ATTENDANCE_STANDARD_WORKDAY", defaults.StandardWorkday),
		MaxDuration:               p.duration("ATTENDANCE_MAX_DURATION", defaults.MaxDuration),
		EditableShiftCap:          p.duration("ATTENDANCE_EDITABLE_SHIFT_CAP", defaults.EditableShiftCap),
		DefaultGracePeriodMinutes: p.int("ATTENDANCE_DEFAULT_GRACE_MINUTES", defaults.DefaultGracePeriodMinutes),
		EarlyArrivalThreshold:     p.duration("ATTENDANCE_EARLY_ARRIVAL_THRESHOLD", defaults.EarlyArrivalThreshold),
		AbsenceThreshold:          p.duration("ATTENDANCE_ABSENCE_THRESHOLD", defaults.AbsenceThreshold),
		AbsentEligibilityHour:     p.int("ATTENDANCE_ABSENT_ELIGIBILITY_HOUR", defaults.AbsentEligibilityHour),
		DefaultTimezone:           getEnv("ATTENDANCE_DEFAULT_TIMEZONE", "UTC"),
		TimezoneCacheTTL:          p.duration("ATTENDANCE_TIMEZONE_CACHE_TTL", 10*time.Minute),
		LateArrivalInterval:       p.duration("ATTENDANCE_LATE_ARRIVAL_INTERVAL", 5*time.Minute),
	}

	if p.err != nil {
		return nil, p.err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Password == "" {
		errs = append(errs, fmt.Errorf("DB_PASSWORD is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET_KEY is required"))
	}
	if c.JWT.AccessExpiration <= 0 {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive"))
	}
	if !validator.IsValidTimezone(c.Attendance.DefaultTimezone) {
		errs = append(errs, fmt.Errorf("ATTENDANCE_DEFAULT_TIMEZONE %q is not a valid IANA timezone", c.Attendance.DefaultTimezone))
	}
	if c.Attendance.TimezoneCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("ATTENDANCE_TIMEZONE_CACHE_TTL must be positive"))
	}
	if c.Attendance.LateArrivalInterval <= 0 {
		errs = append(errs, fmt.Errorf("ATTENDANCE_LATE_ARRIVAL_INTERVAL must be positive"))
	}
	if err := c.Policy().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy returns the engine thresholds.
func (c *Config) Policy() timeclock.Policy {
	a := c.Attendance
	return timeclock.Policy{
		StandardWorkday:           a.StandardWorkday,
		MaxDuration:               a.MaxDuration,
		EditableShiftCap:          a.EditableShiftCap,
		DefaultGracePeriodMinutes: a.DefaultGracePeriodMinutes,
		EarlyArrivalThreshold:     a.EarlyArrivalThreshold,
		AbsenceThreshold:          a.AbsenceThreshold,
		AbsentEligibilityHour:     a.AbsentEligibilityHour,
	}
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// LogLevel maps LOG_LEVEL onto slog.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parser keeps the first conversion error so Load reports it once.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
