// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data source kinds for the catalog and progress store
const (
	DataSourceSQL    = "sql"
	DataSourceMemory = "memory"
	DataSourceRemote = "remote"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
	DataSource DataSourceConfig
	Badges     BadgesConfig
	Scheduler  SchedulerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// DataSourceConfig selects where courses and learner progress live
type DataSourceConfig struct {
	Kind          string
	RemoteURL     string
	RemoteTimeout time.Duration
	CacheTTL      time.Duration
	CoursesPath   string
}

// BadgesConfig holds badge rule settings
type BadgesConfig struct {
	RulesPath string
}

// SchedulerConfig holds cron expressions of the periodic jobs
type SchedulerConfig struct {
	StreakReminderCron   string
	AchievementSweepCron string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Access token expiry (default: 24 hours)
	cfg.JWT.AccessTokenExpiry, err = durationEnv("JWT_ACCESS_TOKEN_EXPIRY", "24h")
	if err != nil {
		return nil, err
	}

	// Redis configuration (catalog cache and task queue)
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost" // default
	}
	cfg.Redis.Host = redisHost

	cfg.Redis.Port, err = intEnv("REDIS_PORT", "6379")
	if err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional
	cfg.Redis.DB, err = intEnv("REDIS_DB", "0")
	if err != nil {
		return nil, err
	}

	// SMTP configuration (worker)
	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" {
		smtpHost = "localhost" // default
	}
	cfg.SMTP.Host = smtpHost

	cfg.SMTP.Port, err = intEnv("SMTP_PORT", "587")
	if err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME") // optional
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD") // optional

	smtpFrom := os.Getenv("SMTP_FROM")
	if smtpFrom == "" {
		smtpFrom = "noreply@learnhub.local" // default
	}
	cfg.SMTP.From = smtpFrom

	// Data source configuration
	kind := strings.ToLower(os.Getenv("DATA_SOURCE"))
	if kind == "" {
		kind = DataSourceSQL
	}
	switch kind {
	case DataSourceSQL, DataSourceMemory:
	case DataSourceRemote:
		cfg.DataSource.RemoteURL = os.Getenv("REMOTE_BACKEND_URL")
		if cfg.DataSource.RemoteURL == "" {
			return nil, fmt.Errorf("REMOTE_BACKEND_URL is required when DATA_SOURCE=remote")
		}
	default:
		return nil, fmt.Errorf("invalid DATA_SOURCE %q", kind)
	}
	cfg.DataSource.Kind = kind

	cfg.DataSource.RemoteTimeout, err = durationEnv("REMOTE_BACKEND_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	// Catalog file of the memory data source
	cfg.DataSource.CoursesPath = os.Getenv("COURSES_PATH")
	if cfg.DataSource.CoursesPath == "" {
		cfg.DataSource.CoursesPath = "configs/courses.yaml"
	}

	// Zero disables the catalog cache
	cfg.DataSource.CacheTTL, err = durationEnv("CATALOG_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	// Badge rules
	rulesPath := os.Getenv("BADGE_RULES_PATH")
	if rulesPath == "" {
		rulesPath = "configs/badges.yaml"
	}
	cfg.Badges.RulesPath = rulesPath

	// Scheduler configuration
	cfg.Scheduler.StreakReminderCron = os.Getenv("STREAK_REMINDER_CRON")
	if cfg.Scheduler.StreakReminderCron == "" {
		cfg.Scheduler.StreakReminderCron = "0 18 * * *"
	}
	cfg.Scheduler.AchievementSweepCron = os.Getenv("ACHIEVEMENT_SWEEP_CRON")
	if cfg.Scheduler.AchievementSweepCron == "" {
		cfg.Scheduler.AchievementSweepCron = "30 2 * * *"
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the host:port address of Redis
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func parseOrigins(raw string) []string {
	if raw == "" {
		// Default to allow all origins if not specified (for development)
		return []string{"*"}
	}
	origins := strings.Split(raw, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			result = append(result, origin)
		}
	}
	if len(result) == 0 {
		return []string{"*"}
	}
	return result
}

func intEnv(key, def string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		raw = def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key, def string) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		raw = def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
