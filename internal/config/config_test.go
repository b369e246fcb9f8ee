package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "learn")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "learnhub")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	for _, key := range []string{
		"SERVER_PORT", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "JWT_ACCESS_TOKEN_EXPIRY",
		"REDIS_HOST", "REDIS_PORT", "REDIS_DB", "DATA_SOURCE", "CATALOG_CACHE_TTL",
		"BADGE_RULES_PATH", "COURSES_PATH", "STREAK_REMINDER_CRON", "ACHIEVEMENT_SWEEP_CRON",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, DataSourceSQL, cfg.DataSource.Kind)
	assert.Equal(t, 5*time.Minute, cfg.DataSource.CacheTTL)
	assert.Equal(t, "configs/badges.yaml", cfg.Badges.RulesPath)
	assert.Equal(t, "configs/courses.yaml", cfg.DataSource.CoursesPath)
	assert.Equal(t, "0 18 * * *", cfg.Scheduler.StreakReminderCron)
	assert.Equal(t, "learn:secret@tcp(localhost:3306)/learnhub?parseTime=true&charset=utf8mb4&multiStatements=true", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local, ,http://b.local")
	t.Setenv("DATA_SOURCE", "Remote")
	t.Setenv("REMOTE_BACKEND_URL", "http://backend:5000")
	t.Setenv("REMOTE_BACKEND_TIMEOUT", "3s")
	t.Setenv("CATALOG_CACHE_TTL", "0s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, DataSourceRemote, cfg.DataSource.Kind)
	assert.Equal(t, "http://backend:5000", cfg.DataSource.RemoteURL)
	assert.Equal(t, 3*time.Second, cfg.DataSource.RemoteTimeout)
	assert.Equal(t, time.Duration(0), cfg.DataSource.CacheTTL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "missing DB host", key: "DB_HOST", val: ""},
		{name: "bad DB port", key: "DB_PORT", val: "abc"},
		{name: "missing JWT secret", key: "JWT_SECRET", val: ""},
		{name: "bad token expiry", key: "JWT_ACCESS_TOKEN_EXPIRY", val: "soon"},
		{name: "bad redis port", key: "REDIS_PORT", val: "x"},
		{name: "unknown data source", key: "DATA_SOURCE", val: "mongo"},
		{name: "bad cache ttl", key: "CATALOG_CACHE_TTL", val: "5 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_RemoteRequiresURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATA_SOURCE", "remote")
	t.Setenv("REMOTE_BACKEND_URL", "")

	_, err := Load()

	assert.ErrorContains(t, err, "REMOTE_BACKEND_URL")
}
