package config_test

import (
	"testing"
	"time"

	"go-payroll/internal/config"
	"go-payroll/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("missing redis url is fatal", func(t *testing.T) {
		t.Setenv("REDIS_URL", "")

		cfg, err := config.Parse()

		assert.Nil(t, cfg)
		assert.True(t, apperror.IsFatalConfig(err))
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")

		cfg, err := config.Parse()
		require.NoError(t, err)

		assert.Equal(t, "5000", cfg.Port)
		assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
		assert.Equal(t, time.Second, cfg.WorkerBackoff)
		assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
		assert.Equal(t, "0 1 * * *", cfg.CronSchedule)
		assert.False(t, cfg.EnableCron)
	})

	t.Run("kafka backend needs broker", func(t *testing.T) {
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("EVENT_BACKEND", "kafka")
		t.Setenv("KAFKA_BROKER", "")

		_, err := config.Parse()

		assert.True(t, apperror.IsFatalConfig(err))
	})

	t.Run("jwt secret is checked on demand", func(t *testing.T) {
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("JWT_SECRET", "")

		cfg, err := config.Parse()
		require.NoError(t, err)

		assert.True(t, apperror.IsFatalConfig(cfg.RequireJWTSecret()))
	})

	t.Run("cors origins", func(t *testing.T) {
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:5173,https://hr.example.com")

		cfg, err := config.Parse()
		require.NoError(t, err)

		assert.Equal(t, []string{"http://localhost:5173", "https://hr.example.com"}, cfg.CORSAllowOrigins)
	})

	t.Run("cors origin without scheme", func(t *testing.T) {
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("CORS_ALLOW_ORIGINS", "localhost:5173")

		_, err := config.Parse()

		assert.True(t, apperror.IsFatalConfig(err))
	})
}
