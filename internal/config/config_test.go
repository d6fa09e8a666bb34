package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.ProductCacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.CacheTimeout)
	assert.False(t, cfg.ResetDB)
	assert.Equal(t, 5.0, cfg.AuthRateLimit)
	assert.Equal(t, 10, cfg.AuthRateBurst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file::memory:")
	t.Setenv("CACHE_DRIVER", "memory")
	t.Setenv("PRODUCT_CACHE_TTL", "1m")
	t.Setenv("RESET_DB", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file::memory:", cfg.DatabaseDSN)
	assert.Equal(t, "memory", cfg.CacheDriver)
	assert.Equal(t, time.Minute, cfg.ProductCacheTTL)
	assert.True(t, cfg.ResetDB)
}

func TestLoad_DefaultJWTSecret(t *testing.T) {
	for _, env := range []string{"staging", "production"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			t.Setenv("JWT_SECRET", "change-me")
			_, err := Load()
			assert.ErrorContains(t, err, "JWT_SECRET")

			t.Setenv("JWT_SECRET", "a-real-secret")
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, "a-real-secret", cfg.JWTSecret)
		})
	}

	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "change-me")
	_, err := Load()
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown db driver", key: "DB_DRIVER", val: "oracle"},
		{name: "unknown log format", key: "LOG_FORMAT", val: "xml"},
		{name: "s3 without bucket", key: "STORAGE_DRIVER", val: "s3"},
		{name: "refresh shorter than access", key: "REFRESH_TOKEN_TTL", val: "1m"},
		{name: "negative auth rate", key: "AUTH_RATE_LIMIT", val: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
