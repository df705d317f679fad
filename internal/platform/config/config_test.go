package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET_KEY", "refresh-secret")
	t.Setenv("SESSION_SECRET", "session-secret")
}

// TestLoad_Defaults は必須項目のみ設定した場合にデフォルト値が適用されることを検証します。
func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "http://localhost:5173", cfg.CORSOrigin)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 60*time.Second, cfg.DB.ConnectWithin)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "/dashboard", cfg.OAuth.SuccessRedirect)
	assert.Equal(t, "/signin", cfg.OAuth.FailureRedirect)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.RedisEnabled())
}

// TestLoad_Overrides は環境変数による上書きとAPIキーのカンマ区切り解析を検証します。
func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("GOOGLE_API_KEYS", "key-a, key-b,,key-c")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, cfg.Gemini.APIKeys)
	assert.Equal(t, 2525, cfg.SMTP.Port)
}

// TestLoad_MissingSecret は必須のシークレットが欠けている場合にエラーとなることを検証します。
func TestLoad_MissingSecret(t *testing.T) {
	// t.Setenv で復元を登録してから未設定にする
	t.Setenv("JWT_SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET_KEY"))
	t.Setenv("JWT_REFRESH_SECRET_KEY", "refresh-secret")
	t.Setenv("SESSION_SECRET", "session-secret")

	_, err := Load()
	assert.Error(t, err)
}
