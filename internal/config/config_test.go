package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zed38662/Solo-leveling/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SOLOLEVELING_ENVIRONMENT",
		"PORT",
		"COMPLETION_API_KEY",
		"COMPLETION_API_URL",
		"COMPLETION_MODEL",
		"CLOUDSQL_UNIX_SOCKET",
		"DB_USERNAME",
		"DB_PASSWORD",
		"SENTRY_DSN",
		"GCP_PROJECT",
	} {
		t.Setenv(key, "")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("empty environment", func(t *testing.T) {
		clearEnv(t)

		// NOTE: t.Setenv leaves the variable set to the empty string, which is
		// still an invalid value rather than a missing key
		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrInvalidValue)
	})

	t.Run("invalid environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOLOLEVELING_ENVIRONMENT", "prod")

		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrInvalidValue)
	})

	t.Run("development with defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOLOLEVELING_ENVIRONMENT", "development")

		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)

		require.True(t, conf.IsDevelopment())
		require.False(t, conf.IsProduction())
		require.False(t, conf.IsStaging())
		require.Equal(t, "8080", conf.Port())
		require.Equal(t, "https://api.openai.com/v1/chat/completions", conf.CompletionAPIURL())
		require.NotEmpty(t, conf.CompletionModel())
	})

	t.Run("production requires db, sentry and completion key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOLOLEVELING_ENVIRONMENT", "production")

		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrMissingRequiredValue)

		t.Setenv("CLOUDSQL_UNIX_SOCKET", "/cloudsql/instance")
		t.Setenv("DB_USERNAME", "sololeveling")
		t.Setenv("DB_PASSWORD", "hunter2")
		t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")
		t.Setenv("COMPLETION_API_KEY", "sk-test")

		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		require.True(t, conf.IsProduction())
		require.Equal(t, "sk-test", conf.CompletionAPIKey())
	})

	t.Run("overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOLOLEVELING_ENVIRONMENT", "development")
		t.Setenv("PORT", "9000")
		t.Setenv("COMPLETION_API_URL", "http://localhost:11434/v1/chat/completions")
		t.Setenv("COMPLETION_MODEL", "llama3")

		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		require.Equal(t, "9000", conf.Port())
		require.Equal(t, "http://localhost:11434/v1/chat/completions", conf.CompletionAPIURL())
		require.Equal(t, "llama3", conf.CompletionModel())
	})

	t.Run("non-sensitive string does not leak secrets", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOLOLEVELING_ENVIRONMENT", "development")
		t.Setenv("COMPLETION_API_KEY", "sk-secret")
		t.Setenv("DB_PASSWORD", "hunter2")

		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)

		str := conf.NonSensitiveString()
		require.NotContains(t, str, "sk-secret")
		require.NotContains(t, str, "hunter2")
	})
}
