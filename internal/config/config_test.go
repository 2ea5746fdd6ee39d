package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"HTTP_ADDR", "LOG_ENV", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "RECEIPT_SECRET",
	"ADMIN_PASSWORD", "VERIFY_PROVIDER", "VERIFY_REQUIRED", "VERIFY_COOLDOWN", "VERIFY_STATIC_CODE",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_VERIFY_SERVICE_SID", "NATS_URL",
	"STAN_CLUSTER_ID", "STAN_CLIENT_ID", "STAN_SUBJECT", "DELIVERY_TABLE_PATH", "CLIPBOARD_ENABLED",
	"DEFAULT_COUNTRY_CODE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "development", c.LogEnv)
	assert.Equal(t, ProviderNone, c.VerifyProvider)
	assert.Equal(t, 120*time.Second, c.VerifyCooldown)
	assert.Equal(t, "971", c.DefaultCountryCode)
	assert.Equal(t, "receipts", c.NATS.Subject)
	assert.False(t, c.NATS.Enabled())
	assert.False(t, c.ClipboardEnabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VERIFY_PROVIDER", "static")
	t.Setenv("VERIFY_STATIC_CODE", "123456")
	t.Setenv("VERIFY_REQUIRED", "true")
	t.Setenv("VERIFY_COOLDOWN", "30s")
	t.Setenv("CLIPBOARD_ENABLED", "1")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, c.VerifyRequired)
	assert.Equal(t, 30*time.Second, c.VerifyCooldown)
	assert.True(t, c.ClipboardEnabled)
	assert.True(t, c.NATS.Enabled())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad bool":                  {"VERIFY_REQUIRED": "maybe"},
		"bad duration":              {"VERIFY_COOLDOWN": "soon"},
		"negative cooldown":         {"VERIFY_COOLDOWN": "-1s"},
		"unknown provider":          {"VERIFY_PROVIDER": "carrier-pigeon"},
		"static without code":       {"VERIFY_PROVIDER": "static"},
		"twilio without sid":        {"VERIFY_PROVIDER": "twilio", "TWILIO_AUTH_TOKEN": "x"},
		"required without provider": {"VERIFY_REQUIRED": "true"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even empty ones.
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9090\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HTTP_ADDR") })

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.HTTPAddr)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
