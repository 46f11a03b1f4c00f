package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for k, v := range values {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"GO_ENV":       "test",
		"DATABASE_URL": "postgresql://localhost:5432/aprovia_test",
	})
	os.Unsetenv("CAKTO_AUTH_STYLE")
	os.Unsetenv("RATE_LIMIT_PER_MINUTE")
	os.Unsetenv("CAKTO_API_URL")
	defer SetConfig(nil)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "params", cfg.CaktoAuthStyle)
	assert.Equal(t, "https://api.cakto.com.br", cfg.CaktoAPIURL)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.True(t, cfg.IsTest())
	assert.Same(t, cfg, GetConfig(), "Load should register the config globally")
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setEnv(t, map[string]string{"GO_ENV": "test", "DATABASE_URL": ""})
	defer SetConfig(nil)

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid params style", Config{DatabaseURL: "x", CaktoAuthStyle: "params", RateLimitPerMinute: 10}, false},
		{"valid header style", Config{DatabaseURL: "x", CaktoAuthStyle: "header", RateLimitPerMinute: 10}, false},
		{"unknown auth style", Config{DatabaseURL: "x", CaktoAuthStyle: "json", RateLimitPerMinute: 10}, true},
		{"zero rate limit", Config{DatabaseURL: "x", CaktoAuthStyle: "params", RateLimitPerMinute: 0}, true},
		{"missing database", Config{CaktoAuthStyle: "params", RateLimitPerMinute: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredentialHelpers(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasCaktoCredentials())
	assert.False(t, cfg.HasAuth0Management())

	cfg.CaktoClientID = "id"
	cfg.CaktoClientSecret = "secret"
	cfg.Auth0Domain = "tenant.auth0.com"
	cfg.Auth0M2MClientID = "m2m"
	cfg.Auth0M2MClientSecret = "m2m-secret"
	assert.True(t, cfg.HasCaktoCredentials())
	assert.True(t, cfg.HasAuth0Management())
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SOME_INT", "42")
	assert.Equal(t, 42, getEnvInt("SOME_INT", 1))

	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 1, getEnvInt("SOME_INT", 1))

	os.Unsetenv("SOME_INT")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
}

func TestGetDBAndLogger(t *testing.T) {
	SetDB(nil)
	assert.Nil(t, GetDB(), "GetDB should return nil when DB is not initialized")

	SetLogger(nil)
	assert.NotNil(t, GetLogger(), "GetLogger should fall back to a no-op logger")
}

func TestInitLogger(t *testing.T) {
	defer SetLogger(nil)

	logger, err := InitLogger(&Config{GoEnv: "test", LogLevel: "debug"})
	require.NoError(t, err)
	assert.Same(t, logger, GetLogger())

	_, err = InitLogger(&Config{LogLevel: "loud"})
	assert.Error(t, err)
}
