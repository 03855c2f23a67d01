package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SANDBOX_TIMEOUT", "")
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.APIPort)
	assert.Equal(t, []byte("s3cret"), cfg.JWTKey)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 72*time.Hour, cfg.JWTExp)
	assert.Equal(t, 30*time.Second, cfg.SandboxTimeout)
	assert.Contains(t, cfg.DBConnStr, "sslmode=disable")
}

func TestLoadSandboxTimeoutFormats(t *testing.T) {
	t.Setenv("SANDBOX_TIMEOUT", "45s")
	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.SandboxTimeout)

	t.Setenv("SANDBOX_TIMEOUT", "7")
	cfg, err = Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.SandboxTimeout)
}

func TestValidateReportsMissingKeys(t *testing.T) {
	cfg := &Config{SandboxTimeout: time.Second}
	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{"JWT_SECRET", "SANDBOX_URL_PYTHON", "SANDBOX_URL_GO", "SANDBOX_API_KEY"} {
		assert.Contains(t, err.Error(), key)
	}

	cfg = &Config{
		JWTKey:           []byte("k"),
		SandboxURLPython: "http://py",
		SandboxURLGo:     "http://go",
		SandboxAPIKey:    "key",
		SandboxTimeout:   time.Second,
	}
	assert.NoError(t, cfg.Validate())

	cfg.SandboxTimeout = 0
	assert.Error(t, cfg.Validate())
}
