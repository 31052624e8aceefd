package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BACKEND_PORT", "APP_ENV", "NODE_ENV", "CORS_ORIGIN",
		"LM_STUDIO_URL", "LLM_MODEL_NAME", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "LLM_TIMEOUT_MS",
		"LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Development())
	assert.Equal(t, "http://localhost:3000", cfg.Server.CORSOrigin)
	assert.Equal(t, "http://127.0.0.1:1234", cfg.LLM.BaseURL)
	assert.Equal(t, "local-model", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_PORT", "5001")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LM_STUDIO_URL", "http://llm.local:9000/")
	t.Setenv("LLM_MODEL_NAME", "qwen2.5-7b")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_MAX_TOKENS", "128")
	t.Setenv("LLM_TIMEOUT_MS", "1500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5001", cfg.Server.Addr)
	assert.False(t, cfg.Server.Development())
	assert.Equal(t, "http://llm.local:9000", cfg.LLM.BaseURL)
	assert.Equal(t, "qwen2.5-7b", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 128, cfg.LLM.MaxTokens)
	assert.Equal(t, 1500*time.Millisecond, cfg.LLM.Timeout)
}

func TestLoadFallsBackToNodeEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NODE_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Server.Env)
}

func TestLoadRejectsInvalidNumbers(t *testing.T) {
	for key, value := range map[string]string{
		"LLM_TEMPERATURE": "warm",
		"LLM_MAX_TOKENS":  "lots",
		"LLM_TIMEOUT_MS":  "-1",
		"BACKEND_PORT":    "50 00",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestParseAddr(t *testing.T) {
	addr, err := ParseAddr("127.0.0.1:8080")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", addr)

	addr, err = ParseAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	_, err = ParseAddr("")
	require.Error(t, err)
}

func TestLoadKeepsZeroTemperature(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"0", 0},
		{"0.0", 0},
		{" 0 ", 0},
		{"", DefaultLLMTemperature},
		{"1.2", 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LLM_TEMPERATURE", tt.raw)

			cfg, err := Load()
			require.NoError(t, err)
			assert.InDelta(t, tt.want, cfg.LLM.Temperature, 1e-9)
		})
	}
}
