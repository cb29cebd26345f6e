package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STUDYWISE_DB", "STUDYWISE_DATA_DIR", "STUDYWISE_LLM_PROVIDER",
		"STUDYWISE_GEMINI_API_KEY", "STUDYWISE_GEMINI_MODEL",
		"STUDYWISE_OPENAI_API_KEY", "STUDYWISE_OPENAI_MODEL", "STUDYWISE_OPENAI_BASE_URL",
		"STUDYWISE_ANTHROPIC_API_KEY", "STUDYWISE_ANTHROPIC_MODEL",
		"STUDYWISE_OPENROUTER_API_KEY", "STUDYWISE_OPENROUTER_MODEL", "STUDYWISE_LLM_TIMEOUT",
		"STUDYWISE_AUTH_PROVIDER", "STUDYWISE_GOOGLE_CLIENT_ID", "STUDYWISE_GOOGLE_CLIENT_SECRET",
		"STUDYWISE_SERVER_ADDR", "STUDYWISE_JWT_SECRET", "STUDYWISE_TOKEN_TTL", "STUDYWISE_ALLOWED_ORIGINS",
		"STUDYWISE_LOG_MODE", "STUDYWISE_LOG_LEVEL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "demo", cfg.Auth.Provider)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
db = "/tmp/sw.db"

[llm]
provider = "anthropic"
api_key = "sk-ant"
model = "claude-sonnet"
timeout = "90s"

[auth]
provider = "google"
google_client_id = "cid"

[server]
addr = ":9000"
jwt_secret = "s3cret"
token_ttl = "1h"
allowed_origins = ["http://localhost:3000"]

[log]
mode = "prod"
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sw.db", cfg.DB)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-ant", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, "claude-sonnet", cfg.LLM.Anthropic.Model)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "google", cfg.Auth.Provider)
	assert.Equal(t, "cid", cfg.Auth.GoogleClientID)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, LogConfig{Mode: "prod", Level: "debug"}, cfg.Log)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[llm]
provider = "openai"
api_key = "from-file"

[server]
jwt_secret = "file-secret"
`)
	t.Setenv("STUDYWISE_OPENAI_API_KEY", "from-env")
	t.Setenv("STUDYWISE_JWT_SECRET", "env-secret")
	t.Setenv("STUDYWISE_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "env-secret", cfg.Server.JWTSecret)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_DiscoversProviderKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-found")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-found", cfg.LLM.OpenAI.APIKey)
}

func TestLoad_ConfiguredKeyWinsOverDiscovery(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDYWISE_GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "sk-found")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.Gemini.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, `[llm`))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "[server]\ntoken_ttl = \"forever\"\n"))
	assert.ErrorContains(t, err, "server.token_ttl")
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "studywise", "config.toml"), p)
}
