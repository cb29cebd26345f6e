// Package config loads StudyWise settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/abhisek/studywise/internal/llm"
	"github.com/abhisek/studywise/internal/store"
)

// Config is the resolved application configuration.
type Config struct {
	// DB is the SQLite database path. Empty means store.DefaultDBPath.
	DB string
	// DataDir holds the persisted identity. Empty means store.DataDir.
	DataDir string

	LLM    llm.Config
	Auth   AuthConfig
	Server ServerConfig
	Log    LogConfig
}

// AuthConfig selects the identity provider.
type AuthConfig struct {
	Provider           string // "demo" or "google"
	GoogleClientID     string
	GoogleClientSecret string
}

// ServerConfig configures `studywise serve`.
type ServerConfig struct {
	Addr           string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Mode  string // "dev" or "prod"
	Level string
}

const (
	defaultAuthProvider = "demo"
	defaultServerAddr   = "127.0.0.1:8080"
	defaultTokenTTL     = 24 * time.Hour
	defaultLogMode      = "dev"
	defaultLogLevel     = "warn"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LLM:    llm.DefaultConfig(),
		Auth:   AuthConfig{Provider: defaultAuthProvider},
		Server: ServerConfig{Addr: defaultServerAddr, TokenTTL: defaultTokenTTL},
		Log:    LogConfig{Mode: defaultLogMode, Level: defaultLogLevel},
	}
}

type fileConfig struct {
	DB      string `toml:"db"`
	DataDir string `toml:"data_dir"`

	LLM struct {
		Provider string `toml:"provider"`
		APIKey   string `toml:"api_key"`
		Model    string `toml:"model"`
		BaseURL  string `toml:"base_url"`
		Timeout  string `toml:"timeout"`
	} `toml:"llm"`

	Auth struct {
		Provider           string `toml:"provider"`
		GoogleClientID     string `toml:"google_client_id"`
		GoogleClientSecret string `toml:"google_client_secret"`
	} `toml:"auth"`

	Server struct {
		Addr           string   `toml:"addr"`
		JWTSecret      string   `toml:"jwt_secret"`
		TokenTTL       string   `toml:"token_ttl"`
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"server"`

	Log struct {
		Mode  string `toml:"mode"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// Load resolves the configuration: defaults, then the TOML file at path
// (DefaultPath when empty; a missing file is not an error), then STUDYWISE_*
// environment variables. When the selected LLM provider still has no key,
// the well-known provider key variables are probed.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		var raw fileConfig
		if err := toml.Unmarshal(b, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := cfg.applyFile(raw); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if cfg.LLM.Validate() != nil {
		if found, ok := llm.DiscoverConfig(); ok {
			found.Timeout = cfg.LLM.Timeout
			cfg.LLM = found
		}
	}
	return cfg, nil
}

// DefaultPath is $XDG_CONFIG_HOME/studywise/config.toml, falling back to
// ~/.config/studywise/config.toml.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "studywise", "config.toml"), nil
}

// DBPath returns the database path, creating its directory.
func (c Config) DBPath() (string, error) {
	if c.DB != "" {
		return c.DB, store.EnsureDir(c.DB)
	}
	return store.DefaultDBPath()
}

// IdentityDir returns the directory the signed-in identity is kept in.
func (c Config) IdentityDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	return store.DataDir()
}

func (c *Config) applyFile(raw fileConfig) error {
	setString(&c.DB, raw.DB)
	setString(&c.DataDir, raw.DataDir)

	if raw.LLM.Provider != "" {
		c.LLM.Provider = raw.LLM.Provider
	}
	switch c.LLM.Provider {
	case "gemini":
		setString(&c.LLM.Gemini.APIKey, raw.LLM.APIKey)
		setString(&c.LLM.Gemini.Model, raw.LLM.Model)
	case "openai":
		setString(&c.LLM.OpenAI.APIKey, raw.LLM.APIKey)
		setString(&c.LLM.OpenAI.Model, raw.LLM.Model)
		setString(&c.LLM.OpenAI.BaseURL, raw.LLM.BaseURL)
	case "anthropic":
		setString(&c.LLM.Anthropic.APIKey, raw.LLM.APIKey)
		setString(&c.LLM.Anthropic.Model, raw.LLM.Model)
	case "openrouter":
		setString(&c.LLM.OpenRouter.APIKey, raw.LLM.APIKey)
		setString(&c.LLM.OpenRouter.Model, raw.LLM.Model)
		setString(&c.LLM.OpenRouter.BaseURL, raw.LLM.BaseURL)
	}
	if err := setDuration(&c.LLM.Timeout, raw.LLM.Timeout); err != nil {
		return fmt.Errorf("llm.timeout: %w", err)
	}

	setString(&c.Auth.Provider, raw.Auth.Provider)
	setString(&c.Auth.GoogleClientID, raw.Auth.GoogleClientID)
	setString(&c.Auth.GoogleClientSecret, raw.Auth.GoogleClientSecret)

	setString(&c.Server.Addr, raw.Server.Addr)
	setString(&c.Server.JWTSecret, raw.Server.JWTSecret)
	if err := setDuration(&c.Server.TokenTTL, raw.Server.TokenTTL); err != nil {
		return fmt.Errorf("server.token_ttl: %w", err)
	}
	if len(raw.Server.AllowedOrigins) > 0 {
		c.Server.AllowedOrigins = raw.Server.AllowedOrigins
	}

	setString(&c.Log.Mode, raw.Log.Mode)
	setString(&c.Log.Level, raw.Log.Level)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DB, os.Getenv("STUDYWISE_DB"))
	setString(&c.DataDir, os.Getenv("STUDYWISE_DATA_DIR"))

	c.LLM.ApplyEnv()

	setString(&c.Auth.Provider, os.Getenv("STUDYWISE_AUTH_PROVIDER"))
	setString(&c.Auth.GoogleClientID, os.Getenv("STUDYWISE_GOOGLE_CLIENT_ID"))
	setString(&c.Auth.GoogleClientSecret, os.Getenv("STUDYWISE_GOOGLE_CLIENT_SECRET"))

	setString(&c.Server.Addr, os.Getenv("STUDYWISE_SERVER_ADDR"))
	setString(&c.Server.JWTSecret, os.Getenv("STUDYWISE_JWT_SECRET"))
	if err := setDuration(&c.Server.TokenTTL, os.Getenv("STUDYWISE_TOKEN_TTL")); err != nil {
		return fmt.Errorf("STUDYWISE_TOKEN_TTL: %w", err)
	}
	if v := os.Getenv("STUDYWISE_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}

	setString(&c.Log.Mode, os.Getenv("STUDYWISE_LOG_MODE"))
	setString(&c.Log.Level, os.Getenv("STUDYWISE_LOG_LEVEL"))
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v = strings.TrimSpace(v); v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
