// Package config loads prism's YAML configuration with XDG path resolution
// and environment overrides.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Server    Server    `yaml:"server"`
	LLM       LLM       `yaml:"llm"`
	Storage   Storage   `yaml:"storage"`
	Cache     CacheCfg  `yaml:"cache"`
	Selection Selection `yaml:"selection"`
	Dataset   Dataset   `yaml:"dataset"`
	Logging   Logging   `yaml:"logging"`
}

type Server struct {
	Port int `yaml:"port"`
	// APITokenEnv names the environment variable holding the bearer token
	// required by the HTTP API. When the variable is unset the API runs
	// without authentication.
	APITokenEnv string `yaml:"api_token_env"`
}

type LLM struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type Storage struct {
	DataDir string `yaml:"data_dir"`
}

type CacheCfg struct {
	TTLDays int `yaml:"ttl_days"`
}

type Selection struct {
	MaxAdditional int `yaml:"max_additional"`
}

type Dataset struct {
	Path string `yaml:"path"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for prism.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "prism")
}

// DataDir returns the XDG data directory for prism.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "prism")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/prism/config.yaml > ./config.yaml.
// An empty path with no config file present is not an error; defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads the config at path, or the built-in defaults when path is "".
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	data := DefaultConfigYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		data = b
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Port:        8080,
			APITokenEnv: "PRISM_API_TOKEN",
		},
		LLM: LLM{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Cache:     CacheCfg{TTLDays: 30},
		Selection: Selection{MaxAdditional: 2},
		Dataset:   Dataset{Path: filepath.Join("data", "synthetic_dataset.csv")},
		Logging:   Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides config values from PRISM_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("PRISM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("PRISM_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("PRISM_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("PRISM_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("PRISM_CACHE_TTL_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			c.Cache.TTLDays = days
		}
	}
	if v := os.Getenv("PRISM_MAX_ADDITIONAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Selection.MaxAdditional = n
		}
	}
	if v := os.Getenv("PRISM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

// APIKey reads the LLM API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

// APIToken reads the HTTP bearer token from the configured environment
// variable. Empty means the API is unauthenticated.
func (c *Config) APIToken() string {
	if c.Server.APITokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Server.APITokenEnv)
}

// LogLevel maps the configured level name to a slog.Level.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
