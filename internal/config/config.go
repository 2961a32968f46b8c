package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultProvider   = "anthropic"
	DefaultMaxCommits = 6
	DefaultMaxTokens  = 4096
	DefaultTimeout    = 120
	DefaultStyle      = "default"

	EnvProvider      = "COMMITSTACK_PROVIDER"
	EnvModel         = "COMMITSTACK_MODEL"
	EnvStyle         = "COMMITSTACK_STYLE"
	EnvDebug         = "COMMITSTACK_DEBUG"
	EnvTimeout       = "COMMITSTACK_TIMEOUT"
	EnvXDGConfigHome = "XDG_CONFIG_HOME"

	ConfigDirName  = "commitstack"
	ConfigFileName = "config.json"
)

// Config is the resolved runtime configuration.
// Priority order: environment variables > config file > defaults.
type Config struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	Style          string `json:"style,omitempty"`
	MaxCommits     int    `json:"max_commits,omitempty"`
	MaxTokens      int    `json:"max_tokens,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	Debug          bool   `json:"debug,omitempty"`

	// APIKeys maps provider name to credential, for hosts where exported
	// environment variables are impractical. Environment variables win.
	APIKeys map[string]string `json:"api_keys,omitempty"`
}

// APIKey returns the stored credential for a provider, if any.
func (c *Config) APIKey(provider string) string {
	if c.APIKeys == nil {
		return ""
	}
	return c.APIKeys[provider]
}

// ConfigDir returns the configuration directory, honoring XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv(EnvXDGConfigHome); xdg != "" {
		return filepath.Join(xdg, ConfigDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", ConfigDirName)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFileName)
}

// LoadFile reads the config file from disk. A missing file is not an
// error; it simply yields nil.
func LoadFile() (*Config, error) {
	path := ConfigPath()
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveFile writes the config file, creating the directory as needed.
// The file may hold API keys, so it is not group/world readable.
func SaveFile(c *Config) error {
	dir := ConfigDir()
	if dir == "" {
		return os.ErrNotExist
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(), data, 0600)
}

// Load resolves the effective configuration from environment variables,
// falling back to the config file, then defaults.
func Load() *Config {
	cfg := &Config{
		Provider:       os.Getenv(EnvProvider),
		Model:          os.Getenv(EnvModel),
		Style:          os.Getenv(EnvStyle),
		Debug:          os.Getenv(EnvDebug) == "1" || os.Getenv(EnvDebug) == "true",
		TimeoutSeconds: 0,
	}

	if fc, err := LoadFile(); err == nil && fc != nil {
		if cfg.Provider == "" {
			cfg.Provider = fc.Provider
		}
		if cfg.Model == "" {
			cfg.Model = fc.Model
		}
		if cfg.Style == "" {
			cfg.Style = fc.Style
		}
		if !cfg.Debug && fc.Debug {
			cfg.Debug = true
		}
		cfg.MaxCommits = fc.MaxCommits
		cfg.MaxTokens = fc.MaxTokens
		cfg.TimeoutSeconds = fc.TimeoutSeconds
		cfg.APIKeys = fc.APIKeys
	}

	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.Style == "" {
		cfg.Style = DefaultStyle
	}
	if cfg.MaxCommits <= 0 {
		cfg.MaxCommits = DefaultMaxCommits
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeout
	}

	if timeoutStr := os.Getenv(EnvTimeout); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil && timeout > 0 {
			cfg.TimeoutSeconds = timeout
		}
	}

	return cfg
}

// MaskAPIKey returns a masked version of a credential for display.
func MaskAPIKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 4 {
		return "***"
	}
	return "***..." + key[len(key)-4:]
}
