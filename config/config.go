// Package config loads, validates, and watches the server configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/llmtoolhub/toolhub-mcp-go/logger"
	"github.com/llmtoolhub/toolhub-mcp-go/runner"
)

// Config represents the tool hub server configuration.
type Config struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Description string  `json:"description"`
	Logging     Logging `json:"logging"`
	Tools       Tools   `json:"tools"`
	Audit       Audit   `json:"audit"`
	Ops         Ops     `json:"ops"`
}

// Logging represents logging configuration.
type Logging struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

// Tools represents tool set configuration.
type Tools struct {
	RootPath              string `json:"root_path"`
	UnsafeMode            bool   `json:"unsafe_mode"`
	ShellEnabled          bool   `json:"shell_enabled"`
	FilesystemEnabled     bool   `json:"filesystem_enabled"`
	ResearchEnabled       bool   `json:"research_enabled"`
	UnpaywallEmail        string `json:"unpaywall_email"`
	DefaultTimeoutSeconds int    `json:"default_timeout_seconds"`
	MaxOutputChars        int    `json:"max_output_chars"`
}

// Audit represents the invocation trail configuration.
type Audit struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Ops represents the optional diagnostics endpoint configuration.
type Ops struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return &Config{
		Name:        "toolhub",
		Version:     "0.1.0",
		Description: "Tool hub MCP server exposing shell and filesystem tools over stdio",
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Path:   filepath.Join(home, ".toolhub", "logs", "toolhub.log"),
		},
		Tools: Tools{
			RootPath:              "",
			UnsafeMode:            false,
			ShellEnabled:          true,
			FilesystemEnabled:     true,
			ResearchEnabled:       true,
			DefaultTimeoutSeconds: 100,
			MaxOutputChars:        runner.DefaultMaxOutput,
		},
		Audit: Audit{
			Enabled: false,
			Path:    filepath.Join(home, ".toolhub", "audit.db"),
		},
		Ops: Ops{
			Enabled: false,
			Host:    "localhost",
			Port:    9070,
		},
	}
}

// LoadConfig loads the configuration from a file, applies environment
// overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "config file not found")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	applyEnvOverrides(cfg)
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a file.
func SaveConfig(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "write config file")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv("TOOLHUB_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("TOOLHUB_LOG_PATH"); path != "" {
		cfg.Logging.Path = path
	}
	if root := os.Getenv("TOOLHUB_ROOT"); root != "" {
		cfg.Tools.RootPath = root
	}
	if unsafe := os.Getenv("TOOLHUB_UNSAFE_MODE"); unsafe != "" {
		if parsed, err := strconv.ParseBool(unsafe); err == nil {
			cfg.Tools.UnsafeMode = parsed
		} else {
			logger.Warn("Ignoring invalid TOOLHUB_UNSAFE_MODE value", "value", unsafe)
		}
	}
	if timeout := os.Getenv("TOOLHUB_DEFAULT_TIMEOUT_SECONDS"); timeout != "" {
		if parsed, err := strconv.Atoi(timeout); err == nil {
			cfg.Tools.DefaultTimeoutSeconds = parsed
		} else {
			logger.Warn("Ignoring invalid TOOLHUB_DEFAULT_TIMEOUT_SECONDS value", "value", timeout)
		}
	}
	if auditEnabled := os.Getenv("TOOLHUB_AUDIT_ENABLED"); auditEnabled != "" {
		if parsed, err := strconv.ParseBool(auditEnabled); err == nil {
			cfg.Audit.Enabled = parsed
		} else {
			logger.Warn("Ignoring invalid TOOLHUB_AUDIT_ENABLED value", "value", auditEnabled)
		}
	}
	if email := os.Getenv("TOOLHUB_UNPAYWALL_EMAIL"); email != "" {
		cfg.Tools.UnpaywallEmail = email
	}
	if auditPath := os.Getenv("TOOLHUB_AUDIT_PATH"); auditPath != "" {
		cfg.Audit.Path = auditPath
	}
	if opsEnabled := os.Getenv("TOOLHUB_OPS_ENABLED"); opsEnabled != "" {
		if parsed, err := strconv.ParseBool(opsEnabled); err == nil {
			cfg.Ops.Enabled = parsed
		} else {
			logger.Warn("Ignoring invalid TOOLHUB_OPS_ENABLED value", "value", opsEnabled)
		}
	}
	if opsPort := os.Getenv("TOOLHUB_OPS_PORT"); opsPort != "" {
		if parsed, err := strconv.Atoi(opsPort); err == nil {
			cfg.Ops.Port = parsed
		} else {
			logger.Warn("Ignoring invalid TOOLHUB_OPS_PORT value", "value", opsPort)
		}
	}
}

// Normalize canonicalizes config values so downstream validation and
// runtime logic operate on stable representations.
func (c *Config) Normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Path = strings.TrimSpace(c.Logging.Path)
	c.Tools.RootPath = strings.TrimSpace(c.Tools.RootPath)
	c.Tools.UnpaywallEmail = strings.TrimSpace(c.Tools.UnpaywallEmail)
	c.Audit.Path = strings.TrimSpace(c.Audit.Path)
	c.Ops.Host = strings.TrimSpace(c.Ops.Host)
	if c.Tools.DefaultTimeoutSeconds == 0 {
		c.Tools.DefaultTimeoutSeconds = 100
	}
	if c.Tools.MaxOutputChars == 0 {
		c.Tools.MaxOutputChars = runner.DefaultMaxOutput
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return errors.Newf("invalid log level %q", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return errors.Newf("invalid log format %q", c.Logging.Format)
	}

	if c.Tools.DefaultTimeoutSeconds < 1 {
		return errors.Newf("invalid default timeout %d: minimum is 1 second", c.Tools.DefaultTimeoutSeconds)
	}
	if c.Tools.MaxOutputChars < 1 {
		return errors.Newf("invalid max output chars %d", c.Tools.MaxOutputChars)
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return errors.New("audit path cannot be empty when audit is enabled")
	}

	if c.Ops.Enabled {
		if c.Ops.Host == "" {
			return errors.New("ops host cannot be empty")
		}
		if c.Ops.Port <= 0 || c.Ops.Port > 65535 {
			return errors.Newf("invalid ops port %d", c.Ops.Port)
		}
	}
	return nil
}

// ResolveConfigPath returns the path that should be used for
// configuration: the TOOLHUB_CONFIG_PATH env var, then
// config/toolhub.json in the working directory, then the home default.
func ResolveConfigPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv("TOOLHUB_CONFIG_PATH")); path != "" {
		return path, nil
	}
	if _, err := os.Stat("config/toolhub.json"); err == nil {
		return "config/toolhub.json", nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user home directory")
	}
	return filepath.Join(home, ".toolhub", "config", "toolhub.json"), nil
}

// EnsureDefaultConfig creates a default config file if one does not
// exist.
func EnsureDefaultConfig(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path cannot be empty")
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, "stat config file")
	}
	return SaveConfig(NewConfig(), path)
}
