package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the client settings
type Config struct {
	APIBase       string        `yaml:"api_base"`
	SessionID     string        `yaml:"session_id"`
	Timeout       time.Duration `yaml:"timeout"`
	HealthTimeout time.Duration `yaml:"health_timeout"`
	Proxy         string        `yaml:"proxy"`
	PreviewAddr   string        `yaml:"preview_addr"`
	AudioDir      string        `yaml:"audio_dir"`
	Demo          bool          `yaml:"demo"`
}

// Environment variables read by LoadConfig
const (
	EnvAPIBase       = "CODEMATE_API_BASE"
	EnvSessionID     = "CODEMATE_SESSION_ID"
	EnvTimeout       = "CODEMATE_TIMEOUT"
	EnvHealthTimeout = "CODEMATE_HEALTH_TIMEOUT"
	EnvProxy         = "CODEMATE_PROXY"
	EnvPreviewAddr   = "CODEMATE_PREVIEW_ADDR"
	EnvAudioDir      = "CODEMATE_AUDIO_DIR"
	EnvDemo          = "CODEMATE_DEMO"
)

// DefaultConfig returns the built-in settings
func DefaultConfig() Config {
	return Config{
		APIBase:       "http://localhost:8000",
		SessionID:     DefaultSessionID,
		Timeout:       DefaultRequestTimeout,
		HealthTimeout: DefaultHealthTimeout,
		PreviewAddr:   "127.0.0.1:0",
		Demo:          true,
	}
}

// DefaultConfigPath returns ~/.config/codemate/config.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "codemate", "config.yaml")
}

// LoadConfig layers the YAML file at path, the env file and the process
// environment over the defaults. Missing files are not an error.
func LoadConfig(path, envFile string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist):
			LogDebug("No config file at %s", path)
		default:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		} else {
			LogDebug("Loaded env file %s", envFile)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv(EnvSessionID); v != "" {
		c.SessionID = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv(EnvPreviewAddr); v != "" {
		c.PreviewAddr = v
	}
	if v := os.Getenv(EnvAudioDir); v != "" {
		c.AudioDir = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv(EnvHealthTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHealthTimeout, err)
		}
		c.HealthTimeout = d
	}
	if v := os.Getenv(EnvDemo); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDemo, err)
		}
		c.Demo = b
	}
	return nil
}

// Validate checks the settings for obvious mistakes
func (c Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("api_base must not be empty")
	}
	if c.SessionID == "" {
		return fmt.Errorf("session_id must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.HealthTimeout <= 0 {
		return fmt.Errorf("health_timeout must be positive, got %s", c.HealthTimeout)
	}
	return nil
}

// NewBackend builds the HTTP backend client for the configuration
func (c Config) NewBackend() (*HTTPBackend, error) {
	client, err := NewHTTPClient(c.Proxy)
	if err != nil {
		return nil, err
	}
	return NewHTTPBackend(c.APIBase, client), nil
}

// ControllerOptions maps the configuration onto controller options
func (c Config) ControllerOptions() ControllerOptions {
	opts := ControllerOptions{
		SessionID:     c.SessionID,
		Timeout:       c.Timeout,
		HealthTimeout: c.HealthTimeout,
	}
	if c.AudioDir != "" {
		opts.AudioSink = NewAudioDirSink(c.AudioDir)
	}
	return opts
}
