package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

// Client defaults.
const (
	DefaultClientConfigPath = "~/.config/useradmin/client.toml"
	DefaultAPIBaseURL       = "http://127.0.0.1:8080/api"
	DefaultAPITimeout       = 10 * time.Second
)

// Client environment variable names.
const (
	EnvAPIBaseURL = "APP_API_BASE_URL"
	EnvAPITimeout = "APP_API_TIMEOUT"
)

// Client validation errors.
var (
	ErrInvalidBaseURL  = errors.New("API base URL must be an absolute http or https URL")
	ErrInvalidTimeout  = errors.New("API timeout must be positive")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
	ErrInvalidSort     = errors.New("sort must be one of: user_id, username")
)

// ClientConfig holds the command line client configuration.
type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
	Sort     model.SortOption
	LogLevel string
}

// clientFile mirrors the TOML layout of the client config file.
type clientFile struct {
	BaseURL  string `toml:"base_url"`
	Timeout  string `toml:"timeout"`
	PageSize int    `toml:"page_size"`
	Sort     string `toml:"sort"`
	LogLevel string `toml:"log_level"`
}

// LoadClient reads the client config file at path (or the default location
// when path is empty), applies environment overrides and validates the result.
// A missing file is not an error.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{
		BaseURL:  DefaultAPIBaseURL,
		Timeout:  DefaultAPITimeout,
		PageSize: model.DefaultSize,
		Sort:     model.DefaultSort,
		LogLevel: DefaultLogLevel,
	}

	resolved, err := ResolveClientPath(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.loadFile(resolved); err != nil {
		return nil, err
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading client config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating client config: %w", err)
	}

	return cfg, nil
}

func (c *ClientConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read client config: %w", err)
	}

	var raw clientFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse client config: %w", err)
	}

	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(raw.Timeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse client config timeout: %w", err)
		}
		c.Timeout = timeout
	}
	if raw.PageSize != 0 {
		c.PageSize = raw.PageSize
	}
	if v := strings.TrimSpace(raw.Sort); v != "" {
		c.Sort = model.SortOption(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = v
	}

	return nil
}

func (c *ClientConfig) loadFromEnv() error {
	if val := os.Getenv(EnvAPIBaseURL); val != "" {
		c.BaseURL = val
	}

	if val := os.Getenv(EnvAPITimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvAPITimeout, err)
		}
		c.Timeout = timeout
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	return nil
}

// Validate checks if the client configuration values are valid.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.PageSize < model.MinPageSize || c.PageSize > model.MaxPageSize {
		return ErrInvalidPageSize
	}

	if !c.Sort.Valid() {
		return ErrInvalidSort
	}

	if !validLogLevel(c.LogLevel) {
		return ErrInvalidLogLevel
	}

	return nil
}

// InitialQuery returns the query the client starts with.
func (c *ClientConfig) InitialQuery() model.Query {
	return model.Query{Page: model.DefaultPage, Size: c.PageSize, Sort: c.Sort}
}

// WriteClient stores cfg as TOML at path, creating parent directories.
func WriteClient(path string, cfg *ClientConfig) error {
	resolved, err := ResolveClientPath(path)
	if err != nil {
		return err
	}

	data, err := toml.Marshal(clientFile{
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout.String(),
		PageSize: cfg.PageSize,
		Sort:     string(cfg.Sort),
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("encode client config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o600); err != nil {
		return fmt.Errorf("write client config: %w", err)
	}

	return nil
}

// ResolveClientPath returns the absolute config file location for path,
// using DefaultClientConfigPath when path is empty.
func ResolveClientPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(DefaultClientConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

// String summarizes the effective settings for log output.
func (c *ClientConfig) String() string {
	return fmt.Sprintf("base_url=%s timeout=%s page_size=%d sort=%s",
		c.BaseURL, c.Timeout, c.PageSize, c.Sort)
}
