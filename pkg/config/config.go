package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the process-wide settings for xdl, loaded once at startup.
type Config struct {
	// Backend extractor gateway settings
	API APIConfig `yaml:"api" json:"api"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Page-fetch rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds extractor backend configuration
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	MinSizeKB           int           `yaml:"min_size_kb" json:"min_size_kb"`
}

// RateLimitConfig holds rate limiting configuration for timeline page fetches
type RateLimitConfig struct {
	PagesPerMinute int `yaml:"pages_per_minute" json:"pages_per_minute"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Timeline kinds accepted by the --timeline flag. The media timeline
// excludes retweets and replies; the other two include them.
const (
	TimelineMedia       = "media"
	TimelineTweets      = "tweets"
	TimelineWithReplies = "with_replies"
)

// RunConfig is the immutable per-invocation value object. It is built once
// in cmd/xdl from the resolved flags and passed by pointer to every
// component; nothing mutates it after Validate.
type RunConfig struct {
	Username   string
	OutputDir  string
	DateFloor  time.Time // zero means no floor
	Limit      int       // 0 means unbounded
	Timeline   string
	AuthToken  string
	Preview    bool
	Redownload bool
	MinSize    int64 // bytes, 0 disables the size check
	Concurrent int
}

// Validate reports config-class errors (spec'd to fail before any network
// activity happens).
func (r *RunConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(r.Username) == "" {
		errs = append(errs, errors.New("username is required"))
	}
	switch r.Timeline {
	case TimelineMedia, TimelineTweets, TimelineWithReplies:
	default:
		errs = append(errs, fmt.Errorf("invalid timeline type %q (choose media, tweets or with_replies)", r.Timeline))
	}
	if r.Limit < 0 {
		errs = append(errs, errors.New("limit cannot be negative"))
	}
	if r.Concurrent < 1 {
		errs = append(errs, errors.New("concurrent downloads must be at least 1"))
	}
	if r.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParseDateFloor parses the --date flag value (YYYY-MM-DD). An empty value
// means no floor.
func ParseDateFloor(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD format", s)
	}
	return t, nil
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			// Local extractor gateway; the engine that actually talks to
			// x.com runs as a sidecar and exposes this JSON surface.
			BaseURL:   "http://127.0.0.1:8742",
			UserAgent: "xdl/1.0",
			Timeout:   30 * time.Second,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 1,
			DownloadTimeout:     60 * time.Second,
			MinSizeKB:           128,
		},
		RateLimit: RateLimitConfig{
			PagesPerMinute: 60,
		},
		Output: OutputConfig{
			BaseDirectory: "./downloads",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("XDL_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if userAgent := os.Getenv("XDL_USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}
	if outputDir := os.Getenv("XDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent := os.Getenv("XDL_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if minSize := os.Getenv("XDL_MIN_SIZE_KB"); minSize != "" {
		var val int
		if _, err := fmt.Sscanf(minSize, "%d", &val); err == nil && val >= 0 {
			c.Download.MinSizeKB = val
		}
	}
	if ppm := os.Getenv("XDL_PAGES_PER_MINUTE"); ppm != "" {
		var val int
		fmt.Sscanf(ppm, "%d", &val)
		if val > 0 {
			c.RateLimit.PagesPerMinute = val
		}
	}
	if logLevel := os.Getenv("XDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".xdl.yaml",
		".xdl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "xdl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "xdl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".xdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MinSizeKB < 0 {
		errs = append(errs, errors.New("minimum size cannot be negative"))
	}
	if c.RateLimit.PagesPerMinute <= 0 {
		errs = append(errs, errors.New("pages per minute must be positive"))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Environment variables > .env file > Config file > Defaults
// (command line flags are applied by the caller onto RunConfig, not here).
func Load(configPath string) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xdl.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
