package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"xkcdcrawl/pkg/xkcd"
)

// Config holds all configuration options for the crawler
type Config struct {
	// Crawl range and pacing
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// HTTP client settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Retry behavior for transient failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CrawlConfig holds the identifier range and pacing configuration
type CrawlConfig struct {
	// Start is the first comic number to fetch
	Start int `yaml:"start" json:"start"`
	// End is the last comic number to fetch; 0 means crawl to the latest published comic
	End int `yaml:"end" json:"end"`
	// Single, when non-zero, fetches exactly one comic and ignores Start/End
	Single int `yaml:"single" json:"single"`
	// MaxDownloads caps the number of successful downloads per run; 0 means no cap
	MaxDownloads int `yaml:"max_downloads" json:"max_downloads"`
	// Delay is the courtesy pause between requests to the remote server
	Delay time.Duration `yaml:"delay" json:"delay"`
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// RetryConfig holds retry configuration for transient failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			Start: 1,
			End:   0,
			Delay: 1 * time.Second,
		},
		HTTP: HTTPConfig{
			BaseURL:   xkcd.DefaultBaseURL,
			Timeout:   30 * time.Second,
			UserAgent: xkcd.DefaultUserAgent,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Output: OutputConfig{
			Directory: "xkcd_images",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, then config file,
// then environment variables, then command line flags.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // no config file is not an error
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

// findConfigFile searches the default config file locations
func (c *Config) findConfigFile() string {
	candidates := []string{".xkcdcrawl.yaml", ".xkcdcrawl.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".xkcdcrawl.yaml"),
			filepath.Join(home, ".config", "xkcdcrawl", "config.yaml"),
		)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFromEnv loads configuration from environment variables.
// A .env file in the working directory is honored if present.
func (c *Config) LoadFromEnv() error {
	_ = godotenv.Load()

	if dir := os.Getenv("XKCDCRAWL_OUTPUT_DIR"); dir != "" {
		c.Output.Directory = dir
	}
	if base := os.Getenv("XKCDCRAWL_BASE_URL"); base != "" {
		c.HTTP.BaseURL = base
	}
	if ua := os.Getenv("XKCDCRAWL_USER_AGENT"); ua != "" {
		c.HTTP.UserAgent = ua
	}
	if delay := os.Getenv("XKCDCRAWL_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid XKCDCRAWL_DELAY: %w", err)
		}
		c.Crawl.Delay = d
	}
	if attempts := os.Getenv("XKCDCRAWL_MAX_ATTEMPTS"); attempts != "" {
		n, err := strconv.Atoi(attempts)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid XKCDCRAWL_MAX_ATTEMPTS: %q", attempts)
		}
		c.Retry.MaxAttempts = n
	}
	if level := os.Getenv("XKCDCRAWL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

// ApplyFlags overrides configuration with values from command line flags
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	if flags == nil {
		return
	}
	if v, ok := flags["start"].(int); ok {
		c.Crawl.Start = v
	}
	if v, ok := flags["end"].(int); ok {
		c.Crawl.End = v
	}
	if v, ok := flags["single"].(int); ok {
		c.Crawl.Single = v
	}
	if v, ok := flags["max"].(int); ok {
		c.Crawl.MaxDownloads = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Crawl.Delay = v
	}
	if v, ok := flags["output"].(string); ok {
		c.Output.Directory = v
	}
	if v, ok := flags["user-agent"].(string); ok {
		c.HTTP.UserAgent = v
	}
	if v, ok := flags["log-level"].(string); ok {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for invalid combinations
func (c *Config) Validate() error {
	if c.Crawl.Single < 0 {
		return errors.New("single comic number must be positive")
	}
	if c.Crawl.Single == 0 {
		if c.Crawl.Start < 1 {
			return errors.New("start must be at least 1")
		}
		if c.Crawl.End != 0 && c.Crawl.End < c.Crawl.Start {
			return fmt.Errorf("end (%d) must not be before start (%d)", c.Crawl.End, c.Crawl.Start)
		}
	}
	if c.Crawl.Delay < 0 {
		return errors.New("delay must not be negative")
	}
	if c.Crawl.MaxDownloads < 0 {
		return errors.New("max downloads must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry max attempts must be at least 1")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.Output.Directory == "" {
		return errors.New("output directory must not be empty")
	}
	return nil
}
