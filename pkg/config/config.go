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

// Config holds all configuration options for the feed aggregator
type Config struct {
	// LinkedIn session settings
	LinkedIn LinkedInConfig `yaml:"linkedin" json:"linkedin"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Feed fetch / pagination settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Media resolution and download settings
	Media MediaConfig `yaml:"media" json:"media"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Web app settings
	Web WebConfig `yaml:"web" json:"web"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LinkedInConfig holds provider session configuration
type LinkedInConfig struct {
	// SessionCookie is the li_at cookie value
	SessionCookie string `yaml:"session_cookie" json:"session_cookie"`
	// CSRFToken is the JSESSIONID-derived csrf-token header value
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int `yaml:"max_retries" json:"max_retries"`
}

// FetchConfig holds pagination settings for activity fetching
type FetchConfig struct {
	// PageSize is the number of posts requested per page
	PageSize int `yaml:"page_size" json:"page_size"`
	// TargetPosts is the default total number of posts to fetch per profile
	TargetPosts int `yaml:"target_posts" json:"target_posts"`
	// PageDelay is the pause between successful page fetches
	PageDelay time.Duration `yaml:"page_delay" json:"page_delay"`
	// RequestTimeout bounds a single API request
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	// RunTimeout bounds an entire aggregation run before it is declared stuck
	RunTimeout time.Duration `yaml:"run_timeout" json:"run_timeout"`
	// MonitorInterval is how often stuck runs are checked for
	MonitorInterval time.Duration `yaml:"monitor_interval" json:"monitor_interval"`
}

// MediaConfig holds media resolution and download settings
type MediaConfig struct {
	// PreferredVideoWidth selects the progressive stream to download
	PreferredVideoWidth int `yaml:"preferred_video_width" json:"preferred_video_width"`
	// FallbackVideoWidth is tried when no stream matches the preferred width
	FallbackVideoWidth  int           `yaml:"fallback_video_width" json:"fallback_video_width"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
	RetryDelay          time.Duration `yaml:"retry_delay" json:"retry_delay"`
	SkipVideos          bool          `yaml:"skip_videos" json:"skip_videos"`
	SkipImages          bool          `yaml:"skip_images" json:"skip_images"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory  string `yaml:"base_directory" json:"base_directory"`
	SessionFolders bool   `yaml:"session_folders" json:"session_folders"`
	SaveRawPages   bool   `yaml:"save_raw_pages" json:"save_raw_pages"`
}

// WebConfig holds presentation web app configuration
type WebConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	// DatabasePath is the sqlite file holding tracked profiles
	DatabasePath string `yaml:"database_path" json:"database_path"`
	// RefreshSchedule is an optional cron spec for periodic refresh-all
	RefreshSchedule string `yaml:"refresh_schedule" json:"refresh_schedule"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LinkedIn: LinkedInConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			MaxRetries:        3,
		},
		Fetch: FetchConfig{
			PageSize:        20,
			TargetPosts:     60,
			PageDelay:       time.Second,
			RequestTimeout:  30 * time.Second,
			RunTimeout:      600 * time.Second,
			MonitorInterval: 30 * time.Second,
		},
		Media: MediaConfig{
			PreferredVideoWidth: 640,
			FallbackVideoWidth:  720,
			ConcurrentDownloads: 3,
			DownloadTimeout:     60 * time.Second,
			RetryAttempts:       3,
			RetryDelay:          time.Second,
		},
		Output: OutputConfig{
			BaseDirectory:  "./linkedin_data",
			SessionFolders: true,
			SaveRawPages:   true,
		},
		Web: WebConfig{
			ListenAddr:   ":5000",
			DatabasePath: "linkfeed.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if cookie := os.Getenv("LINKFEED_SESSION_COOKIE"); cookie != "" {
		c.LinkedIn.SessionCookie = cookie
	}
	if csrf := os.Getenv("LINKFEED_CSRF_TOKEN"); csrf != "" {
		c.LinkedIn.CSRFToken = csrf
	}
	if ua := os.Getenv("LINKFEED_USER_AGENT"); ua != "" {
		c.LinkedIn.UserAgent = ua
	}
	if rpm := os.Getenv("LINKFEED_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if outputDir := os.Getenv("LINKFEED_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if target := os.Getenv("LINKFEED_TARGET_POSTS"); target != "" {
		var val int
		fmt.Sscanf(target, "%d", &val)
		if val > 0 {
			c.Fetch.TargetPosts = val
		}
	}
	if concurrent := os.Getenv("LINKFEED_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Media.ConcurrentDownloads = val
		}
	}
	if addr := os.Getenv("LINKFEED_LISTEN_ADDR"); addr != "" {
		c.Web.ListenAddr = addr
	}
	if logLevel := os.Getenv("LINKFEED_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
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
	locations := []string{
		".linkfeed.yaml",
		".linkfeed.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "linkfeed", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "linkfeed", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".linkfeed.yaml"),
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

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Fetch.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Fetch.TargetPosts <= 0 {
		errs = append(errs, errors.New("target posts must be positive"))
	}
	if c.Fetch.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}
	if c.Fetch.RunTimeout <= 0 {
		errs = append(errs, errors.New("run timeout must be positive"))
	}

	if c.Media.PreferredVideoWidth <= 0 {
		errs = append(errs, errors.New("preferred video width must be positive"))
	}
	if c.Media.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Media.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Media.RetryAttempts < 0 {
		errs = append(errs, errors.New("retry attempts cannot be negative"))
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

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if cookie, ok := flags["session-cookie"].(string); ok && cookie != "" {
		c.LinkedIn.SessionCookie = cookie
	}
	if csrf, ok := flags["csrf-token"].(string); ok && csrf != "" {
		c.LinkedIn.CSRFToken = csrf
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if target, ok := flags["target"].(int); ok && target > 0 {
		c.Fetch.TargetPosts = target
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Media.ConcurrentDownloads = concurrent
	}
	if addr, ok := flags["listen"].(string); ok && addr != "" {
		c.Web.ListenAddr = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".linkfeed.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
