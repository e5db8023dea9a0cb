package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"linkfeed/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage linkfeed configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (LINKFEED_*)
  - .env file
  - Configuration file (.linkfeed.yaml)
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.linkfeed.yaml' in the current directory unless
a different path is given with the --config flag.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. Credentials
are masked.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# linkfeed configuration file
#
# All options may also be set with LINKFEED_* environment variables,
# for example LINKFEED_SESSION_COOKIE and LINKFEED_CSRF_TOKEN.

# LinkedIn session. Prefer 'linkfeed auth login' over putting cookies
# here; these fields exist for headless deployments.
linkedin:
  session_cookie: ""
  csrf_token: ""
  user_agent: ""

rate_limit:
  requests_per_minute: 30
  max_retries: 3

fetch:
  # posts requested per page
  page_size: 20
  # total posts collected per profile
  target_posts: 60
  # pause between page fetches
  page_delay: 1s
  request_timeout: 30s
  # a run exceeding this bound is declared stuck and may be force-reset
  run_timeout: 600s
  monitor_interval: 30s

media:
  preferred_video_width: 640
  fallback_video_width: 720
  concurrent_downloads: 3
  retry_attempts: 3
  skip_videos: false
  skip_images: false

output:
  base_directory: "./linkedin_data"
  # keep each run's artifacts in a timestamped folder
  session_folders: true
  save_raw_pages: true

web:
  listen_addr: ":5000"
  database_path: "linkfeed.db"
  # cron spec for periodic refresh of tracked profiles, empty disables
  refresh_schedule: ""

logging:
  level: "info"
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".linkfeed.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// mask credentials before printing
	cfg.LinkedIn.SessionCookie = mask(cfg.LinkedIn.SessionCookie)
	cfg.LinkedIn.CSRFToken = mask(cfg.LinkedIn.CSRFToken)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid:\n%w", err)
	}

	fmt.Println("Configuration is valid")
	return nil
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
