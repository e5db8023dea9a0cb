package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"linkfeed/pkg/auth"
	"linkfeed/pkg/config"
	"linkfeed/pkg/logger"
	"linkfeed/pkg/ratelimit"
	"linkfeed/pkg/voyager"
)

var (
	// Version information, set at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "linkfeed",
	Short: "Collect and browse LinkedIn profile feeds",
	Long: `linkfeed collects a LinkedIn profile's activity feed through the
voyager API, resolves post media, and stores the results locally.

Sessions come from a browser login ('linkfeed auth login') or from
manually entered cookies, and are stored in the system keychain or an
encrypted file. The 'serve' command hosts a small web app that keeps a
set of tracked profiles refreshed and presents their combined feed.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .linkfeed.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`linkfeed {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the layered configuration and initializes logging
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	logger.Initialize(&cfg.Logging)
	return cfg, nil
}

// resolveSession fills the config's LinkedIn credentials from the
// session store when they are not already present. An explicit account
// name always wins.
func resolveSession(cfg *config.Config, accountName string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	var session *auth.Session
	switch {
	case accountName != "":
		session, err = manager.RetrieveValid(accountName)
		if err != nil {
			return fmt.Errorf("account %q: %w", accountName, err)
		}
	case cfg.LinkedIn.SessionCookie != "" && cfg.LinkedIn.CSRFToken != "":
		// credentials already supplied via config or environment
		return nil
	default:
		session, err = manager.RetrieveDefault()
		if err != nil {
			return fmt.Errorf("no session found, run 'linkfeed auth login' first: %w", err)
		}
		if verr := session.Validate(); verr != nil {
			return fmt.Errorf("stored session for %q is unusable: %w", session.Username, verr)
		}
	}

	cfg.LinkedIn.SessionCookie = session.SessionCookie()
	cfg.LinkedIn.CSRFToken = session.CSRFToken()
	if session.UserAgent != "" {
		cfg.LinkedIn.UserAgent = session.UserAgent
	}

	logger.WithField("account", session.Username).Info("using stored session")
	return nil
}

// buildClient creates a voyager client carrying the configured session
func buildClient(cfg *config.Config) (*voyager.Client, error) {
	if cfg.LinkedIn.SessionCookie == "" {
		return nil, fmt.Errorf("missing li_at session cookie")
	}
	if cfg.LinkedIn.CSRFToken == "" {
		return nil, fmt.Errorf("missing csrf token")
	}

	client := voyager.NewClient(cfg.Fetch.RequestTimeout, logger.GetLogger())
	client.SetSession(map[string]string{
		"li_at":      cfg.LinkedIn.SessionCookie,
		"JSESSIONID": cfg.LinkedIn.CSRFToken,
	})
	if cfg.LinkedIn.UserAgent != "" {
		client.SetHeader("user-agent", cfg.LinkedIn.UserAgent)
	}
	if rpm := cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		client.SetRateLimiter(ratelimit.PerMinute(rpm))
	}
	return client, nil
}
