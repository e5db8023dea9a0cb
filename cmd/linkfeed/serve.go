package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"linkfeed/internal/web"
	"linkfeed/pkg/logger"
	"linkfeed/pkg/profile"
	"linkfeed/pkg/runstatus"
	"linkfeed/pkg/scrape"
	"linkfeed/pkg/tracker"
)

var (
	serveListenAddr string
	serveAccount    string
	serveSchedule   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracked-profile web app",
	Long: `Run a web server that keeps a set of tracked profiles refreshed
and serves their combined feed.

Endpoints:
  GET  /api/users                manage tracked profiles
  POST /api/users/add
  POST /api/users/remove
  POST /api/users/refresh-all    refresh every tracked profile
  GET  /api/scrape-status        current collection run state
  POST /api/scrape-status/reset
  GET  /api/feed                 interleaved feed across profiles
  GET  /media/{username}/{file}  downloaded media

With --schedule (cron syntax) a refresh of all tracked profiles runs
periodically.`,
	Example: `  # Serve on the default address
  linkfeed serve

  # Refresh all profiles hourly
  linkfeed serve --schedule "0 * * * *"`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveListenAddr, "listen", "l", "", "listen address (default :5000)")
	serveCmd.Flags().StringVarP(&serveAccount, "account", "a", "", "use a specific stored account")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "cron schedule for periodic refresh")
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if serveListenAddr != "" {
		flags["listen"] = serveListenAddr
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if serveSchedule != "" {
		cfg.Web.RefreshSchedule = serveSchedule
	}

	if err := resolveSession(cfg, serveAccount); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	tracked, err := tracker.New(cfg.Web.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open tracker database: %w", err)
	}
	defer tracked.Close()

	log := logger.GetLogger()
	status := runstatus.NewTracker(cfg.Fetch.RunTimeout, log)
	resolver := profile.NewResolver(client, log)
	orchestrator := scrape.New(cfg, client, resolver, status, tracked, log)

	server := web.NewServer(cfg, tracked, status, orchestrator, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx)
}
