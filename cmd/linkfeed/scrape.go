package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"linkfeed/pkg/logger"
	"linkfeed/pkg/profile"
	"linkfeed/pkg/runstatus"
	"linkfeed/pkg/scrape"
)

var (
	scrapeOutputDir   string
	scrapeTargetPosts int
	scrapeConcurrent  int
	scrapeAccount     string
	scrapeSkipVideos  bool
	scrapeSkipImages  bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <username>",
	Short: "Collect a profile's activity feed",
	Long: `Collect a LinkedIn profile's recent activity into the output
directory: post metadata as JSON plus the referenced images and videos.

The username may be a plain handle, a profile URL, or a dash profile
URN. A valid session is required; store one with 'linkfeed auth login'
or supply LINKFEED_SESSION_COOKIE and LINKFEED_CSRF_TOKEN.`,
	Example: `  # Collect the default number of posts
  linkfeed scrape someuser

  # Collect 100 posts into a specific directory
  linkfeed scrape someuser --posts 100 --output ./feeds

  # Use a specific stored account and skip videos
  linkfeed scrape someuser --account work --skip-videos`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&scrapeOutputDir, "output", "o", "", "output directory for collected data")
	scrapeCmd.Flags().IntVar(&scrapeTargetPosts, "posts", 0, "total number of posts to collect")
	scrapeCmd.Flags().IntVar(&scrapeConcurrent, "concurrent", 0, "number of concurrent media downloads")
	scrapeCmd.Flags().StringVarP(&scrapeAccount, "account", "a", "", "use a specific stored account")
	scrapeCmd.Flags().BoolVar(&scrapeSkipVideos, "skip-videos", false, "do not download videos")
	scrapeCmd.Flags().BoolVar(&scrapeSkipImages, "skip-images", false, "do not download images")
}

func runScrape(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])

	flags := make(map[string]interface{})
	if scrapeOutputDir != "" {
		flags["output"] = scrapeOutputDir
	}
	if scrapeTargetPosts > 0 {
		flags["target"] = scrapeTargetPosts
	}
	if scrapeConcurrent > 0 {
		flags["concurrent"] = scrapeConcurrent
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if scrapeSkipVideos {
		cfg.Media.SkipVideos = true
	}
	if scrapeSkipImages {
		cfg.Media.SkipImages = true
	}

	if err := resolveSession(cfg, scrapeAccount); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	status := runstatus.NewTracker(cfg.Fetch.RunTimeout, log)
	resolver := profile.NewResolver(client, log)
	orchestrator := scrape.New(cfg, client, resolver, status, nil, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := orchestrator.Run(ctx, username)
	if err != nil {
		return err
	}

	if !result.Succeeded {
		fmt.Fprintf(os.Stderr, "collection stopped after %d pages: %s\n",
			result.PagesCompleted, result.FailureReason)
		if len(result.Posts) > 0 {
			fmt.Printf("kept %d posts collected before the failure\n", len(result.Posts))
		}
		os.Exit(1)
	}

	fmt.Printf("collected %d posts across %d pages\n", len(result.Posts), result.PagesCompleted)
	return nil
}
