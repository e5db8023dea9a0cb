// Package scrape ties profile resolution, feed pagination, storage,
// and media downloads together into a single collection run.
package scrape

import (
	"context"
	"fmt"
	"time"

	"linkfeed/internal/downloader"
	"linkfeed/pkg/config"
	"linkfeed/pkg/feed"
	"linkfeed/pkg/logger"
	"linkfeed/pkg/ratelimit"
	"linkfeed/pkg/runstatus"
	"linkfeed/pkg/storage"
	"linkfeed/pkg/tracker"
	"linkfeed/pkg/voyager"
)

// URNResolver turns a username or profile URL into a dash profile URN
type URNResolver interface {
	Resolve(input string) (string, error)
}

// Client is the subset of the voyager client the orchestrator needs
type Client interface {
	feed.PageFetcher
	downloader.MediaDownloader
}

// Orchestrator runs one feed collection end to end
type Orchestrator struct {
	cfg      *config.Config
	client   Client
	resolver URNResolver
	status   *runstatus.Tracker
	tracked  *tracker.Store
	logger   logger.Logger
}

// New creates an orchestrator. The tracker store may be nil for
// one-off CLI runs.
func New(
	cfg *config.Config,
	client Client,
	resolver URNResolver,
	status *runstatus.Tracker,
	tracked *tracker.Store,
	log logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Orchestrator{
		cfg:      cfg,
		client:   client,
		resolver: resolver,
		status:   status,
		tracked:  tracked,
		logger:   log,
	}
}

// Run collects a profile's feed, writes the results to disk, and
// downloads its media. Posts collected before a failure are still
// saved.
func (o *Orchestrator) Run(ctx context.Context, username string) (*feed.Result, error) {
	username = voyager.SanitizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	urn, err := o.resolveURN(username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}

	runID, err := o.status.Start(username)
	if err != nil {
		return nil, err
	}

	o.logger.InfoWithFields("collection run started", map[string]interface{}{
		"run_id":      runID,
		"username":    username,
		"profile_urn": urn,
	})

	store, err := storage.NewManager(&o.cfg.Output, username)
	if err != nil {
		o.status.Fail(err.Error())
		return nil, err
	}

	media := &feed.MediaResolver{
		PreferredVideoWidth: o.cfg.Media.PreferredVideoWidth,
		FallbackVideoWidth:  o.cfg.Media.FallbackVideoWidth,
	}
	controller := feed.NewController(o.client, feed.NewPostAssembler(media), o.cfg.Fetch.PageDelay, o.logger)
	controller.SetProgress(o.status.UpdateProgress)
	controller.SetPageObserver(func(pageIndex int, page *voyager.Page) {
		if err := store.SaveRawPage(pageIndex+1, page.Raw); err != nil {
			o.logger.WarnWithFields("failed to save raw page", map[string]interface{}{
				"page":  pageIndex + 1,
				"error": err.Error(),
			})
		}
	})

	ranges := feed.Ranges(o.cfg.Fetch.TargetPosts, o.cfg.Fetch.PageSize)
	result := controller.Run(ctx, urn, ranges)

	if err := store.SavePosts(result.Posts); err != nil {
		o.logger.ErrorWithFields("failed to save posts", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := store.SaveSummary(&result); err != nil {
		o.logger.ErrorWithFields("failed to save summary", map[string]interface{}{
			"error": err.Error(),
		})
	}

	saved, failed := o.downloadMedia(store, result.Posts)

	if result.Succeeded {
		o.status.Complete(result.PagesCompleted, len(result.Posts))
		o.markRefreshed(username, len(result.Posts))
	} else {
		o.status.Fail(result.FailureReason)
	}

	o.logger.InfoWithFields("collection run finished", map[string]interface{}{
		"run_id":       runID,
		"username":     username,
		"succeeded":    result.Succeeded,
		"pages":        result.PagesCompleted,
		"posts":        len(result.Posts),
		"media_saved":  saved,
		"media_failed": failed,
	})

	return &result, nil
}

// resolveURN prefers the tracker's cached URN over a profile page fetch
func (o *Orchestrator) resolveURN(username string) (string, error) {
	if o.tracked != nil {
		if p, err := o.tracked.Get(username); err == nil && p.ProfileURN != "" {
			return p.ProfileURN, nil
		}
	}

	urn, err := o.resolver.Resolve(username)
	if err != nil {
		return "", err
	}

	if o.tracked != nil {
		if err := o.tracked.Upsert(&tracker.TrackedProfile{Username: username, ProfileURN: urn}); err != nil {
			o.logger.WarnWithFields("failed to record profile urn", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
			})
		}
	}
	return urn, nil
}

func (o *Orchestrator) markRefreshed(username string, postCount int) {
	if o.tracked == nil {
		return
	}
	if err := o.tracked.MarkRefreshed(username, time.Now(), postCount); err != nil {
		o.logger.WarnWithFields("failed to record refresh time", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
	}
}

// downloadMedia fetches every asset of the collected posts through the
// worker pool, honoring the skip flags
func (o *Orchestrator) downloadMedia(store *storage.Manager, posts []feed.Post) (saved, failed int) {
	jobs := o.mediaJobs(posts)
	if len(jobs) == 0 {
		return 0, 0
	}

	var limiter ratelimit.Limiter
	if rpm := o.cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		limiter = ratelimit.PerMinute(rpm)
	}
	pool := downloader.NewWorkerPool(
		o.cfg.Media.ConcurrentDownloads,
		o.cfg.Media.RetryAttempts,
		o.client,
		store,
		limiter,
		o.logger,
	)
	pool.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range pool.Results() {
			if result.Success {
				saved++
			} else {
				failed++
			}
		}
	}()

	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			break
		}
	}
	pool.Stop()
	<-done

	return saved, failed
}

func (o *Orchestrator) mediaJobs(posts []feed.Post) []downloader.DownloadJob {
	var jobs []downloader.DownloadJob
	for _, post := range posts {
		for i, asset := range post.Media {
			if asset.Kind == feed.MediaKindImage && o.cfg.Media.SkipImages {
				continue
			}
			if asset.Kind == feed.MediaKindVideo && o.cfg.Media.SkipVideos {
				continue
			}
			jobs = append(jobs, downloader.DownloadJob{
				URL:      asset.URL,
				Filename: storage.MediaFilename(post.ID, i, asset.Kind),
				PostID:   post.ID,
				Kind:     asset.Kind,
			})
		}
	}
	return jobs
}
