package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"linkfeed/pkg/feed"
	"linkfeed/pkg/logger"
	"linkfeed/pkg/ratelimit"
)

// DownloadJob is one media asset to fetch
type DownloadJob struct {
	URL      string
	Filename string
	PostID   string
	Kind     feed.MediaKind
}

// DownloadResult is the outcome of one download job
type DownloadResult struct {
	Job      DownloadJob
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// MediaDownloader fetches media bytes from a URL
type MediaDownloader interface {
	DownloadMedia(url string, maxRetries int) ([]byte, error)
}

// MediaStorage persists downloaded media
type MediaStorage interface {
	IsMediaDownloaded(filename string) bool
	SaveMedia(filename string, data []byte) error
}

// WorkerPool downloads media assets concurrently. Assets fail
// independently, one broken URL never blocks the rest of the queue.
type WorkerPool struct {
	numWorkers  int
	maxRetries  int
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      MediaDownloader
	storage     MediaStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a download pool with the given concurrency
func NewWorkerPool(
	numWorkers int,
	maxRetries int,
	client MediaDownloader,
	storage MediaStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		maxRetries:  maxRetries,
		jobQueue:    make(chan DownloadJob, numWorkers*2),
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("starting download pool", map[string]interface{}{
		"workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for in-flight jobs, and closes the
// result channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit queues a download job. It fails once the pool is shutting down.
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("download pool is shutting down")
	}
}

// Results returns the channel download outcomes arrive on
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{Job: job}

	if wp.storage.IsMediaDownloaded(job.Filename) {
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if wp.rateLimiter != nil && !wp.rateLimiter.Allow() {
		wp.rateLimiter.Wait()
	}

	data, err := wp.client.DownloadMedia(job.URL, wp.maxRetries)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.WarnWithFields("media download failed", map[string]interface{}{
			"worker_id": workerID,
			"post_id":   job.PostID,
			"kind":      string(job.Kind),
			"error":     err.Error(),
		})
		return result
	}
	result.Size = len(data)

	if err := wp.storage.SaveMedia(job.Filename, data); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("media save failed", map[string]interface{}{
			"worker_id": workerID,
			"post_id":   job.PostID,
			"filename":  job.Filename,
			"error":     err.Error(),
		})
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"worker_id": workerID,
		"post_id":   job.PostID,
		"filename":  job.Filename,
		"size":      result.Size,
	})
	return result
}

// QueueSize returns the number of queued jobs not yet picked up
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}
