package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"xdl/pkg/logger"
	"xdl/pkg/storage"
	"xdl/pkg/timeline"
)

// Status classifies the outcome of a single media item
type Status int

const (
	StatusDownloaded Status = iota
	StatusSkippedExists
	StatusSkippedSmall
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusSkippedExists:
		return "skipped_exists"
	case StatusSkippedSmall:
		return "skipped_small"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Job represents a single media item download task
type Job struct {
	Post     *timeline.Post
	Item     timeline.MediaItem
	FileName string

	// results receives this job's outcome; sized by the submitter to hold
	// every item of the post so workers never block on it
	results chan<- Result
}

// Result represents the outcome of a download job
type Result struct {
	Job      Job
	Status   Status
	Error    error
	Duration time.Duration
	Size     int
}

// MediaFetcher fetches media bytes and sizes from the backend's CDN URLs
type MediaFetcher interface {
	ContentLength(ctx context.Context, url string) (int64, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// FileStore stores media files under deterministic names
type FileStore interface {
	Exists(name string) bool
	Save(r io.Reader, name string) error
}

// WorkerPool manages concurrent media downloads. Posts are processed one at
// a time; the pool parallelizes the items within a post, which keeps the
// "fully processed" watermark meaningful while still overlapping transfers.
type WorkerPool struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	fetcher    MediaFetcher
	store      FileStore
	minSize    int64 // bytes, 0 disables the size check
	redownload bool
	logger     logger.Logger
}

// NewWorkerPool creates a download worker pool
func NewWorkerPool(
	numWorkers int,
	fetcher MediaFetcher,
	store FileStore,
	minSize int64,
	redownload bool,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &WorkerPool{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, numWorkers*2),
		ctx:        ctx,
		cancel:     cancel,
		fetcher:    fetcher,
		store:      store,
		minSize:    minSize,
		redownload: redownload,
		logger:     log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool after in-flight jobs finish
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// ProcessPost submits every media item of a post and blocks until all of
// them have an outcome. Results come back in completion order, one per item.
func (wp *WorkerPool) ProcessPost(ctx context.Context, post *timeline.Post) []Result {
	if len(post.Media) == 0 {
		return nil
	}

	results := make(chan Result, len(post.Media))
	submitted := 0
	for _, item := range post.Media {
		job := Job{
			Post:     post,
			Item:     item,
			FileName: storage.FileName(post, &item),
			results:  results,
		}
		select {
		case wp.jobQueue <- job:
			submitted++
		case <-ctx.Done():
			results <- Result{Job: job, Status: StatusFailed, Error: ctx.Err()}
			submitted++
		}
	}

	out := make([]Result, 0, submitted)
	for i := 0; i < submitted; i++ {
		out = append(out, <-results)
	}
	return out
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			job.results <- Result{Job: job, Status: StatusFailed, Error: wp.ctx.Err()}
			continue
		default:
		}

		job.results <- wp.processJob(job, id)
	}
}

// processJob handles a single media item
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	// Existing file: no network call, not an error. The redownload flag
	// bypasses the checkpoint upstream but not this check.
	if !wp.redownload && wp.store.Exists(job.FileName) {
		wp.logger.DebugWithFields("File already exists, skipping", map[string]interface{}{
			"worker_id": workerID,
			"file":      job.FileName,
		})
		result.Status = StatusSkippedExists
		result.Duration = time.Since(start)
		return result
	}

	// Size gate before transfer when the size is known up front
	if wp.minSize > 0 {
		size := job.Item.SizeHint
		if size <= 0 {
			reported, err := wp.fetcher.ContentLength(wp.ctx, job.Item.URL)
			if err == nil {
				size = reported
			}
			// A failed HEAD is not fatal; the post-download check below
			// still enforces the threshold.
		}
		if size > 0 && size < wp.minSize {
			wp.logger.DebugWithFields("Media below size threshold, skipping", map[string]interface{}{
				"worker_id": workerID,
				"file":      job.FileName,
				"size":      size,
				"min_size":  wp.minSize,
			})
			result.Status = StatusSkippedSmall
			result.Size = int(size)
			result.Duration = time.Since(start)
			return result
		}
	}

	data, err := wp.fetcher.Download(wp.ctx, job.Item.URL)
	if err != nil {
		result.Status = StatusFailed
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to download media", map[string]interface{}{
			"worker_id": workerID,
			"file":      job.FileName,
			"error":     err.Error(),
			"duration":  result.Duration,
		})

		return result
	}

	result.Size = len(data)

	if wp.minSize > 0 && int64(len(data)) < wp.minSize {
		result.Status = StatusSkippedSmall
		result.Duration = time.Since(start)
		return result
	}

	if err := wp.store.Save(bytes.NewReader(data), job.FileName); err != nil {
		result.Status = StatusFailed
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to save media", map[string]interface{}{
			"worker_id": workerID,
			"file":      job.FileName,
			"error":     err.Error(),
			"size":      result.Size,
		})

		return result
	}

	result.Status = StatusDownloaded
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"file":      job.FileName,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}
