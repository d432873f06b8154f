package fetcher

import (
	"context"
	"fmt"
	"io"
	"time"

	"xdl/internal/downloader"
	"xdl/pkg/checkpoint"
	"xdl/pkg/config"
	"xdl/pkg/filter"
	"xdl/pkg/logger"
	"xdl/pkg/ratelimit"
	"xdl/pkg/storage"
	"xdl/pkg/timeline"
	"xdl/pkg/ui"
)

// Fetcher orchestrates one download run for one username
type Fetcher struct {
	cfg         *config.Config
	run         *config.RunConfig
	client      *timeline.Client
	source      *timeline.Source
	checkpoints *checkpoint.Store
	logger      logger.Logger
}

// Summary is what a completed (or partially completed) run reports back
type Summary struct {
	Username        string
	PostsProcessed  int
	Downloaded      int
	SkippedExisting int
	SkippedSmall    int
	Failed          int
	Planned         []string // preview mode: filenames that would be fetched
	Checkpoint      *checkpoint.Checkpoint
	CheckpointSaved bool
}

// New creates a Fetcher for the given run. The checkpoint store is passed in
// so callers control where resume state lives.
func New(cfg *config.Config, run *config.RunConfig, store *checkpoint.Store) (*Fetcher, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}

	log := logger.GetLogger()

	client := timeline.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log)
	client.SetHeader("User-Agent", cfg.API.UserAgent)
	client.SetAuthToken(run.AuthToken)

	var limiter ratelimit.Limiter
	if cfg.RateLimit.PagesPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.PagesPerMinute, time.Minute)
	}

	return &Fetcher{
		cfg:         cfg,
		run:         run,
		client:      client,
		source:      timeline.NewSource(client, limiter, log),
		checkpoints: store,
		logger:      log,
	}, nil
}

// Run executes the fetch: load checkpoint, stream eligible posts, download
// their media, and persist the new watermark. A non-nil error with a non-nil
// Summary means the run aborted partway; the Summary still reflects the work
// that was done.
func (f *Fetcher) Run(ctx context.Context) (*Summary, error) {
	username := f.run.Username
	kind, err := timeline.ParseKind(f.run.Timeline)
	if err != nil {
		return nil, err
	}

	hadCheckpoint := f.checkpoints.Exists(username)
	cp := f.checkpoints.Load(username)
	if f.run.Redownload && !cp.IsZero() {
		f.logger.InfoWithFields("Redownload requested, ignoring checkpoint", map[string]interface{}{
			"username":           username,
			"last_downloaded_id": cp.LastDownloadedID,
		})
	}

	summary := &Summary{Username: username, Checkpoint: cp}

	f.logger.InfoWithFields("Starting fetch", map[string]interface{}{
		"username":   username,
		"timeline":   f.run.Timeline,
		"limit":      f.run.Limit,
		"preview":    f.run.Preview,
		"redownload": f.run.Redownload,
		"resume":     hadCheckpoint && !f.run.Redownload,
	})

	it, err := f.source.Posts(ctx, username, kind)
	if err != nil {
		// Fatal before any enumeration. Touch the checkpoint so the failed
		// attempt is visible, but never create one out of thin air.
		if hadCheckpoint && !f.run.Preview {
			f.saveCheckpoint(summary, cp)
		}
		return summary, err
	}

	stream := filter.Limit(filter.Iterator(it), f.run.Limit)
	if !f.run.Redownload {
		stream = filter.CheckpointCut(stream, cp)
	}
	stream = filter.DateFloor(stream, f.run.DateFloor)

	if f.run.Preview {
		return f.preview(summary, stream)
	}
	return f.download(ctx, summary, stream, cp, hadCheckpoint)
}

// preview walks the eligible stream and reports what a real run would fetch.
// It touches neither the disk nor the checkpoint.
func (f *Fetcher) preview(summary *Summary, stream filter.Iterator) (*Summary, error) {
	ui.PrintInfo("Preview", f.run.Username)

	for {
		post, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, err
		}

		summary.PostsProcessed++
		for i := range post.Media {
			name := storage.FileName(post, &post.Media[i])
			summary.Planned = append(summary.Planned, name)
			ui.PrintLine("would fetch %s", name)
		}
	}

	ui.PrintInfo("Posts", fmt.Sprintf("%d", summary.PostsProcessed))
	ui.PrintInfo("Media items", fmt.Sprintf("%d", len(summary.Planned)))
	return summary, nil
}

// download consumes the eligible stream through the worker pool and advances
// the watermark. The watermark only covers the contiguous tail of fully
// successful posts: if any post has a failed item, no post newer than the
// failure is recorded, so the next run re-walks that region and retries the
// failure while existing files short-circuit cheaply.
func (f *Fetcher) download(ctx context.Context, summary *Summary, stream filter.Iterator, cp *checkpoint.Checkpoint, hadCheckpoint bool) (*Summary, error) {
	manager, err := storage.NewManager(f.run.OutputDir, f.run.Username)
	if err != nil {
		return summary, err
	}

	pool := downloader.NewWorkerPool(
		f.run.Concurrent,
		f.client,
		manager,
		f.run.MinSize,
		f.run.Redownload,
		f.logger,
	)
	pool.Start()
	defer pool.Stop()

	// Newest fully-successful post since the last failed one. Posts arrive
	// newest-first, so this is the highest watermark that does not skip
	// past a failure.
	var tailID string
	var tailDate time.Time

	var streamErr error
	for {
		post, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			streamErr = err
			break
		}

		results := pool.ProcessPost(ctx, post)
		summary.PostsProcessed++

		postFailed := false
		for _, r := range results {
			switch r.Status {
			case downloader.StatusDownloaded:
				summary.Downloaded++
				logger.LogDownload(f.run.Username, post.ID, string(r.Job.Item.Type), true, nil)
				ui.PrintLine("saved %s (%d bytes)", r.Job.FileName, r.Size)
			case downloader.StatusSkippedExists:
				summary.SkippedExisting++
				logger.LogSkip(f.run.Username, post.ID, "already on disk")
			case downloader.StatusSkippedSmall:
				summary.SkippedSmall++
				logger.LogSkip(f.run.Username, post.ID, "below size threshold")
			case downloader.StatusFailed:
				summary.Failed++
				postFailed = true
				logger.LogDownload(f.run.Username, post.ID, string(r.Job.Item.Type), false, r.Error)
				ui.PrintError("failed %s: %v", r.Job.FileName, r.Error)
			}
		}

		if postFailed {
			tailID = ""
			tailDate = time.Time{}
		} else if tailID == "" {
			tailID = post.ID
			tailDate = post.Date
		}
	}

	if tailID != "" {
		cp.Advance(tailID, tailDate)
	}

	// A run that had no checkpoint and touched nothing leaves no file
	// behind; everything else persists, including partial progress.
	if hadCheckpoint || summary.PostsProcessed > 0 {
		f.saveCheckpoint(summary, cp)
	}

	f.logger.InfoWithFields("Fetch finished", map[string]interface{}{
		"username":         f.run.Username,
		"posts":            summary.PostsProcessed,
		"downloaded":       summary.Downloaded,
		"skipped_existing": summary.SkippedExisting,
		"skipped_small":    summary.SkippedSmall,
		"failed":           summary.Failed,
	})

	if streamErr != nil {
		return summary, streamErr
	}
	return summary, nil
}

// saveCheckpoint persists the watermark, logging instead of failing: losing
// a checkpoint write costs a re-scan on the next run, not data.
func (f *Fetcher) saveCheckpoint(summary *Summary, cp *checkpoint.Checkpoint) {
	if err := f.checkpoints.Save(f.run.Username, cp); err != nil {
		f.logger.ErrorWithFields("Could not save checkpoint", map[string]interface{}{
			"username": f.run.Username,
			"error":    err.Error(),
		})
		return
	}
	summary.CheckpointSaved = true
}
