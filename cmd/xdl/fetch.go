package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"xdl/pkg/auth"
	"xdl/pkg/checkpoint"
	"xdl/pkg/config"
	errs "xdl/pkg/errors"
	"xdl/pkg/fetcher"
	"xdl/pkg/logger"
	"xdl/pkg/timeline"
	"xdl/pkg/ui"
)

var (
	// Fetch command flags
	outputDir    string
	dateFloor    string
	authToken    string
	previewRun   bool
	timelineKind string
	postLimit    int
	redownload   bool
	minSizeKB    int
	concurrent   int
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <username>",
	Short: "Download media from an x.com user's timeline",
	Long: `Download photos and videos from an x.com user's timeline.

Posts are enumerated newest first and downloaded into a directory named
after the user. A checkpoint records the newest fully downloaded post, so
rerunning the same command only fetches what is new since the last run.

Public accounts work without credentials. Protected accounts need the
auth_token cookie of a logged-in session, provided via:
  - Stored token (use 'xdl auth login' to store)
  - The --auth-token flag
  - The XDL_AUTH_TOKEN or AUTH_TOKEN environment variable (.env works too)`,
	Example: `  # Download all media from a user
  xdl fetch jack

  # Only the last 50 posts, newer than March 2024
  xdl fetch jack --limit 50 --date 2024-03-01

  # See what would be downloaded without touching the disk
  xdl fetch jack --preview

  # Include regular tweets, not just the media tab
  xdl fetch jack --timeline tweets

  # Re-fetch everything, ignoring the checkpoint
  xdl fetch jack --redownload`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runFetch(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Local flags for fetch command
	fetchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default from config: ./downloads)")
	fetchCmd.Flags().StringVarP(&dateFloor, "date", "d", "", "only download posts on or after this date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&authToken, "auth-token", "", "auth_token cookie value for protected accounts")
	fetchCmd.Flags().BoolVarP(&previewRun, "preview", "p", false, "list what would be downloaded without downloading")
	fetchCmd.Flags().StringVarP(&timelineKind, "timeline", "t", "media", "timeline to walk (media, tweets, with_replies)")
	fetchCmd.Flags().IntVarP(&postLimit, "limit", "l", 0, "only consider the last N posts (0 means all)")
	fetchCmd.Flags().BoolVar(&redownload, "redownload", false, "ignore the checkpoint and re-fetch everything")
	fetchCmd.Flags().IntVar(&minSizeKB, "min-size-kb", -1, "skip media smaller than this many KB (default from config: 128)")
	fetchCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads (default from config: 1)")

	// Also add these flags to root command so 'xdl <username>' works
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default from config: ./downloads)")
	rootCmd.Flags().StringVarP(&dateFloor, "date", "d", "", "only download posts on or after this date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&authToken, "auth-token", "", "auth_token cookie value for protected accounts")
	rootCmd.Flags().BoolVarP(&previewRun, "preview", "p", false, "list what would be downloaded without downloading")
	rootCmd.Flags().StringVarP(&timelineKind, "timeline", "t", "media", "timeline to walk (media, tweets, with_replies)")
	rootCmd.Flags().IntVarP(&postLimit, "limit", "l", 0, "only consider the last N posts (0 means all)")
	rootCmd.Flags().BoolVar(&redownload, "redownload", false, "ignore the checkpoint and re-fetch everything")
	rootCmd.Flags().IntVar(&minSizeKB, "min-size-kb", -1, "skip media smaller than this many KB (default from config: 128)")
	rootCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads (default from config: 1)")
}

func runFetch(cmd *cobra.Command, args []string) {
	username := strings.TrimSpace(args[0])

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		ui.PrintError("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Flag overrides on top of config/env values
	if outputDir != "" {
		cfg.Output.BaseDirectory = outputDir
	}
	if concurrent > 0 {
		cfg.Download.ConcurrentDownloads = concurrent
	}
	if minSizeKB >= 0 {
		cfg.Download.MinSizeKB = minSizeKB
	}
	if logLevel != "info" {
		cfg.Logging.Level = logLevel
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger: %v", err)
		os.Exit(1)
	}
	logger.WithField("version", version).Info("xdl starting")

	floor, err := config.ParseDateFloor(dateFloor)
	if err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}

	// Resolve the auth token: flag, environment, then stored credential.
	// An empty token means an anonymous run, which is fine for public
	// accounts.
	token := strings.TrimSpace(authToken)
	if manager, err := auth.NewManager(); err == nil {
		token = manager.Resolve(authToken)
	} else if token == "" {
		logger.WithField("error", err.Error()).Warn("Credential stores unavailable, continuing anonymously")
	}

	run := &config.RunConfig{
		Username:   username,
		OutputDir:  cfg.Output.BaseDirectory,
		DateFloor:  floor,
		Limit:      postLimit,
		Timeline:   timelineKind,
		AuthToken:  token,
		Preview:    previewRun,
		Redownload: redownload,
		MinSize:    int64(cfg.Download.MinSizeKB) * 1024,
		Concurrent: cfg.Download.ConcurrentDownloads,
	}

	store, err := checkpoint.NewStore()
	if err != nil {
		ui.PrintError("Failed to open checkpoint store: %v", err)
		os.Exit(1)
	}

	f, err := fetcher.New(cfg, run, store)
	if err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}

	ui.PrintInfo("Target", username)

	// Interrupts cancel the context; in-flight posts finish and the
	// checkpoint is saved before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := f.Run(ctx)
	if err != nil {
		reportFetchError(username, summary, err)
		return
	}

	if previewRun {
		// preview already printed its report
		logger.WithField("username", username).Info("Preview completed")
		return
	}

	ui.PrintSuccess(fmt.Sprintf("Done: %d downloaded, %d already on disk, %d too small, %d failed",
		summary.Downloaded, summary.SkippedExisting, summary.SkippedSmall, summary.Failed))
	if summary.Failed > 0 {
		ui.PrintWarning("Some items failed; rerun the same command to retry them")
	}
	logger.WithField("username", username).Info("Fetch completed")
}

// reportFetchError maps a failed run onto an exit code. Transient backend
// trouble after partial progress exits zero: the checkpoint holds what was
// done and a rerun picks up from there. Everything else is fatal.
func reportFetchError(username string, summary *fetcher.Summary, err error) {
	if timeline.IsProtectedErr(err) {
		ui.PrintError("Account @%s is protected", username)
		fmt.Println("\nProtected accounts need the auth_token cookie of a logged-in session:")
		fmt.Println("  xdl auth login")
		fmt.Println("\nOr pass it directly:")
		fmt.Println("  xdl fetch " + username + " --auth-token <token>")
		os.Exit(1)
	}

	var backendErr *errs.Error
	if stderrors.As(err, &backendErr) && errs.IsRetryable(backendErr.Type) &&
		summary != nil && summary.PostsProcessed > 0 {
		ui.PrintWarning("Stopped early: %v", err)
		ui.PrintWarning("Progress up to this point is checkpointed; rerun the same command to resume")
		logger.WithField("username", username).Warn("Fetch ended on a transient error")
		return
	}

	logger.WithFields(map[string]interface{}{
		"username": username,
		"error":    err.Error(),
	}).Error("Fetch failed")
	ui.PrintError("Fetch failed: %v", err)
	os.Exit(1)
}

// Make fetch the default command when no subcommand is specified
func init() {
	origRunE := rootCmd.RunE
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if origRunE != nil {
			return origRunE(cmd, args)
		}
		if len(args) > 0 && !isKnownCommand(args[0]) {
			// First argument is not a known command, treat it as a username
			return fetchCmd.RunE(fetchCmd, args)
		}
		return cmd.Help()
	}

	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
