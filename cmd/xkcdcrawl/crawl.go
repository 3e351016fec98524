package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"xkcdcrawl/pkg/config"
	"xkcdcrawl/pkg/crawler"
	"xkcdcrawl/pkg/logger"
	"xkcdcrawl/pkg/storage"
	"xkcdcrawl/pkg/xkcd"
)

var (
	// Crawl command flags
	startNum     int
	endNum       int
	singleNum    int
	maxDownloads int
	outputDir    string
	requestDelay time.Duration
	userAgent    string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a range of comics and save images with metadata",
	Long: `Crawl comics in ascending order and save an image file plus a JSON
metadata record for each one under the output directory.

Without --end the crawl runs up to the latest published comic, discovered
once at startup. Comics whose artifact pair already exists are skipped
without touching the network. The exit code is non-zero only for setup
errors; individual comics that fail after all retries are listed in the
final summary so the same command can be re-run to fill the gaps.`,
	Example: `  # Crawl everything from the beginning to the latest comic
  xkcdcrawl crawl

  # Crawl a specific range into a custom directory
  xkcdcrawl crawl --start 100 --end 200 --output ./comics

  # Download a single comic
  xkcdcrawl crawl --single 353

  # Slow down to one request every two seconds, stop after 50 downloads
  xkcdcrawl crawl --delay 2s --max 50`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&startNum, "start", 1, "first comic number to fetch")
	crawlCmd.Flags().IntVar(&endNum, "end", 0, "last comic number to fetch (0 = latest published)")
	crawlCmd.Flags().IntVar(&singleNum, "single", 0, "fetch exactly one comic by number")
	crawlCmd.Flags().IntVar(&maxDownloads, "max", 0, "stop after this many successful downloads (0 = no cap)")
	crawlCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: xkcd_images)")
	crawlCmd.Flags().DurationVar(&requestDelay, "delay", time.Second, "pause between requests to the server")
	crawlCmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header sent with every request")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("start") {
		flags["start"] = startNum
	}
	if cmd.Flags().Changed("end") {
		flags["end"] = endNum
	}
	if cmd.Flags().Changed("single") {
		flags["single"] = singleNum
	}
	if cmd.Flags().Changed("max") {
		flags["max"] = maxDownloads
	}
	if cmd.Flags().Changed("delay") {
		flags["delay"] = requestDelay
	}
	if cmd.Flags().Changed("output") {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("user-agent") {
		flags["user-agent"] = userAgent
	}
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&logger.Config{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	store, err := storage.NewManager(cfg.Output.Directory)
	if err != nil {
		return fmt.Errorf("failed to set up output directory: %w", err)
	}

	absDir, err := filepath.Abs(store.OutputDir())
	if err != nil {
		absDir = store.OutputDir()
	}
	log.InfoWithFields("output directory ready", map[string]interface{}{
		"directory":       absDir,
		"already_present": store.SavedCount(),
	})

	client := xkcd.NewClient(cfg.HTTP.BaseURL, cfg.HTTP.Timeout, cfg.HTTP.UserAgent, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := crawler.New(client, store, cfg, log)
	summary, err := c.Run(ctx)
	if err != nil {
		if summary != nil {
			printSummary(summary)
		}
		return fmt.Errorf("crawl aborted: %w", err)
	}

	printSummary(summary)
	return nil
}

func printSummary(summary *crawler.RunSummary) {
	fmt.Println()
	fmt.Println("Crawl summary:")
	fmt.Printf("  Downloaded:        %d\n", summary.Downloaded)
	fmt.Printf("  Skipped (existed): %d\n", summary.SkippedExisting)
	fmt.Printf("  Skipped (missing): %d\n", summary.SkippedMissing)
	fmt.Printf("  Failed:            %d\n", summary.Failed)
	if len(summary.FailedNums) > 0 {
		fmt.Printf("  Failed comics:     %v\n", summary.FailedNums)
		fmt.Println("  Re-run the same command to retry only the failed comics.")
	}
}
