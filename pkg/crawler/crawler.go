// Package crawler drives the comic number sequence: skip what exists, fetch
// and persist what doesn't, retry transient failures, and pace requests.
package crawler

import (
	"context"
	"fmt"

	"xkcdcrawl/pkg/config"
	errs "xkcdcrawl/pkg/errors"
	"xkcdcrawl/pkg/logger"
	"xkcdcrawl/pkg/ratelimit"
	"xkcdcrawl/pkg/retry"
	"xkcdcrawl/pkg/storage"
	"xkcdcrawl/pkg/xkcd"
)

// Source defines the remote operations the crawler needs
type Source interface {
	Comic(ctx context.Context, num int) (*xkcd.ComicRecord, error)
	Latest(ctx context.Context) (int, error)
	Image(ctx context.Context, url string) ([]byte, error)
}

// Store defines the persistence operations the crawler needs
type Store interface {
	Exists(num int) bool
	Save(meta storage.Metadata, imageBytes []byte) error
}

// Crawler orchestrates the comic download process.
// Execution is strictly sequential: one comic is fully resolved before the
// next begins, and the throttle between network-bearing iterations is the
// only rate control.
type Crawler struct {
	source   Source
	store    Store
	throttle ratelimit.Throttle
	retrier  *retry.Retrier
	cfg      *config.Config
	logger   logger.Logger
}

// New creates a new Crawler
func New(source Source, store Store, cfg *config.Config, log logger.Logger) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Crawler{
		source:   source,
		store:    store,
		throttle: ratelimit.NewFixedDelay(cfg.Crawl.Delay),
		retrier: retry.NewRetrier(&retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff: &retry.ExponentialBackoff{
				BaseDelay:  cfg.Retry.BaseDelay,
				MaxDelay:   cfg.Retry.MaxDelay,
				Multiplier: 2.0,
			},
			RetryIf: retry.DefaultRetryIf,
			Context: context.Background(),
			Logger:  log,
		}),
		cfg:    cfg,
		logger: log,
	}
}

// SetThrottle replaces the inter-request throttle
func (c *Crawler) SetThrottle(t ratelimit.Throttle) {
	c.throttle = t
}

// Run crawls the configured comic number range and returns the run summary.
// Per-comic failures are recorded, never propagated; the returned error is
// non-nil only for setup failures or cancellation.
func (c *Crawler) Run(ctx context.Context) (*RunSummary, error) {
	start, end, err := c.resolveRange(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("starting crawl", map[string]interface{}{
		"start":    start,
		"end":      end,
		"delay_ms": c.cfg.Crawl.Delay.Milliseconds(),
	})

	summary := &RunSummary{}
	for num := start; num <= end; num++ {
		if c.cfg.Crawl.MaxDownloads > 0 && summary.Downloaded >= c.cfg.Crawl.MaxDownloads {
			c.logger.InfoWithFields("reached download cap", map[string]interface{}{
				"max_downloads": c.cfg.Crawl.MaxDownloads,
			})
			break
		}

		outcome := c.crawlOne(ctx, num)
		summary.record(outcome)
		c.logOutcome(outcome)

		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		// Courtesy pause toward the server: only after an iteration that
		// actually called out, and not after the final number.
		if outcome.NetworkTouched() && num < end {
			if err := c.throttle.Wait(ctx); err != nil {
				return summary, err
			}
		}
	}

	c.logger.InfoWithFields("crawl completed", map[string]interface{}{
		"downloaded":       summary.Downloaded,
		"skipped_existing": summary.SkippedExisting,
		"skipped_missing":  summary.SkippedMissing,
		"failed":           summary.Failed,
	})
	return summary, nil
}

// resolveRange determines the first and last comic number for this run
func (c *Crawler) resolveRange(ctx context.Context) (int, int, error) {
	if c.cfg.Crawl.Single > 0 {
		return c.cfg.Crawl.Single, c.cfg.Crawl.Single, nil
	}

	start := c.cfg.Crawl.Start
	end := c.cfg.Crawl.End
	if end == 0 {
		latest, err := c.source.Latest(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to discover latest comic number: %w", err)
		}
		c.logger.InfoWithFields("discovered latest comic", map[string]interface{}{
			"latest": latest,
		})
		end = latest
	}
	if start > end {
		// Nothing to do; the loop over an empty range yields an empty summary
		c.logger.WarnWithFields("start is beyond the end of the range", map[string]interface{}{
			"start": start,
			"end":   end,
		})
	}
	return start, end, nil
}

// crawlOne resolves a single comic number to exactly one outcome
func (c *Crawler) crawlOne(ctx context.Context, num int) FetchOutcome {
	if c.store.Exists(num) {
		return FetchOutcome{Kind: OutcomeSkippedExisting, Num: num}
	}

	var record *xkcd.ComicRecord
	err := c.retrier.WithContext(ctx).Do(func() error {
		rec, err := c.source.Comic(ctx, num)
		if err != nil {
			return err
		}

		imageBytes, err := c.source.Image(ctx, rec.ImageURL)
		if err != nil {
			return err
		}

		if err := c.store.Save(storage.Metadata{
			ComicNum: rec.Num,
			Title:    rec.Title,
			AltText:  rec.AltText,
			ImageURL: rec.ImageURL,
			Filename: rec.Filename,
		}, imageBytes); err != nil {
			return err
		}

		record = rec
		return nil
	})

	switch {
	case err == nil:
		return FetchOutcome{Kind: OutcomeDownloaded, Num: num, Record: record}
	case errs.IsNotFound(err):
		return FetchOutcome{Kind: OutcomeSkippedMissing, Num: num, Cause: err}
	default:
		return FetchOutcome{Kind: OutcomeFailed, Num: num, Cause: err}
	}
}

func (c *Crawler) logOutcome(outcome FetchOutcome) {
	fields := map[string]interface{}{
		"comic":   outcome.Num,
		"outcome": outcome.Kind.String(),
	}

	switch outcome.Kind {
	case OutcomeDownloaded:
		fields["filename"] = outcome.Record.Filename
		c.logger.InfoWithFields("downloaded comic", fields)
	case OutcomeSkippedExisting:
		c.logger.InfoWithFields("comic already saved, skipping", fields)
	case OutcomeSkippedMissing:
		c.logger.InfoWithFields("comic does not exist at the source, skipping", fields)
	case OutcomeFailed:
		fields["error"] = outcome.Cause.Error()
		c.logger.ErrorWithFields("giving up on comic", fields)
	}
}
