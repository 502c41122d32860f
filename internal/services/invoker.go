package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"spider-indexer-scraper/internal/models"
)

// Invoker resolves a crawl event against the configured defaults and runs
// the crawl end to end. AWS clients are shared across runs.
type Invoker struct {
	dynamo   DynamoDBAPI
	s3       S3API
	region   string
	defaults models.CrawlSettings
	output   io.Writer
	logger   *zap.Logger
	now      func() time.Time
}

// NewInvoker creates an invoker. s3Client may be nil when no feed bucket is
// used; dynamo may be nil for dry runs only.
func NewInvoker(dynamo DynamoDBAPI, s3Client S3API, region string, defaults models.CrawlSettings, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Invoker{
		dynamo:   dynamo,
		s3:       s3Client,
		region:   region,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// SetOutput makes every emitted record also be written to w as a JSON line
func (i *Invoker) SetOutput(w io.Writer) {
	i.output = w
}

// Settings parses raw and overlays it on the defaults. A malformed payload
// is logged and the defaults are used unchanged.
func (i *Invoker) Settings(raw []byte) models.CrawlSettings {
	event, err := models.ParseCrawlEvent(raw)
	if err != nil {
		i.logger.Warn("Ignoring crawl configuration", zap.Error(err))
	}
	if len(event.Unknown) > 0 {
		i.logger.Debug("Ignoring unknown configuration keys", zap.Strings("keys", event.Unknown))
	}

	return event.Apply(i.defaults)
}

// Invoke runs one crawl configured by the raw JSON payload
func (i *Invoker) Invoke(ctx context.Context, raw []byte) (*models.CrawlRun, error) {
	return i.Run(ctx, i.Settings(raw))
}

// Run crawls every start URL in settings and returns the run summary.
// Per-page failures are part of the summary and never fail the run.
func (i *Invoker) Run(ctx context.Context, settings models.CrawlSettings) (*models.CrawlRun, error) {
	if !settings.DryRun && i.dynamo == nil {
		return nil, errors.New("no DynamoDB client configured")
	}

	run := models.NewCrawlRun(settings, i.now())
	log := i.logger.With(zap.String("run_id", run.ID))

	log.Info("Starting crawl",
		zap.Strings("start_urls", settings.StartURLs),
		zap.String("table", settings.TableName),
		zap.Int("trim_offset", settings.TrimOffset),
		zap.Bool("dry_run", settings.DryRun),
		zap.String("trigger", settings.TriggerType),
	)

	urls := make([]string, 0, len(settings.StartURLs))
	for _, u := range settings.StartURLs {
		if err := models.ValidateStartURL(u); err != nil {
			log.Warn("Skipping invalid start URL", zap.String("url", u), zap.Error(err))
			run.Add(models.PageResult{URL: u, Err: &models.FetchError{URL: u, Err: err}})
			continue
		}
		urls = append(urls, u)
	}

	var store RecordStore
	if !settings.DryRun {
		store = NewPageStore(i.dynamo, settings.TableName, settings.StorePageTitle)
	}

	var emitters []Emitter
	if i.output != nil {
		emitters = append(emitters, NewJSONLinesEmitter(i.output))
	}

	var exporter *S3FeedExporter
	switch {
	case settings.FeedBucket == "":
	case i.s3 == nil:
		run.Warn(fmt.Sprintf("feed bucket %s configured without an S3 client", settings.FeedBucket))
	default:
		exporter = NewS3FeedExporter(i.s3, settings.FeedBucket, i.region)
		emitters = append(emitters, exporter)
	}

	ingestor := NewPageIngestor(NewPageExtractor(settings.TrimOffset), store, log, emitters...)
	crawler := NewCrawler(CrawlerConfig{
		AllowedDomains: settings.AllowedDomains,
		UserAgent:      settings.UserAgent,
		ObeyRobots:     settings.ObeyRobots,
		RequestTimeout: settings.RequestTimeout,
	}, ingestor, log)

	for result := range crawler.Crawl(ctx, urls) {
		run.Add(result)
	}

	if exporter != nil {
		key := settings.FeedKey
		if key == "" {
			key = models.GenerateFeedKey(run.ID, run.StartedAt)
		}

		upload, err := exporter.Flush(ctx, key)
		if err != nil {
			log.Error("Failed to export feed", zap.String("bucket", settings.FeedBucket), zap.Error(err))
			run.Warn(err.Error())
		} else {
			run.FeedLocation = upload.Location
			log.Info("Exported feed", zap.String("location", upload.Location), zap.Int64("bytes", upload.Size))
		}
	}

	if ctx.Err() != nil {
		run.Warn(fmt.Sprintf("crawl interrupted: %v", ctx.Err()))
	}

	run.Complete(i.now())

	log.Info("Crawl finished",
		zap.String("status", run.Status),
		zap.Int("pages_visited", run.PagesVisited),
		zap.Int("records_emitted", run.RecordsEmitted),
		zap.Int("records_stored", run.RecordsStored),
		zap.Int("failures", len(run.Failures)),
		zap.Int64("duration_ms", run.Duration),
	)

	return run, nil
}
