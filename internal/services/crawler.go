package services

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"go.uber.org/zap"

	"spider-indexer-scraper/internal/models"
)

const (
	acceptHeader         = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"
	acceptLanguageHeader = "en-US,en;q=0.9"
)

var errNotHTML = errors.New("response is not an HTML document")

// CrawlerConfig controls how start pages are fetched
type CrawlerConfig struct {
	AllowedDomains []string
	UserAgent      string // empty picks a random browser user agent per request
	ObeyRobots     bool
	RequestTimeout time.Duration
}

// PageHandler processes one fetched and parsed page. *PageIngestor
// satisfies it.
type PageHandler interface {
	Ingest(ctx context.Context, pageURL string, doc *goquery.Selection) models.PageResult
}

// Crawler fetches a fixed list of start pages, one at a time, and never
// follows links found on them
type Crawler struct {
	cfg     CrawlerConfig
	handler PageHandler
	logger  *zap.Logger
}

// NewCrawler creates a crawler handing every page to handler. logger may be nil.
func NewCrawler(cfg CrawlerConfig, handler PageHandler, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Crawler{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// Crawl returns the lazy sequence of page results for urls. Each page is
// fetched only when the consumer asks for the next element, so breaking out
// of the range stops the crawl. Cancelling ctx stops it between pages.
func (c *Crawler) Crawl(ctx context.Context, urls []string) iter.Seq[models.PageResult] {
	return func(yield func(models.PageResult) bool) {
		collector := c.newCollector(ctx)

		var (
			current    models.PageResult
			handled    bool
			statusCode int
		)

		collector.OnHTML("html", func(e *colly.HTMLElement) {
			if handled {
				return
			}
			handled = true
			current = c.handler.Ingest(ctx, current.URL, e.DOM)
		})

		collector.OnResponse(func(r *colly.Response) {
			statusCode = r.StatusCode
		})
		collector.OnError(func(r *colly.Response, err error) {
			if r != nil {
				statusCode = r.StatusCode
			}
		})

		for _, pageURL := range urls {
			if ctx.Err() != nil {
				c.logger.Info("Crawl cancelled", zap.Error(ctx.Err()))
				return
			}

			current = models.PageResult{URL: pageURL}
			handled = false
			statusCode = 0

			err := collector.Visit(pageURL)
			if !handled {
				switch {
				case ctx.Err() != nil:
					err = ctx.Err()
				case err == nil:
					err = errNotHTML
				}
				current.Err = &models.FetchError{URL: pageURL, StatusCode: statusCode, Err: err}
				c.logger.Warn("Failed to fetch page",
					zap.String("url", pageURL),
					zap.Int("status", statusCode),
					zap.Error(err),
				)
			}

			if !yield(current) {
				return
			}
		}
	}
}

// newCollector builds a synchronous collector for one crawl
func (c *Crawler) newCollector(ctx context.Context) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.MaxDepth(1),
		colly.Async(false),
		colly.AllowURLRevisit(),
	}

	if c.cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.cfg.UserAgent))
	}
	if len(c.cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(c.cfg.AllowedDomains...))
	}

	collector := colly.NewCollector(opts...)
	collector.IgnoreRobotsTxt = !c.cfg.ObeyRobots

	if c.cfg.RequestTimeout > 0 {
		collector.SetRequestTimeout(c.cfg.RequestTimeout)
	}
	if c.cfg.UserAgent == "" {
		extensions.RandomUserAgent(collector)
	}

	collector.OnRequest(c.requestCallback(ctx))
	collector.OnResponse(func(r *colly.Response) {
		c.logger.Debug("Fetched page",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Int("bytes", len(r.Body)),
		)
	})

	return collector
}

// requestCallback returns the OnRequest callback (abort on cancel, browser headers)
func (c *Crawler) requestCallback(ctx context.Context) func(*colly.Request) {
	return func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
			return
		default:
		}

		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", acceptLanguageHeader)

		c.logger.Debug("Visiting page", zap.String("url", r.URL.String()))
	}
}
