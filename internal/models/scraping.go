package models

import "time"

// PageFailure describes a page that did not produce a stored record
type PageFailure struct {
	URL   string `json:"url"`
	Kind  string `json:"kind"` // missing_element|store_write|fetch|unknown
	Error string `json:"error"`
}

// CrawlRun summarises one crawl over the configured start pages
type CrawlRun struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
	Duration    int64     `json:"duration,omitempty"` // total duration in milliseconds
	Status      string    `json:"status"`             // running|completed|partial|failed

	// Aggregated results
	PagesVisited   int `json:"pagesVisited"`
	RecordsEmitted int `json:"recordsEmitted"`
	RecordsStored  int `json:"recordsStored"`

	Failures []PageFailure `json:"failures,omitempty"`
	Records  []PageRecord  `json:"records,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`

	// Metadata
	TriggerType     string `json:"triggerType"` // scheduled|manual|queue
	TableName       string `json:"tableName"`
	DryRun          bool   `json:"dryRun,omitempty"`
	FeedLocation    string `json:"feedLocation,omitempty"`
	LambdaRequestId string `json:"lambdaRequestId,omitempty"`
}

// NewCrawlRun starts a run summary
func NewCrawlRun(settings CrawlSettings, startedAt time.Time) *CrawlRun {
	return &CrawlRun{
		ID:          GenerateCrawlRunID(),
		StartedAt:   startedAt,
		Status:      CrawlStatusRunning,
		TriggerType: settings.TriggerType,
		TableName:   settings.TableName,
		DryRun:      settings.DryRun,
	}
}

// Add folds one page result into the summary
func (r *CrawlRun) Add(result PageResult) {
	r.PagesVisited++

	if result.Record != nil {
		r.RecordsEmitted++
		r.Records = append(r.Records, *result.Record)
	}

	if result.Err != nil {
		r.Failures = append(r.Failures, PageFailure{
			URL:   result.URL,
			Kind:  FailureKind(result.Err),
			Error: result.Err.Error(),
		})
		return
	}

	if result.Record != nil && !r.DryRun {
		r.RecordsStored++
	}
}

// Warn records a non-fatal problem with the run as a whole
func (r *CrawlRun) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Complete stamps the end time and derives the final status
func (r *CrawlRun) Complete(completedAt time.Time) {
	r.CompletedAt = completedAt
	r.Duration = completedAt.Sub(r.StartedAt).Milliseconds()

	switch {
	case len(r.Failures) == 0:
		r.Status = CrawlStatusCompleted
	case r.RecordsEmitted > 0:
		r.Status = CrawlStatusPartial
	default:
		r.Status = CrawlStatusFailed
	}
}

// Crawl run status constants
const (
	CrawlStatusRunning   = "running"
	CrawlStatusCompleted = "completed"
	CrawlStatusFailed    = "failed"
	CrawlStatusPartial   = "partial"
)

// Trigger type constants
const (
	TriggerTypeScheduled = "scheduled"
	TriggerTypeManual    = "manual"
	TriggerTypeQueue     = "queue"
)
