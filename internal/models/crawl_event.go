package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// CrawlEvent is the optional JSON configuration passed to a crawl, either as
// the CLI argument, the Lambda payload or an SQS message body. Every field is
// optional; nil or empty values keep the configured default.
type CrawlEvent struct {
	StartURLs             []string `json:"start_urls,omitempty"`
	AllowedDomains        []string `json:"allowed_domains,omitempty"`
	TrimOffset            *int     `json:"trim_offset,omitempty"`
	TableName             string   `json:"table_name,omitempty"`
	StorePageTitle        *bool    `json:"store_page_title,omitempty"`
	UserAgent             string   `json:"user_agent,omitempty"`
	ObeyRobots            *bool    `json:"obey_robots,omitempty"`
	RequestTimeoutSeconds *int     `json:"request_timeout_seconds,omitempty"`
	FeedBucket            string   `json:"feed_bucket,omitempty"`
	FeedKey               string   `json:"feed_key,omitempty"`
	DryRun                *bool    `json:"dry_run,omitempty"`
	TriggerType           string   `json:"trigger_type,omitempty"`

	// Unknown holds keys the crawler does not recognise
	Unknown []string `json:"-"`
}

var crawlEventKeys = map[string]bool{
	"start_urls":              true,
	"allowed_domains":         true,
	"trim_offset":             true,
	"table_name":              true,
	"store_page_title":        true,
	"user_agent":              true,
	"obey_robots":             true,
	"request_timeout_seconds": true,
	"feed_bucket":             true,
	"feed_key":                true,
	"dry_run":                 true,
	"trigger_type":            true,
}

// UnmarshalJSON decodes the known keys and records the rest in Unknown
func (e *CrawlEvent) UnmarshalJSON(data []byte) error {
	type plain CrawlEvent
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key := range raw {
		if !crawlEventKeys[key] {
			decoded.Unknown = append(decoded.Unknown, key)
		}
	}
	sort.Strings(decoded.Unknown)

	*e = CrawlEvent(decoded)
	return nil
}

// ParseCrawlEvent decodes an invocation payload. An empty payload (or JSON
// null) yields an empty event. Anything that is not a JSON object yields an
// empty event together with a *ConfigParseError the caller should log and
// otherwise ignore.
func ParseCrawlEvent(raw []byte) (CrawlEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return CrawlEvent{}, nil
	}

	if trimmed[0] != '{' {
		return CrawlEvent{}, &ConfigParseError{
			Input: string(raw),
			Err:   fmt.Errorf("expected a JSON object"),
		}
	}

	var event CrawlEvent
	if err := json.Unmarshal(trimmed, &event); err != nil {
		return CrawlEvent{}, &ConfigParseError{Input: string(raw), Err: err}
	}

	return event, nil
}

// CrawlSettings is the fully resolved configuration of one crawl run
type CrawlSettings struct {
	StartURLs      []string      `json:"start_urls"`
	AllowedDomains []string      `json:"allowed_domains,omitempty"`
	TrimOffset     int           `json:"trim_offset"`
	TableName      string        `json:"table_name"`
	StorePageTitle bool          `json:"store_page_title"`
	UserAgent      string        `json:"user_agent,omitempty"`
	ObeyRobots     bool          `json:"obey_robots"`
	RequestTimeout time.Duration `json:"request_timeout"`
	FeedBucket     string        `json:"feed_bucket,omitempty"`
	FeedKey        string        `json:"feed_key,omitempty"`
	DryRun         bool          `json:"dry_run"`
	TriggerType    string        `json:"trigger_type"`
}

// DefaultCrawlSettings returns the settings used when nothing is configured
func DefaultCrawlSettings() CrawlSettings {
	return CrawlSettings{
		StartURLs:      DefaultStartURLs(),
		TrimOffset:     DefaultTrimOffset,
		TableName:      DefaultTableName,
		ObeyRobots:     true,
		RequestTimeout: 30 * time.Second,
		TriggerType:    TriggerTypeManual,
	}
}

// Apply overlays the event on top of base and returns the result
func (e CrawlEvent) Apply(base CrawlSettings) CrawlSettings {
	s := base
	s.StartURLs = append([]string(nil), base.StartURLs...)
	s.AllowedDomains = append([]string(nil), base.AllowedDomains...)

	if len(e.StartURLs) > 0 {
		s.StartURLs = append([]string(nil), e.StartURLs...)
	}
	if len(e.AllowedDomains) > 0 {
		s.AllowedDomains = append([]string(nil), e.AllowedDomains...)
	}
	if e.TrimOffset != nil && *e.TrimOffset >= 0 {
		s.TrimOffset = *e.TrimOffset
	}
	if e.TableName != "" {
		s.TableName = e.TableName
	}
	if e.StorePageTitle != nil {
		s.StorePageTitle = *e.StorePageTitle
	}
	if e.UserAgent != "" {
		s.UserAgent = e.UserAgent
	}
	if e.ObeyRobots != nil {
		s.ObeyRobots = *e.ObeyRobots
	}
	if e.RequestTimeoutSeconds != nil && *e.RequestTimeoutSeconds > 0 {
		s.RequestTimeout = time.Duration(*e.RequestTimeoutSeconds) * time.Second
	}
	if e.FeedBucket != "" {
		s.FeedBucket = e.FeedBucket
	}
	if e.FeedKey != "" {
		s.FeedKey = e.FeedKey
	}
	if e.DryRun != nil {
		s.DryRun = *e.DryRun
	}
	if e.TriggerType != "" {
		s.TriggerType = e.TriggerType
	}

	return s
}
